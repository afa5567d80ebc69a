package purchase

import (
	"context"
)

// PurchaseRepository 購入台帳リポジトリインターフェース
type PurchaseRepository interface {
	// Save 購入レコードを保存
	Save(ctx context.Context, p *Purchase) error

	// FindByPurchaseID 購入IDで購入レコードを取得
	FindByPurchaseID(ctx context.Context, purchaseID string) (*Purchase, error)

	// FindByUserID ユーザーIDで購入レコードを取得（新しい順、ページング対応）
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*Purchase, error)

	// FindByUserIDAndKind ユーザーIDと種別で購入レコードを取得（新しい順、ページング対応）
	// 種別の絞り込みをSQL側で行うことでページングと整合させる
	FindByUserIDAndKind(ctx context.Context, userID string, kind PurchaseKind, limit, offset int) ([]*Purchase, error)

	// FindByMarketOrderID マーケット注文IDで購入レコードを取得
	FindByMarketOrderID(ctx context.Context, orderID string) (*Purchase, error)
}
