package balance

import (
	"context"
)

// BalanceRepository 残高リポジトリインターフェース
type BalanceRepository interface {
	// FindByUserIDAndItemID ユーザーIDとアイテムIDで残高を取得
	FindByUserIDAndItemID(ctx context.Context, userID, itemID string) (*Balance, error)

	// FindByUserID ユーザーの全残高を取得
	FindByUserID(ctx context.Context, userID string) ([]*Balance, error)

	// Save 残高を保存（更新、楽観的ロック対応）
	Save(ctx context.Context, balance *Balance) error

	// Create 新しい残高を作成
	Create(ctx context.Context, balance *Balance) error
}
