package market_order

import (
	"context"
)

// MarketOrderRepository マーケット注文リポジトリインターフェース
type MarketOrderRepository interface {
	// Create 新しい注文を作成
	Create(ctx context.Context, order *MarketOrder) error

	// FindByOrderID 注文IDで注文を取得
	FindByOrderID(ctx context.Context, orderID string) (*MarketOrder, error)

	// Save 注文を保存（ステータス更新）
	Save(ctx context.Context, order *MarketOrder) error
}
