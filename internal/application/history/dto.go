package history

import "storefront-server/internal/domain/purchase"

// GetPurchaseHistoryRequest 購入履歴取得リクエスト
type GetPurchaseHistoryRequest struct {
	UserID string
	Limit  int
	Offset int
	Kind   string // optional: "market", "virtual", "grant", "take"
}

// GetPurchaseHistoryResponse 購入履歴取得レスポンス
type GetPurchaseHistoryResponse struct {
	Purchases []*purchase.Purchase
	Total     int
	Limit     int
	Offset    int
}
