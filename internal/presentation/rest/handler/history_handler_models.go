package handler

// PurchaseItem 購入履歴アイテム
type PurchaseItem struct {
	PurchaseID    string           `json:"purchase_id"`
	ItemID        string           `json:"item_id"`
	Kind          string           `json:"kind"`
	Quantity      int64            `json:"quantity"`
	Debits        map[string]int64 `json:"debits,omitempty"`
	BalanceBefore int64            `json:"balance_before"`
	BalanceAfter  int64            `json:"balance_after"`
	MarketOrderID string           `json:"market_order_id,omitempty"`
	Status        string           `json:"status"`
	CreatedAt     string           `json:"created_at"`
}

// PurchaseHistoryResponse 購入履歴レスポンス
type PurchaseHistoryResponse struct {
	Purchases []PurchaseItem `json:"purchases"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}
