package handler

// MarketOrderRequest マーケット購入リクエスト
type MarketOrderRequest struct {
	ItemID string `json:"item_id"`
}

// MarketOrderResponse マーケット購入リクエストレスポンス
type MarketOrderResponse struct {
	OrderID   string `json:"order_id"`
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

// MarketCompleteRequest 課金コールバックリクエスト
type MarketCompleteRequest struct {
	Receipt map[string]interface{} `json:"receipt"`
}

// MarketCompleteResponse 課金コールバックレスポンス
type MarketCompleteResponse struct {
	OrderID        string `json:"order_id"`
	PurchaseID     string `json:"purchase_id"`
	ItemID         string `json:"item_id"`
	CurrencyItemID string `json:"currency_item_id"`
	GivenAmount    int64  `json:"given_amount"`
	BalanceAfter   int64  `json:"balance_after"`
	Status         string `json:"status"`
}

// MarketCancelResponse 課金キャンセルレスポンス
type MarketCancelResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// MarketRefundResponse 返金レスポンス
type MarketRefundResponse struct {
	OrderID        string `json:"order_id"`
	CurrencyItemID string `json:"currency_item_id"`
	TakenAmount    int64  `json:"taken_amount"`
	BalanceAfter   int64  `json:"balance_after"`
	Status         string `json:"status"`
}
