package market

// RequestPurchaseRequest マーケット購入リクエスト発行のリクエストDTO
type RequestPurchaseRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

// RequestPurchaseResponse マーケット購入リクエスト発行のレスポンスDTO
type RequestPurchaseResponse struct {
	OrderID   string `json:"order_id"`
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

// CompletePurchaseRequest 課金コールバック受領のリクエストDTO
type CompletePurchaseRequest struct {
	OrderID string                 `json:"order_id"`
	Receipt map[string]interface{} `json:"receipt"`
}

// CompletePurchaseResponse 課金コールバック受領のレスポンスDTO
type CompletePurchaseResponse struct {
	OrderID        string `json:"order_id"`
	PurchaseID     string `json:"purchase_id"`
	ItemID         string `json:"item_id"`
	CurrencyItemID string `json:"currency_item_id"`
	GivenAmount    int64  `json:"given_amount"`
	BalanceAfter   int64  `json:"balance_after"`
	Status         string `json:"status"`
}

// CancelPurchaseRequest 課金キャンセルのリクエストDTO
type CancelPurchaseRequest struct {
	OrderID string `json:"order_id"`
}

// CancelPurchaseResponse 課金キャンセルのレスポンスDTO
type CancelPurchaseResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// RefundPurchaseRequest 返金のリクエストDTO
type RefundPurchaseRequest struct {
	OrderID string `json:"order_id"`
}

// RefundPurchaseResponse 返金のレスポンスDTO
type RefundPurchaseResponse struct {
	OrderID        string `json:"order_id"`
	CurrencyItemID string `json:"currency_item_id"`
	TakenAmount    int64  `json:"taken_amount"`
	BalanceAfter   int64  `json:"balance_after"`
	Status         string `json:"status"`
}
