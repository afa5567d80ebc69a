package handler

// BuyRequest 仮想通貨建て購入リクエスト
type BuyRequest struct {
	ItemID   string                 `json:"item_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

// BuyResponse 仮想通貨建て購入レスポンス
type BuyResponse struct {
	PurchaseID       string           `json:"purchase_id"`
	ItemID           string           `json:"item_id"`
	BalanceAfter     int64            `json:"balance_after"`
	Debits           map[string]int64 `json:"debits"`
	CurrencyBalances map[string]int64 `json:"currency_balances"`
	Status           string           `json:"status"`
}

// GiveRequest アイテム付与リクエスト
type GiveRequest struct {
	ItemID   string                 `json:"item_id"`
	Amount   int64                  `json:"amount"`
	Metadata map[string]interface{} `json:"metadata"`
}

// GiveResponse アイテム付与レスポンス
type GiveResponse struct {
	PurchaseID   string `json:"purchase_id"`
	ItemID       string `json:"item_id"`
	GivenAmount  int64  `json:"given_amount"`
	BalanceAfter int64  `json:"balance_after"`
	Status       string `json:"status"`
}

// TakeRequest アイテム取り上げリクエスト
type TakeRequest struct {
	ItemID   string                 `json:"item_id"`
	Amount   int64                  `json:"amount"`
	Metadata map[string]interface{} `json:"metadata"`
}

// TakeResponse アイテム取り上げレスポンス
type TakeResponse struct {
	PurchaseID   string `json:"purchase_id"`
	ItemID       string `json:"item_id"`
	TakenAmount  int64  `json:"taken_amount"`
	BalanceAfter int64  `json:"balance_after"`
	Status       string `json:"status"`
}
