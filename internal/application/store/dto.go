package store

// BuyVirtualGoodRequest 仮想通貨建て購入リクエスト
type BuyVirtualGoodRequest struct {
	UserID   string
	ItemID   string
	Metadata map[string]interface{}
}

// BuyVirtualGoodResponse 仮想通貨建て購入レスポンス
type BuyVirtualGoodResponse struct {
	PurchaseID       string
	ItemID           string           // 購入したアイテムID
	BalanceAfter     int64            // 購入対象アイテムの購入後残高
	Debits           map[string]int64 // 通貨アイテムID毎の消費量
	CurrencyBalances map[string]int64 // 消費後の通貨残高
	Status           string
}

// GiveItemRequest アイテム付与リクエスト
type GiveItemRequest struct {
	UserID   string
	ItemID   string
	Amount   int64
	Metadata map[string]interface{}
}

// GiveItemResponse アイテム付与レスポンス
type GiveItemResponse struct {
	PurchaseID   string
	ItemID       string // 実際に付与されたアイテムID（パックの場合は対象通貨）
	GivenAmount  int64  // 実際に付与された量（パックの場合はcurrencyAmount*amount）
	BalanceAfter int64
	Status       string
}

// TakeItemRequest アイテム取り上げリクエスト
type TakeItemRequest struct {
	UserID   string
	ItemID   string
	Amount   int64
	Metadata map[string]interface{}
}

// TakeItemResponse アイテム取り上げレスポンス
type TakeItemResponse struct {
	PurchaseID   string
	ItemID       string // 実際に取り上げられたアイテムID（パックの場合は対象通貨）
	TakenAmount  int64
	BalanceAfter int64
	Status       string
}

// GetBalancesRequest 残高取得リクエスト
type GetBalancesRequest struct {
	UserID string
}

// GoodBalance UIへ提示するグッズの残高と価格
type GoodBalance struct {
	Balance int64            `json:"balance"`
	Price   map[string]int64 `json:"price"`
}

// GetBalancesResponse 残高取得レスポンス
type GetBalancesResponse struct {
	UserID     string
	Currencies map[string]int64       // 通貨アイテムID => 残高
	Goods      map[string]GoodBalance // グッズアイテムID => 残高と価格
}

// StorefrontRequest ストア初期化ペイロード取得リクエスト
type StorefrontRequest struct {
	UserID string
}

// CurrencyView UIへ提示する通貨定義
type CurrencyView struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PackView UIへ提示する通貨パック定義
type PackView struct {
	ItemID         string           `json:"itemId"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ProductID      string           `json:"productId,omitempty"`
	Price          map[string]int64 `json:"price,omitempty"`
	CurrencyItemID string           `json:"currencyItemId"`
	CurrencyAmount int64            `json:"currencyAmount"`
}

// GoodView UIへ提示するグッズ定義
type GoodView struct {
	ItemID      string           `json:"itemId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       map[string]int64 `json:"price"`
}

// StorefrontResponse ストア初期化ペイロード
// カタログ定義と現在の残高をまとめて返す
type StorefrontResponse struct {
	Currencies       []CurrencyView         `json:"currencies"`
	CurrencyPacks    []PackView             `json:"currencyPacks"`
	Goods            []GoodView             `json:"goods"`
	CurrencyBalances map[string]int64       `json:"currencyBalances"`
	GoodsBalances    map[string]GoodBalance `json:"goodsBalances"`
}
