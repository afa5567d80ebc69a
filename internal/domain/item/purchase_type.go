package item

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProductID マーケット商品IDが空
	ErrEmptyProductID = errors.New("market product id is empty")
	// ErrEmptyPrice 価格が空
	ErrEmptyPrice = errors.New("virtual price is empty")
	// ErrInvalidPriceAmount 価格の金額が無効
	ErrInvalidPriceAmount = errors.New("invalid price amount")
)

// PurchaseKind 購入方法の種別を表す値オブジェクト
type PurchaseKind string

const (
	PurchaseKindMarket  PurchaseKind = "market"  // プラットフォーム課金（実通貨）
	PurchaseKindVirtual PurchaseKind = "virtual" // 仮想通貨建て
)

// String 文字列表現を返す
func (pk PurchaseKind) String() string {
	return string(pk)
}

// Valid 有効な購入種別かどうかを返す
func (pk PurchaseKind) Valid() bool {
	return pk == PurchaseKindMarket || pk == PurchaseKindVirtual
}

// PurchaseType 購入方法を表す値オブジェクト
// market: プラットフォーム課金の商品ID、virtual: 通貨アイテムID毎の価格を保持する
type PurchaseType struct {
	kind      PurchaseKind
	productID string
	price     map[string]int64
}

// NewMarketPurchase プラットフォーム課金の購入方法を作成
func NewMarketPurchase(productID string) (PurchaseType, error) {
	if productID == "" {
		return PurchaseType{}, ErrEmptyProductID
	}
	return PurchaseType{
		kind:      PurchaseKindMarket,
		productID: productID,
	}, nil
}

// NewVirtualPurchase 仮想通貨建ての購入方法を作成
func NewVirtualPurchase(price map[string]int64) (PurchaseType, error) {
	if len(price) == 0 {
		return PurchaseType{}, ErrEmptyPrice
	}
	copied := make(map[string]int64, len(price))
	for currencyItemID, amount := range price {
		if !itemIDRegex.MatchString(currencyItemID) {
			return PurchaseType{}, fmt.Errorf("%w: %s", ErrInvalidItemID, currencyItemID)
		}
		if amount <= 0 {
			return PurchaseType{}, fmt.Errorf("%w: %s=%d", ErrInvalidPriceAmount, currencyItemID, amount)
		}
		copied[currencyItemID] = amount
	}
	return PurchaseType{
		kind:  PurchaseKindVirtual,
		price: copied,
	}, nil
}

// Kind 購入種別を返す
func (pt PurchaseType) Kind() PurchaseKind {
	return pt.kind
}

// IsMarket プラットフォーム課金かどうかを返す
func (pt PurchaseType) IsMarket() bool {
	return pt.kind == PurchaseKindMarket
}

// IsVirtual 仮想通貨建てかどうかを返す
func (pt PurchaseType) IsVirtual() bool {
	return pt.kind == PurchaseKindVirtual
}

// ProductID マーケット商品IDを返す（marketのみ）
func (pt PurchaseType) ProductID() string {
	return pt.productID
}

// Price 通貨アイテムID毎の価格を返す（virtualのみ）
// 呼び出し側での変更を防ぐためコピーを返す
func (pt PurchaseType) Price() map[string]int64 {
	price := make(map[string]int64, len(pt.price))
	for currencyItemID, amount := range pt.price {
		price[currencyItemID] = amount
	}
	return price
}

// MustNewMarketPurchase テスト用ヘルパー
func MustNewMarketPurchase(productID string) PurchaseType {
	pt, err := NewMarketPurchase(productID)
	if err != nil {
		panic(err)
	}
	return pt
}

// MustNewVirtualPurchase テスト用ヘルパー
func MustNewVirtualPurchase(price map[string]int64) PurchaseType {
	pt, err := NewVirtualPurchase(price)
	if err != nil {
		panic(err)
	}
	return pt
}
