package item

import "errors"

var (
	// ErrInvalidCurrencyAmount パックの通貨量が無効
	ErrInvalidCurrencyAmount = errors.New("invalid currency amount")
)

// VirtualCurrencyPack 特定の仮想通貨を一定量付与する購入可能アイテム
// 例: 通貨が「コイン」の場合、「コイン100枚セット」のようなパックを表す
type VirtualCurrencyPack struct {
	VirtualItem
	purchaseType   PurchaseType
	currencyItemID string
	currencyAmount int64
}

// NewVirtualCurrencyPack 新しいVirtualCurrencyPackを作成
func NewVirtualCurrencyPack(
	itemID, name, description string,
	purchaseType PurchaseType,
	currencyItemID string,
	currencyAmount int64,
) (*VirtualCurrencyPack, error) {
	base, err := NewVirtualItem(itemID, name, description)
	if err != nil {
		return nil, err
	}
	if !itemIDRegex.MatchString(currencyItemID) {
		return nil, ErrInvalidItemID
	}
	if currencyAmount <= 0 {
		return nil, ErrInvalidCurrencyAmount
	}
	return &VirtualCurrencyPack{
		VirtualItem:    base,
		purchaseType:   purchaseType,
		currencyItemID: currencyItemID,
		currencyAmount: currencyAmount,
	}, nil
}

// PurchaseType 購入方法を返す
func (p *VirtualCurrencyPack) PurchaseType() PurchaseType {
	return p.purchaseType
}

// CurrencyItemID 付与対象の通貨アイテムIDを返す
func (p *VirtualCurrencyPack) CurrencyItemID() string {
	return p.currencyItemID
}

// CurrencyAmount パックに含まれる通貨量を返す
func (p *VirtualCurrencyPack) CurrencyAmount() int64 {
	return p.currencyAmount
}

// MustNewVirtualCurrencyPack テスト用ヘルパー
func MustNewVirtualCurrencyPack(
	itemID, name, description string,
	purchaseType PurchaseType,
	currencyItemID string,
	currencyAmount int64,
) *VirtualCurrencyPack {
	p, err := NewVirtualCurrencyPack(itemID, name, description, purchaseType, currencyItemID, currencyAmount)
	if err != nil {
		panic(err)
	}
	return p
}
