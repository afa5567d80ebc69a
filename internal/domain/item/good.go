package item

// VirtualGood 仮想通貨建てで購入できるアイテムエンティティ
type VirtualGood struct {
	VirtualItem
	purchaseType PurchaseType
}

// NewVirtualGood 新しいVirtualGoodを作成
func NewVirtualGood(itemID, name, description string, purchaseType PurchaseType) (*VirtualGood, error) {
	base, err := NewVirtualItem(itemID, name, description)
	if err != nil {
		return nil, err
	}
	return &VirtualGood{
		VirtualItem:  base,
		purchaseType: purchaseType,
	}, nil
}

// PurchaseType 購入方法を返す
func (g *VirtualGood) PurchaseType() PurchaseType {
	return g.purchaseType
}

// Price 通貨アイテムID毎の価格を返す
func (g *VirtualGood) Price() map[string]int64 {
	return g.purchaseType.Price()
}

// MustNewVirtualGood テスト用ヘルパー
func MustNewVirtualGood(itemID, name, description string, purchaseType PurchaseType) *VirtualGood {
	g, err := NewVirtualGood(itemID, name, description, purchaseType)
	if err != nil {
		panic(err)
	}
	return g
}
