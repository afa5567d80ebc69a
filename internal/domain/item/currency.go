package item

// VirtualCurrency ゲーム内で消費可能な仮想通貨エンティティ
type VirtualCurrency struct {
	VirtualItem
}

// NewVirtualCurrency 新しいVirtualCurrencyを作成
func NewVirtualCurrency(itemID, name, description string) (*VirtualCurrency, error) {
	base, err := NewVirtualItem(itemID, name, description)
	if err != nil {
		return nil, err
	}
	return &VirtualCurrency{VirtualItem: base}, nil
}

// MustNewVirtualCurrency テスト用ヘルパー
func MustNewVirtualCurrency(itemID, name, description string) *VirtualCurrency {
	c, err := NewVirtualCurrency(itemID, name, description)
	if err != nil {
		panic(err)
	}
	return c
}
