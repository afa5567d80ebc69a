package item

import (
	"fmt"
)

// Catalog ストアで扱う全アイテムのカタログ
// ストア初期化時に一度だけ構築され、以降は不変
type Catalog struct {
	currencies map[string]*VirtualCurrency
	packs      map[string]*VirtualCurrencyPack
	goods      map[string]*VirtualGood

	// マーケット商品ID -> パックの逆引き
	packsByProductID map[string]*VirtualCurrencyPack

	// 定義順を保持（UIへの提示順）
	currencyOrder []string
	packOrder     []string
	goodOrder     []string
}

// NewCatalog 新しいCatalogを構築
// 不変条件: アイテムIDは全種別を通して一意であり、パックおよび価格が参照する
// 通貨IDは必ずカタログ内に存在する
func NewCatalog(
	currencies []*VirtualCurrency,
	packs []*VirtualCurrencyPack,
	goods []*VirtualGood,
) (*Catalog, error) {
	c := &Catalog{
		currencies:       make(map[string]*VirtualCurrency, len(currencies)),
		packs:            make(map[string]*VirtualCurrencyPack, len(packs)),
		goods:            make(map[string]*VirtualGood, len(goods)),
		packsByProductID: make(map[string]*VirtualCurrencyPack, len(packs)),
	}

	seen := make(map[string]struct{})
	register := func(itemID string) error {
		if _, ok := seen[itemID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateItemID, itemID)
		}
		seen[itemID] = struct{}{}
		return nil
	}

	for _, currency := range currencies {
		if err := register(currency.ItemID()); err != nil {
			return nil, err
		}
		c.currencies[currency.ItemID()] = currency
		c.currencyOrder = append(c.currencyOrder, currency.ItemID())
	}

	for _, pack := range packs {
		if err := register(pack.ItemID()); err != nil {
			return nil, err
		}
		if _, ok := c.currencies[pack.CurrencyItemID()]; !ok {
			return nil, fmt.Errorf("%w: pack %s references %s",
				ErrUnknownCurrency, pack.ItemID(), pack.CurrencyItemID())
		}
		c.packs[pack.ItemID()] = pack
		c.packOrder = append(c.packOrder, pack.ItemID())
		if pack.PurchaseType().IsMarket() {
			c.packsByProductID[pack.PurchaseType().ProductID()] = pack
		}
	}

	for _, good := range goods {
		if err := register(good.ItemID()); err != nil {
			return nil, err
		}
		for currencyItemID := range good.Price() {
			if _, ok := c.currencies[currencyItemID]; !ok {
				return nil, fmt.Errorf("%w: good %s priced in %s",
					ErrUnknownCurrency, good.ItemID(), currencyItemID)
			}
		}
		c.goods[good.ItemID()] = good
		c.goodOrder = append(c.goodOrder, good.ItemID())
	}

	return c, nil
}

// CurrencyByItemID アイテムIDで通貨を取得
func (c *Catalog) CurrencyByItemID(itemID string) (*VirtualCurrency, error) {
	currency, ok := c.currencies[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return currency, nil
}

// PackByItemID アイテムIDで通貨パックを取得
func (c *Catalog) PackByItemID(itemID string) (*VirtualCurrencyPack, error) {
	pack, ok := c.packs[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return pack, nil
}

// GoodByItemID アイテムIDで商品を取得
func (c *Catalog) GoodByItemID(itemID string) (*VirtualGood, error) {
	good, ok := c.goods[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return good, nil
}

// PackByProductID マーケット商品IDで通貨パックを取得
func (c *Catalog) PackByProductID(productID string) (*VirtualCurrencyPack, error) {
	pack, ok := c.packsByProductID[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return pack, nil
}

// HasItem アイテムIDがカタログ内に存在するかを返す
func (c *Catalog) HasItem(itemID string) bool {
	if _, ok := c.currencies[itemID]; ok {
		return true
	}
	if _, ok := c.packs[itemID]; ok {
		return true
	}
	_, ok := c.goods[itemID]
	return ok
}

// Currencies 通貨一覧を定義順で返す
func (c *Catalog) Currencies() []*VirtualCurrency {
	currencies := make([]*VirtualCurrency, 0, len(c.currencyOrder))
	for _, itemID := range c.currencyOrder {
		currencies = append(currencies, c.currencies[itemID])
	}
	return currencies
}

// Packs 通貨パック一覧を定義順で返す
func (c *Catalog) Packs() []*VirtualCurrencyPack {
	packs := make([]*VirtualCurrencyPack, 0, len(c.packOrder))
	for _, itemID := range c.packOrder {
		packs = append(packs, c.packs[itemID])
	}
	return packs
}

// Goods 商品一覧を定義順で返す
func (c *Catalog) Goods() []*VirtualGood {
	goods := make([]*VirtualGood, 0, len(c.goodOrder))
	for _, itemID := range c.goodOrder {
		goods = append(goods, c.goods[itemID])
	}
	return goods
}
