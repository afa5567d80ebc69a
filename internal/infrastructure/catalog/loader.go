package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"storefront-server/internal/domain/item"
)

// currencyDef カタログJSONの通貨定義
type currencyDef struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// packDef カタログJSONの通貨パック定義
// マーケット購入の場合はproductIdを、仮想通貨建ての場合はpriceを持つ
type packDef struct {
	ItemID         string           `json:"itemId"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ProductID      string           `json:"productId,omitempty"`
	Price          map[string]int64 `json:"price,omitempty"`
	CurrencyItemID string           `json:"currencyItemId"`
	CurrencyAmount int64            `json:"currencyAmount"`
}

// goodDef カタログJSONのグッズ定義
type goodDef struct {
	ItemID      string           `json:"itemId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ProductID   string           `json:"productId,omitempty"`
	Price       map[string]int64 `json:"price,omitempty"`
}

// catalogFile カタログJSONのルート構造
type catalogFile struct {
	Currencies []currencyDef `json:"currencies"`
	Packs      []packDef     `json:"currencyPacks"`
	Goods      []goodDef     `json:"goods"`
}

// Load カタログJSONファイルを読み込み、Catalogを構築する
func Load(path string) (*item.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse カタログJSONをパースし、Catalogを構築する
func Parse(data []byte) (*item.Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	currencies := make([]*item.VirtualCurrency, 0, len(file.Currencies))
	for _, def := range file.Currencies {
		currency, err := item.NewVirtualCurrency(def.ItemID, def.Name, def.Description)
		if err != nil {
			return nil, fmt.Errorf("invalid currency %q: %w", def.ItemID, err)
		}
		currencies = append(currencies, currency)
	}

	packs := make([]*item.VirtualCurrencyPack, 0, len(file.Packs))
	for _, def := range file.Packs {
		purchaseType, err := parsePurchaseType(def.ProductID, def.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid currency pack %q: %w", def.ItemID, err)
		}
		pack, err := item.NewVirtualCurrencyPack(
			def.ItemID, def.Name, def.Description,
			purchaseType, def.CurrencyItemID, def.CurrencyAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("invalid currency pack %q: %w", def.ItemID, err)
		}
		packs = append(packs, pack)
	}

	goods := make([]*item.VirtualGood, 0, len(file.Goods))
	for _, def := range file.Goods {
		purchaseType, err := parsePurchaseType(def.ProductID, def.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid good %q: %w", def.ItemID, err)
		}
		good, err := item.NewVirtualGood(def.ItemID, def.Name, def.Description, purchaseType)
		if err != nil {
			return nil, fmt.Errorf("invalid good %q: %w", def.ItemID, err)
		}
		goods = append(goods, good)
	}

	catalog, err := item.NewCatalog(currencies, packs, goods)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	return catalog, nil
}

// parsePurchaseType productIdとpriceのどちらか一方から購入方法を決定する
func parsePurchaseType(productID string, price map[string]int64) (item.PurchaseType, error) {
	if productID != "" && price != nil {
		return item.PurchaseType{}, fmt.Errorf("productId and price are mutually exclusive")
	}
	if productID != "" {
		return item.NewMarketPurchase(productID)
	}
	return item.NewVirtualPurchase(price)
}
