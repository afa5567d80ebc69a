package item

import "errors"

var (
	// ErrItemNotFound アイテムが見つからないエラー
	ErrItemNotFound = errors.New("virtual item not found")
	// ErrDuplicateItemID アイテムIDが重複しているエラー
	ErrDuplicateItemID = errors.New("duplicate item id")
	// ErrUnknownCurrency 参照先の通貨が存在しないエラー
	ErrUnknownCurrency = errors.New("unknown currency item id")
	// ErrNotPurchasable 購入できないアイテムエラー
	ErrNotPurchasable = errors.New("item is not purchasable")
	// ErrProductNotFound マーケット商品IDに対応するアイテムが見つからないエラー
	ErrProductNotFound = errors.New("market product not found")
)
