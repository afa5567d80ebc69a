package purchase

import (
	"fmt"
)

// PurchaseKind 台帳レコードの種別を表す値オブジェクト
type PurchaseKind string

const (
	PurchaseKindMarket  PurchaseKind = "market"  // プラットフォーム課金での購入
	PurchaseKindVirtual PurchaseKind = "virtual" // 仮想通貨建てでの購入
	PurchaseKindGrant   PurchaseKind = "grant"   // 付与
	PurchaseKindTake    PurchaseKind = "take"    // 取り上げ
)

// NewPurchaseKind 新しいPurchaseKindを作成
func NewPurchaseKind(s string) (PurchaseKind, error) {
	switch s {
	case "market", "virtual", "grant", "take":
		return PurchaseKind(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPurchaseKind, s)
	}
}

// String 文字列表現を返す
func (pk PurchaseKind) String() string {
	return string(pk)
}

// Valid 有効な種別かどうかを返す
func (pk PurchaseKind) Valid() bool {
	switch pk {
	case PurchaseKindMarket, PurchaseKindVirtual, PurchaseKindGrant, PurchaseKindTake:
		return true
	default:
		return false
	}
}
