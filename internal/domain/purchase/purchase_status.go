package purchase

import (
	"fmt"
)

// PurchaseStatus 台帳レコードのステータスを表す値オブジェクト
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed" // 完了
	PurchaseStatusFailed    PurchaseStatus = "failed"    // 失敗
)

// NewPurchaseStatus 新しいPurchaseStatusを作成
func NewPurchaseStatus(s string) (PurchaseStatus, error) {
	switch s {
	case "completed", "failed":
		return PurchaseStatus(s), nil
	default:
		return "", fmt.Errorf("invalid purchase status: %s", s)
	}
}

// String 文字列表現を返す
func (ps PurchaseStatus) String() string {
	return string(ps)
}

// Valid 有効なステータスかどうかを返す
func (ps PurchaseStatus) Valid() bool {
	return ps == PurchaseStatusCompleted || ps == PurchaseStatusFailed
}
