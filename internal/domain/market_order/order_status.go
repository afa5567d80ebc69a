package market_order

import (
	"fmt"
)

// OrderStatus マーケット注文のステータス
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // 課金結果待ち
	OrderStatusCompleted OrderStatus = "completed" // 完了（アイテム付与済み）
	OrderStatusCanceled  OrderStatus = "canceled"  // キャンセル
	OrderStatusRefunded  OrderStatus = "refunded"  // 返金済み
)

// NewOrderStatus 新しいOrderStatusを作成
func NewOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "pending", "completed", "canceled", "refunded":
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("invalid order status: %s", s)
	}
}

// String 文字列表現を返す
func (os OrderStatus) String() string {
	return string(os)
}

// Valid 有効なステータスかどうかを返す
func (os OrderStatus) Valid() bool {
	switch os {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}
