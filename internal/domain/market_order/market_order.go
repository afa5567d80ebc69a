package market_order

import (
	"time"
)

// MarketOrder プラットフォーム課金の注文エンティティ
// 課金リクエストの発行から課金コールバックの受領までのライフサイクルを持つ
type MarketOrder struct {
	orderID    string
	userID     string
	itemID     string // 購入対象の通貨パックのアイテムID
	productID  string // プラットフォーム課金側の商品ID
	status     OrderStatus
	receipt    map[string]interface{} // 課金コールバックが持つレシート情報
	createdAt  time.Time
	updatedAt  time.Time
}

// NewMarketOrder 新しいMarketOrderエンティティを作成（pendingで開始）
func NewMarketOrder(orderID, userID, itemID, productID string) (*MarketOrder, error) {
	if orderID == "" || userID == "" || itemID == "" || productID == "" {
		return nil, ErrInvalidOrder
	}
	now := time.Now()
	return &MarketOrder{
		orderID:   orderID,
		userID:    userID,
		itemID:    itemID,
		productID: productID,
		status:    OrderStatusPending,
		receipt:   make(map[string]interface{}),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewMarketOrderWithStatus 永続化層からの復元用にMarketOrderエンティティを作成
func NewMarketOrderWithStatus(orderID, userID, itemID, productID string, status OrderStatus, receipt map[string]interface{}) (*MarketOrder, error) {
	o, err := NewMarketOrder(orderID, userID, itemID, productID)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidOrder
	}
	o.status = status
	if receipt != nil {
		o.receipt = receipt
	}
	return o, nil
}

// OrderID 注文IDを返す
func (o *MarketOrder) OrderID() string {
	return o.orderID
}

// UserID ユーザーIDを返す
func (o *MarketOrder) UserID() string {
	return o.userID
}

// ItemID 購入対象のアイテムIDを返す
func (o *MarketOrder) ItemID() string {
	return o.itemID
}

// ProductID マーケット商品IDを返す
func (o *MarketOrder) ProductID() string {
	return o.productID
}

// Status ステータスを返す
func (o *MarketOrder) Status() OrderStatus {
	return o.status
}

// Receipt レシート情報を返す
func (o *MarketOrder) Receipt() map[string]interface{} {
	return o.receipt
}

// CreatedAt 作成日時を返す
func (o *MarketOrder) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt 更新日時を返す
func (o *MarketOrder) UpdatedAt() time.Time {
	return o.updatedAt
}

// IsPending 処理中かどうかを返す
func (o *MarketOrder) IsPending() bool {
	return o.status == OrderStatusPending
}

// IsCompleted 完了済みかどうかを返す
func (o *MarketOrder) IsCompleted() bool {
	return o.status == OrderStatusCompleted
}

// Complete 注文を完了させる
// 冪等性保証のため、pending以外からの遷移はエラー
func (o *MarketOrder) Complete(receipt map[string]interface{}) error {
	if o.status != OrderStatusPending {
		return ErrOrderAlreadyProcessed
	}
	o.status = OrderStatusCompleted
	if receipt != nil {
		o.receipt = receipt
	}
	o.updatedAt = time.Now()
	return nil
}

// Cancel 注文をキャンセルする
func (o *MarketOrder) Cancel() error {
	if o.status != OrderStatusPending {
		return ErrOrderAlreadyProcessed
	}
	o.status = OrderStatusCanceled
	o.updatedAt = time.Now()
	return nil
}

// Refund 完了済みの注文を返金済みにする
func (o *MarketOrder) Refund() error {
	if o.status != OrderStatusCompleted {
		return ErrOrderNotRefundable
	}
	o.status = OrderStatusRefunded
	o.updatedAt = time.Now()
	return nil
}

// MustNewMarketOrder テスト用ヘルパー
func MustNewMarketOrder(orderID, userID, itemID, productID string) *MarketOrder {
	o, err := NewMarketOrder(orderID, userID, itemID, productID)
	if err != nil {
		panic(err)
	}
	return o
}
