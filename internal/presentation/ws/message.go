package ws

import "encoding/json"

// ストアWebViewとの間で交換するメッセージ種別
const (
	// WebView -> サーバー
	MessageTypeUIReady         = "uiReady"
	MessageTypeBuyVirtualGood  = "buyVirtualGood"
	MessageTypeBuyCurrencyPack = "buyCurrencyPack"
	MessageTypeLeaveStore      = "leaveStore"

	// サーバー -> WebView
	MessageTypeInitialize             = "initialize"
	MessageTypeCurrencyBalanceChanged = "currencyBalanceChanged"
	MessageTypeGoodsUpdated           = "goodsUpdated"
	MessageTypeInsufficientFunds      = "insufficientFunds"
	MessageTypeMarketPurchaseStarted  = "marketPurchaseStarted"
	MessageTypeUnexpectedError        = "unexpectedError"
)

// Message WebViewブリッジのメッセージエンベロープ
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// BuyPayload 購入要求のペイロード
type BuyPayload struct {
	ItemID string `json:"itemId"`
}

// InsufficientFundsPayload 残高不足通知のペイロード
type InsufficientFundsPayload struct {
	CurrencyItemID string `json:"currencyId"`
}

// MarketPurchaseStartedPayload 課金フロー開始通知のペイロード
type MarketPurchaseStartedPayload struct {
	OrderID   string `json:"orderId"`
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
}

// newMessage 送信用メッセージを組み立てる
func newMessage(msgType string, data interface{}) (*Message, error) {
	msg := &Message{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return msg, nil
}
