package market_order

import "errors"

var (
	// ErrOrderNotFound 注文が見つからないエラー
	ErrOrderNotFound = errors.New("market order not found")
	// ErrOrderAlreadyProcessed 既に処理済みエラー
	ErrOrderAlreadyProcessed = errors.New("market order already processed")
	// ErrOrderNotRefundable 返金できない注文エラー
	ErrOrderNotRefundable = errors.New("market order not refundable")
	// ErrInvalidOrder 無効な注文エラー
	ErrInvalidOrder = errors.New("invalid market order")
)
