package balance

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance 残高不足エラー
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrBalanceNotFound 残高が見つからないエラー
	ErrBalanceNotFound = errors.New("balance not found")
	// ErrVersionMismatch 楽観的ロックの競合エラー
	ErrVersionMismatch = errors.New("optimistic lock failed: version mismatch")
)

// InsufficientFundsError 残高不足エラー（不足している通貨アイテムIDを保持）
// UIへは不足した通貨のIDごと通知する必要があるため、sentinelではなく型付きエラーにしている
type InsufficientFundsError struct {
	CurrencyItemID string
}

// Error エラーメッセージを返す
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance of %s", e.CurrencyItemID)
}

// Unwrap errors.Is(err, ErrInsufficientBalance) を成立させる
func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientBalance
}
