package balance

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidItemID アイテムIDが無効
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
)

const (
	// MaxAmount 最大金額 (10兆)
	MaxAmount = 10_000_000_000_000
)

var (
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
	itemIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
)

// Balance アイテム残高エンティティ
// ユーザーIDとアイテムIDの組に対する可変カウンター。初回アクセス時に作成される
type Balance struct {
	userID  string
	itemID  string
	amount  int64 // 整数値（小数点なし）、マイナス値は許可しない
	version int   // 楽観的ロック用
}

// NewBalance 新しいBalanceエンティティを作成
func NewBalance(userID, itemID string, amount int64, version int) (*Balance, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !itemIDRegex.MatchString(itemID) {
		return nil, ErrInvalidItemID
	}
	if amount < 0 || amount > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	return &Balance{
		userID:  userID,
		itemID:  itemID,
		amount:  amount,
		version: version,
	}, nil
}

// UserID ユーザーIDを返す
func (b *Balance) UserID() string {
	return b.userID
}

// ItemID アイテムIDを返す
func (b *Balance) ItemID() string {
	return b.itemID
}

// Amount 残高を返す
func (b *Balance) Amount() int64 {
	return b.amount
}

// Version バージョンを返す（楽観的ロック用）
func (b *Balance) Version() int {
	return b.version
}

// Grant 残高を加算する
func (b *Balance) Grant(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	// オーバーフローチェック
	if b.amount > MaxAmount-amount {
		return ErrBalanceOutOfRange
	}
	b.amount += amount
	b.version++
	return nil
}

// Consume 残高を減算する
func (b *Balance) Consume(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	if b.amount < amount {
		return &InsufficientFundsError{CurrencyItemID: b.itemID}
	}
	b.amount -= amount
	b.version++
	return nil
}

// Reset 残高を指定値に設定する
func (b *Balance) Reset(amount int64) error {
	if amount < 0 || amount > MaxAmount {
		return ErrBalanceOutOfRange
	}
	b.amount = amount
	b.version++
	return nil
}

// MustNewBalance テスト用ヘルパー: NewBalanceを呼び出し、エラーが発生した場合はpanicする
func MustNewBalance(userID, itemID string, amount int64, version int) *Balance {
	b, err := NewBalance(userID, itemID, amount, version)
	if err != nil {
		panic(err)
	}
	return b
}
