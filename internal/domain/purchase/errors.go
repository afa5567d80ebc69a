package purchase

import "errors"

var (
	// ErrPurchaseNotFound 購入レコードが見つからないエラー
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrDuplicatePurchase 重複した購入レコードエラー
	ErrDuplicatePurchase = errors.New("duplicate purchase")
	// ErrInvalidPurchaseKind 未知の台帳種別エラー
	ErrInvalidPurchaseKind = errors.New("invalid purchase kind")
)
