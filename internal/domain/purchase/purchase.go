package purchase

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrInvalidPurchaseID 購入IDが無効
	ErrInvalidPurchaseID = errors.New("invalid purchase id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidItemID アイテムIDが無効
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrInvalidQuantity 数量が無効
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidPurchase 無効な購入レコード
	ErrInvalidPurchase = errors.New("invalid purchase")
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// Purchase 購入・付与・消費の台帳レコードエンティティ
type Purchase struct {
	purchaseID    string
	userID        string
	itemID        string
	kind          PurchaseKind
	quantity      int64            // 付与・消費したアイテム数量
	debits        map[string]int64 // 通貨アイテムID毎の消費量（仮想通貨建て購入のみ）
	balanceBefore int64            // 対象アイテムの処理前残高
	balanceAfter  int64            // 対象アイテムの処理後残高
	status        PurchaseStatus
	marketOrderID *string // マーケット注文ID（マーケット購入のみ）
	metadata      map[string]interface{}
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPurchase 新しいPurchaseエンティティを作成
func NewPurchase(
	purchaseID string,
	userID string,
	itemID string,
	kind PurchaseKind,
	quantity int64,
	debits map[string]int64,
	balanceBefore int64,
	balanceAfter int64,
	status PurchaseStatus,
	metadata map[string]interface{},
) (*Purchase, error) {
	if !idRegex.MatchString(purchaseID) {
		return nil, ErrInvalidPurchaseID
	}
	if !idRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !idRegex.MatchString(itemID) {
		return nil, ErrInvalidItemID
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !kind.Valid() {
		return nil, ErrInvalidPurchase
	}
	if !status.Valid() {
		return nil, ErrInvalidPurchase
	}

	now := time.Now()
	return &Purchase{
		purchaseID:    purchaseID,
		userID:        userID,
		itemID:        itemID,
		kind:          kind,
		quantity:      quantity,
		debits:        debits,
		balanceBefore: balanceBefore,
		balanceAfter:  balanceAfter,
		status:        status,
		metadata:      metadata,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// PurchaseID 購入IDを返す
func (p *Purchase) PurchaseID() string {
	return p.purchaseID
}

// UserID ユーザーIDを返す
func (p *Purchase) UserID() string {
	return p.userID
}

// ItemID アイテムIDを返す
func (p *Purchase) ItemID() string {
	return p.itemID
}

// Kind 購入種別を返す
func (p *Purchase) Kind() PurchaseKind {
	return p.kind
}

// Quantity 数量を返す
func (p *Purchase) Quantity() int64 {
	return p.quantity
}

// Debits 通貨アイテムID毎の消費量を返す
func (p *Purchase) Debits() map[string]int64 {
	return p.debits
}

// BalanceBefore 処理前の残高を返す
func (p *Purchase) BalanceBefore() int64 {
	return p.balanceBefore
}

// BalanceAfter 処理後の残高を返す
func (p *Purchase) BalanceAfter() int64 {
	return p.balanceAfter
}

// Status ステータスを返す
func (p *Purchase) Status() PurchaseStatus {
	return p.status
}

// MarketOrderID マーケット注文IDを返す
func (p *Purchase) MarketOrderID() *string {
	return p.marketOrderID
}

// Metadata メタデータを返す
func (p *Purchase) Metadata() map[string]interface{} {
	return p.metadata
}

// CreatedAt 作成日時を返す
func (p *Purchase) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt 更新日時を返す
func (p *Purchase) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetMarketOrderID マーケット注文IDを設定
func (p *Purchase) SetMarketOrderID(orderID string) {
	p.marketOrderID = &orderID
	p.updatedAt = time.Now()
}

// UpdateStatus ステータスを更新
func (p *Purchase) UpdateStatus(status PurchaseStatus) error {
	if !status.Valid() {
		return ErrInvalidPurchase
	}
	p.status = status
	p.updatedAt = time.Now()
	return nil
}

// MustNewPurchase テスト用ヘルパー: NewPurchaseを呼び出し、エラーが発生した場合はpanicする
func MustNewPurchase(
	purchaseID string,
	userID string,
	itemID string,
	kind PurchaseKind,
	quantity int64,
	debits map[string]int64,
	balanceBefore int64,
	balanceAfter int64,
	status PurchaseStatus,
	metadata map[string]interface{},
) *Purchase {
	p, err := NewPurchase(purchaseID, userID, itemID, kind, quantity, debits, balanceBefore, balanceAfter, status, metadata)
	if err != nil {
		panic(err)
	}
	return p
}
