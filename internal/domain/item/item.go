package item

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidItemID アイテムIDが無効
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrEmptyName 名前が空
	ErrEmptyName = errors.New("item name is empty")
)

var itemIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// VirtualItem 仮想アイテムの基底エンティティ
// カタログ構築時に一度だけ生成され、以降は不変
type VirtualItem struct {
	itemID      string
	name        string
	description string
}

// NewVirtualItem 新しいVirtualItemを作成
func NewVirtualItem(itemID, name, description string) (VirtualItem, error) {
	if !itemIDRegex.MatchString(itemID) {
		return VirtualItem{}, ErrInvalidItemID
	}
	if name == "" {
		return VirtualItem{}, ErrEmptyName
	}
	return VirtualItem{
		itemID:      itemID,
		name:        name,
		description: description,
	}, nil
}

// ItemID アイテムIDを返す
func (i VirtualItem) ItemID() string {
	return i.itemID
}

// Name 名前を返す
func (i VirtualItem) Name() string {
	return i.name
}

// Description 説明を返す
func (i VirtualItem) Description() string {
	return i.description
}

// MustNewVirtualItem テスト用ヘルパー: NewVirtualItemを呼び出し、エラーが発生した場合はpanicする
func MustNewVirtualItem(itemID, name, description string) VirtualItem {
	i, err := NewVirtualItem(itemID, name, description)
	if err != nil {
		panic(err)
	}
	return i
}
