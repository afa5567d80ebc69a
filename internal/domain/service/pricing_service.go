package service

import (
	"context"
	"sort"

	"storefront-server/internal/domain/balance"
)

// PricingService 価格と残高の照合を行うドメインサービス
type PricingService struct {
	balanceRepo balance.BalanceRepository
}

// NewPricingService 新しいPricingServiceを作成
func NewPricingService(balanceRepo balance.BalanceRepository) *PricingService {
	return &PricingService{
		balanceRepo: balanceRepo,
	}
}

// FindDeficientCurrency 価格に対して残高が不足している通貨アイテムIDを返す
// 全通貨の残高が足りている場合は空文字を返す。判定はアイテムID順で行う
func (s *PricingService) FindDeficientCurrency(ctx context.Context, userID string, price map[string]int64) (string, error) {
	currencyItemIDs := make([]string, 0, len(price))
	for currencyItemID := range price {
		currencyItemIDs = append(currencyItemIDs, currencyItemID)
	}
	sort.Strings(currencyItemIDs)

	for _, currencyItemID := range currencyItemIDs {
		required := price[currencyItemID]

		b, err := s.balanceRepo.FindByUserIDAndItemID(ctx, userID, currencyItemID)
		if err != nil && err != balance.ErrBalanceNotFound {
			return "", err
		}

		// 残高未作成は残高0として扱う
		var current int64
		if b != nil {
			current = b.Amount()
		}

		if current < required {
			return currencyItemID, nil
		}
	}

	return "", nil
}

// HasSufficientFunds 価格に対して全通貨の残高が足りているかを返す
func (s *PricingService) HasSufficientFunds(ctx context.Context, userID string, price map[string]int64) (bool, error) {
	deficient, err := s.FindDeficientCurrency(ctx, userID, price)
	if err != nil {
		return false, err
	}
	return deficient == "", nil
}
