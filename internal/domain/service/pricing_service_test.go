package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-server/internal/domain/balance"
)

// MockBalanceRepository モック残高リポジトリ
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) FindByUserIDAndItemID(ctx context.Context, userID, itemID string) (*balance.Balance, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) FindByUserID(ctx context.Context, userID string) ([]*balance.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Save(ctx context.Context, b *balance.Balance) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func TestPricingService_FindDeficientCurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 全通貨の残高が足りている", func(t *testing.T) {
		repo := new(MockBalanceRepository)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
			Return(balance.MustNewBalance("user123", "currency_coin", 100, 1), nil)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_gem").
			Return(balance.MustNewBalance("user123", "currency_gem", 10, 1), nil)

		svc := NewPricingService(repo)
		deficient, err := svc.FindDeficientCurrency(ctx, "user123", map[string]int64{
			"currency_coin": 50,
			"currency_gem":  5,
		})

		require.NoError(t, err)
		assert.Empty(t, deficient)
	})

	t.Run("正常系: 不足している通貨IDを返す", func(t *testing.T) {
		repo := new(MockBalanceRepository)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
			Return(balance.MustNewBalance("user123", "currency_coin", 100, 1), nil)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_gem").
			Return(balance.MustNewBalance("user123", "currency_gem", 1, 1), nil)

		svc := NewPricingService(repo)
		deficient, err := svc.FindDeficientCurrency(ctx, "user123", map[string]int64{
			"currency_coin": 50,
			"currency_gem":  5,
		})

		require.NoError(t, err)
		assert.Equal(t, "currency_gem", deficient)
	})

	t.Run("正常系: 残高未作成は残高0として扱う", func(t *testing.T) {
		repo := new(MockBalanceRepository)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
			Return(nil, balance.ErrBalanceNotFound)

		svc := NewPricingService(repo)
		deficient, err := svc.FindDeficientCurrency(ctx, "user123", map[string]int64{
			"currency_coin": 1,
		})

		require.NoError(t, err)
		assert.Equal(t, "currency_coin", deficient)
	})

	t.Run("正常系: 複数不足時はアイテムID順で最初の通貨を返す", func(t *testing.T) {
		repo := new(MockBalanceRepository)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
			Return(nil, balance.ErrBalanceNotFound)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_gem").
			Return(nil, balance.ErrBalanceNotFound).Maybe()

		svc := NewPricingService(repo)
		deficient, err := svc.FindDeficientCurrency(ctx, "user123", map[string]int64{
			"currency_gem":  5,
			"currency_coin": 50,
		})

		require.NoError(t, err)
		assert.Equal(t, "currency_coin", deficient)
	})

	t.Run("異常系: リポジトリエラー", func(t *testing.T) {
		repo := new(MockBalanceRepository)
		repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
			Return(nil, assert.AnError)

		svc := NewPricingService(repo)
		_, err := svc.FindDeficientCurrency(ctx, "user123", map[string]int64{
			"currency_coin": 1,
		})

		assert.Error(t, err)
	})
}

func TestPricingService_HasSufficientFunds(t *testing.T) {
	ctx := context.Background()

	repo := new(MockBalanceRepository)
	repo.On("FindByUserIDAndItemID", ctx, "user123", "currency_coin").
		Return(balance.MustNewBalance("user123", "currency_coin", 100, 1), nil)

	svc := NewPricingService(repo)

	ok, err := svc.HasSufficientFunds(ctx, "user123", map[string]int64{"currency_coin": 100})
	require.NoError(t, err)
	assert.True(t, ok)
}
