package handler

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	historyapp "storefront-server/internal/application/history"
	marketapp "storefront-server/internal/application/market"
	storeapp "storefront-server/internal/application/store"
	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/item"
	"storefront-server/internal/domain/market_order"
	"storefront-server/internal/domain/purchase"
	"storefront-server/internal/domain/service"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
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

// MockPurchaseRepository モック購入台帳リポジトリ
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Save(ctx context.Context, p *purchase.Purchase) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPurchaseRepository) FindByPurchaseID(ctx context.Context, purchaseID string) (*purchase.Purchase, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*purchase.Purchase, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*purchase.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) FindByUserIDAndKind(ctx context.Context, userID string, kind purchase.PurchaseKind, limit, offset int) ([]*purchase.Purchase, error) {
	args := m.Called(ctx, userID, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*purchase.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) FindByMarketOrderID(ctx context.Context, orderID string) (*purchase.Purchase, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.Purchase), args.Error(1)
}

// MockMarketOrderRepository モック注文リポジトリ
type MockMarketOrderRepository struct {
	mock.Mock
}

func (m *MockMarketOrderRepository) Create(ctx context.Context, order *market_order.MarketOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockMarketOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*market_order.MarketOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*market_order.MarketOrder), args.Error(1)
}

func (m *MockMarketOrderRepository) Save(ctx context.Context, order *market_order.MarketOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	args := m.Called(ctx, fn)
	if fn != nil {
		return fn(nil)
	}
	return args.Error(0)
}

// testMocks ハンドラーテストで使うモック一式
type testMocks struct {
	balanceRepo  *MockBalanceRepository
	purchaseRepo *MockPurchaseRepository
	orderRepo    *MockMarketOrderRepository
	txManager    *MockTransactionManager
}

func buildTestCatalog(t *testing.T) *item.Catalog {
	t.Helper()

	catalog, err := item.NewCatalog(
		[]*item.VirtualCurrency{
			item.MustNewVirtualCurrency("currency_coin", "コイン", "基本通貨"),
		},
		[]*item.VirtualCurrencyPack{
			item.MustNewVirtualCurrencyPack(
				"coinpack_100", "コイン100枚", "",
				item.MustNewMarketPurchase("com.example.coinpack100"),
				"currency_coin", 100,
			),
		},
		[]*item.VirtualGood{
			item.MustNewVirtualGood(
				"good_sword", "つるぎ", "",
				item.MustNewVirtualPurchase(map[string]int64{"currency_coin": 50}),
			),
		},
	)
	require.NoError(t, err)
	return catalog
}

func newTestServices(t *testing.T) (*storeapp.StoreApplicationService, *marketapp.MarketApplicationService, *historyapp.HistoryApplicationService, *testMocks) {
	t.Helper()

	mocks := &testMocks{
		balanceRepo:  new(MockBalanceRepository),
		purchaseRepo: new(MockPurchaseRepository),
		orderRepo:    new(MockMarketOrderRepository),
		txManager:    new(MockTransactionManager),
	}

	catalog := buildTestCatalog(t)
	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	storeService := storeapp.NewStoreApplicationService(
		catalog, mocks.balanceRepo, mocks.purchaseRepo, mocks.txManager,
		service.NewPricingService(mocks.balanceRepo), logger, metrics,
	)
	marketService := marketapp.NewMarketApplicationService(
		catalog, mocks.balanceRepo, mocks.purchaseRepo, mocks.orderRepo, mocks.txManager, logger, metrics,
	)
	historyService := historyapp.NewHistoryApplicationService(
		mocks.purchaseRepo, logger, metrics,
	)

	return storeService, marketService, historyService, mocks
}
