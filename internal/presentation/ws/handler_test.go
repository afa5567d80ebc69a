package ws

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

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

// testBridge テスト用のブリッジ一式
type testBridge struct {
	server      *httptest.Server
	conn        *websocket.Conn
	balanceRepo *MockBalanceRepository
}

func newTestBridge(t *testing.T, setupMocks func(*MockBalanceRepository, *MockPurchaseRepository, *MockMarketOrderRepository, *MockTransactionManager)) *testBridge {
	t.Helper()

	balanceRepo := new(MockBalanceRepository)
	purchaseRepo := new(MockPurchaseRepository)
	orderRepo := new(MockMarketOrderRepository)
	txManager := new(MockTransactionManager)

	if setupMocks != nil {
		setupMocks(balanceRepo, purchaseRepo, orderRepo, txManager)
	}

	catalog := buildTestCatalog(t)
	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	storeService := storeapp.NewStoreApplicationService(
		catalog, balanceRepo, purchaseRepo, txManager,
		service.NewPricingService(balanceRepo), logger, metrics,
	)
	marketService := marketapp.NewMarketApplicationService(
		catalog, balanceRepo, purchaseRepo, orderRepo, txManager, logger, metrics,
	)

	h := NewHandler(catalog, storeService, marketService, logger, metrics)

	e := echo.New()
	e.GET("/ws/store", h.Serve, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", "user123")
			return next(c)
		}
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/store"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return &testBridge{
		server:      server,
		conn:        conn,
		balanceRepo: balanceRepo,
	}
}

// sendMessage ブリッジへメッセージを送信する
func (b *testBridge) sendMessage(t *testing.T, msgType string, data interface{}) {
	t.Helper()

	msg := map[string]interface{}{"type": msgType}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(t, b.conn.WriteJSON(msg))
}

// readMessage ブリッジからのメッセージを受信する
func (b *testBridge) readMessage(t *testing.T) *Message {
	t.Helper()

	b.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	require.NoError(t, b.conn.ReadJSON(&msg))
	return &msg
}

func TestHandler_UIReady(t *testing.T) {
	bridge := newTestBridge(t, func(mbr *MockBalanceRepository, mpr *MockPurchaseRepository, mor *MockMarketOrderRepository, mtm *MockTransactionManager) {
		balances := []*balance.Balance{
			balance.MustNewBalance("user123", "currency_coin", 100, 1),
			balance.MustNewBalance("user123", "good_sword", 1, 1),
		}
		mbr.On("FindByUserID", mock.Anything, "user123").Return(balances, nil)
	})

	bridge.sendMessage(t, MessageTypeUIReady, nil)

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeInitialize, msg.Type)

	var payload storeapp.StorefrontResponse
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, int64(100), payload.CurrencyBalances["currency_coin"])
	require.Len(t, payload.CurrencyPacks, 1)
	assert.Equal(t, "com.example.coinpack100", payload.CurrencyPacks[0].ProductID)
	require.Len(t, payload.Goods, 1)
	assert.Equal(t, "good_sword", payload.Goods[0].ItemID)
	assert.Equal(t, int64(1), payload.GoodsBalances["good_sword"].Balance)
}

func TestHandler_BuyVirtualGood(t *testing.T) {
	bridge := newTestBridge(t, func(mbr *MockBalanceRepository, mpr *MockPurchaseRepository, mor *MockMarketOrderRepository, mtm *MockTransactionManager) {
		coinBalance := balance.MustNewBalance("user123", "currency_coin", 100, 1)
		mbr.On("FindByUserIDAndItemID", mock.Anything, "user123", "currency_coin").Return(coinBalance, nil)
		mbr.On("FindByUserIDAndItemID", mock.Anything, "user123", "good_sword").Return(nil, balance.ErrBalanceNotFound)
		mbr.On("Create", mock.Anything, mock.Anything).Return(nil)
		mbr.On("Save", mock.Anything, mock.Anything).Return(nil)
		mpr.On("Save", mock.Anything, mock.Anything).Return(nil)
		mtm.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)

		// 購入後の残高通知用
		balances := []*balance.Balance{
			balance.MustNewBalance("user123", "currency_coin", 50, 2),
			balance.MustNewBalance("user123", "good_sword", 1, 1),
		}
		mbr.On("FindByUserID", mock.Anything, "user123").Return(balances, nil)
	})

	bridge.sendMessage(t, MessageTypeBuyVirtualGood, BuyPayload{ItemID: "good_sword"})

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeCurrencyBalanceChanged, msg.Type)

	var currencies map[string]int64
	require.NoError(t, json.Unmarshal(msg.Data, &currencies))
	assert.Equal(t, int64(50), currencies["currency_coin"])

	msg = bridge.readMessage(t)
	assert.Equal(t, MessageTypeGoodsUpdated, msg.Type)

	var goods map[string]storeapp.GoodBalance
	require.NoError(t, json.Unmarshal(msg.Data, &goods))
	assert.Equal(t, int64(1), goods["good_sword"].Balance)
	assert.Equal(t, map[string]int64{"currency_coin": 50}, goods["good_sword"].Price)
}

func TestHandler_BuyVirtualGood_InsufficientFunds(t *testing.T) {
	bridge := newTestBridge(t, func(mbr *MockBalanceRepository, mpr *MockPurchaseRepository, mor *MockMarketOrderRepository, mtm *MockTransactionManager) {
		coinBalance := balance.MustNewBalance("user123", "currency_coin", 10, 1)
		mbr.On("FindByUserIDAndItemID", mock.Anything, "user123", "currency_coin").Return(coinBalance, nil)
	})

	bridge.sendMessage(t, MessageTypeBuyVirtualGood, BuyPayload{ItemID: "good_sword"})

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeInsufficientFunds, msg.Type)

	var payload InsufficientFundsPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "currency_coin", payload.CurrencyItemID)
}

func TestHandler_BuyVirtualGood_UnknownItem(t *testing.T) {
	bridge := newTestBridge(t, nil)

	bridge.sendMessage(t, MessageTypeBuyVirtualGood, BuyPayload{ItemID: "good_unknown"})

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeUnexpectedError, msg.Type)
}

func TestHandler_BuyCurrencyPack_Market(t *testing.T) {
	bridge := newTestBridge(t, func(mbr *MockBalanceRepository, mpr *MockPurchaseRepository, mor *MockMarketOrderRepository, mtm *MockTransactionManager) {
		mor.On("Create", mock.Anything, mock.Anything).Return(nil)
	})

	bridge.sendMessage(t, MessageTypeBuyCurrencyPack, BuyPayload{ItemID: "coinpack_100"})

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeMarketPurchaseStarted, msg.Type)

	var payload MarketPurchaseStartedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.NotEmpty(t, payload.OrderID)
	assert.Equal(t, "coinpack_100", payload.ItemID)
	assert.Equal(t, "com.example.coinpack100", payload.ProductID)
}

func TestHandler_UnknownMessageType(t *testing.T) {
	bridge := newTestBridge(t, nil)

	bridge.sendMessage(t, "somethingElse", nil)

	msg := bridge.readMessage(t)
	assert.Equal(t, MessageTypeUnexpectedError, msg.Type)
}
