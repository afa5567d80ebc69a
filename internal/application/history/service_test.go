package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"storefront-server/internal/domain/purchase"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

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

func TestHistoryApplicationService_GetPurchaseHistory(t *testing.T) {
	tests := []struct {
		name       string
		req        *GetPurchaseHistoryRequest
		setupMocks func(*MockPurchaseRepository)
		wantError  bool
		checkFunc  func(*testing.T, *GetPurchaseHistoryResponse, error)
	}{
		{
			name: "正常系: 履歴を取得",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  10,
				Offset: 0,
			},
			setupMocks: func(mpr *MockPurchaseRepository) {
				purchases := []*purchase.Purchase{
					purchase.MustNewPurchase(
						"pur_1",
						"user123",
						"good_sword",
						purchase.PurchaseKindVirtual,
						1,
						map[string]int64{"currency_coin": 50},
						0,
						1,
						purchase.PurchaseStatusCompleted,
						nil,
					),
					purchase.MustNewPurchase(
						"pur_2",
						"user123",
						"currency_coin",
						purchase.PurchaseKindGrant,
						100,
						nil,
						0,
						100,
						purchase.PurchaseStatusCompleted,
						nil,
					),
				}
				mpr.On("FindByUserID", mock.Anything, "user123", 10, 0).Return(purchases, nil)
			},
			wantError: false,
			checkFunc: func(t *testing.T, resp *GetPurchaseHistoryResponse, err error) {
				require.NoError(t, err)
				assert.Len(t, resp.Purchases, 2)
				assert.Equal(t, 2, resp.Total)
				assert.Equal(t, 10, resp.Limit)
				assert.Equal(t, 0, resp.Offset)
			},
		},
		{
			name: "正常系: 種別でフィルタリング",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  10,
				Offset: 0,
				Kind:   "virtual",
			},
			setupMocks: func(mpr *MockPurchaseRepository) {
				purchases := []*purchase.Purchase{
					purchase.MustNewPurchase(
						"pur_1",
						"user123",
						"good_sword",
						purchase.PurchaseKindVirtual,
						1,
						map[string]int64{"currency_coin": 50},
						0,
						1,
						purchase.PurchaseStatusCompleted,
						nil,
					),
				}
				// 種別フィルタはSQL側で行われ、ページ数は保たれる
				mpr.On("FindByUserIDAndKind", mock.Anything, "user123", purchase.PurchaseKindVirtual, 10, 0).
					Return(purchases, nil)
			},
			wantError: false,
			checkFunc: func(t *testing.T, resp *GetPurchaseHistoryResponse, err error) {
				require.NoError(t, err)
				assert.Len(t, resp.Purchases, 1)
				assert.Equal(t, purchase.PurchaseKindVirtual, resp.Purchases[0].Kind())
			},
		},
		{
			name: "異常系: 未知の種別フィルタ",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  10,
				Offset: 0,
				Kind:   "refund",
			},
			setupMocks: func(mpr *MockPurchaseRepository) {},
			wantError:  true,
			checkFunc: func(t *testing.T, resp *GetPurchaseHistoryResponse, err error) {
				assert.ErrorIs(t, err, purchase.ErrInvalidPurchaseKind)
				assert.Nil(t, resp)
			},
		},
		{
			name: "正常系: デフォルト値の設定",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  0,  // デフォルト値に設定される
				Offset: -1, // 0に設定される
			},
			setupMocks: func(mpr *MockPurchaseRepository) {
				mpr.On("FindByUserID", mock.Anything, "user123", 50, 0).Return([]*purchase.Purchase{}, nil)
			},
			wantError: false,
			checkFunc: func(t *testing.T, resp *GetPurchaseHistoryResponse, err error) {
				require.NoError(t, err)
				assert.Equal(t, 50, resp.Limit)
				assert.Equal(t, 0, resp.Offset)
			},
		},
		{
			name: "正常系: 最大値の制限",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  200, // 100に制限される
				Offset: 0,
			},
			setupMocks: func(mpr *MockPurchaseRepository) {
				mpr.On("FindByUserID", mock.Anything, "user123", 100, 0).Return([]*purchase.Purchase{}, nil)
			},
			wantError: false,
			checkFunc: func(t *testing.T, resp *GetPurchaseHistoryResponse, err error) {
				require.NoError(t, err)
				assert.Equal(t, 100, resp.Limit)
			},
		},
		{
			name: "異常系: データベースエラー",
			req: &GetPurchaseHistoryRequest{
				UserID: "user123",
				Limit:  10,
				Offset: 0,
			},
			setupMocks: func(mpr *MockPurchaseRepository) {
				mpr.On("FindByUserID", mock.Anything, "user123", 10, 0).Return(nil, assert.AnError)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPurchaseRepo := new(MockPurchaseRepository)

			tt.setupMocks(mockPurchaseRepo)

			tracer := otel.Tracer("test")
			logger := otelinfra.NewLogger(tracer)
			metrics, err := otelinfra.NewMetrics("test")
			require.NoError(t, err)

			svc := NewHistoryApplicationService(
				mockPurchaseRepo,
				logger,
				metrics,
			)

			ctx := context.Background()
			got, err := svc.GetPurchaseHistory(ctx, tt.req)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, got, err)
			}

			mockPurchaseRepo.AssertExpectations(t)
		})
	}
}
