package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchase(t *testing.T) {
	tests := []struct {
		name       string
		purchaseID string
		userID     string
		itemID     string
		kind       PurchaseKind
		quantity   int64
		status     PurchaseStatus
		wantError  error
	}{
		{
			name:       "正常系: 仮想通貨建て購入レコード",
			purchaseID: "pur_123",
			userID:     "user123",
			itemID:     "good_sword",
			kind:       PurchaseKindVirtual,
			quantity:   1,
			status:     PurchaseStatusCompleted,
			wantError:  nil,
		},
		{
			name:       "正常系: 付与レコード",
			purchaseID: "pur_456",
			userID:     "user123",
			itemID:     "currency_coin",
			kind:       PurchaseKindGrant,
			quantity:   100,
			status:     PurchaseStatusCompleted,
			wantError:  nil,
		},
		{
			name:       "異常系: 無効な購入ID",
			purchaseID: "",
			userID:     "user123",
			itemID:     "good_sword",
			kind:       PurchaseKindVirtual,
			quantity:   1,
			status:     PurchaseStatusCompleted,
			wantError:  ErrInvalidPurchaseID,
		},
		{
			name:       "異常系: 無効なユーザーID",
			purchaseID: "pur_123",
			userID:     "bad user",
			itemID:     "good_sword",
			kind:       PurchaseKindVirtual,
			quantity:   1,
			status:     PurchaseStatusCompleted,
			wantError:  ErrInvalidUserID,
		},
		{
			name:       "異常系: 数量が0",
			purchaseID: "pur_123",
			userID:     "user123",
			itemID:     "good_sword",
			kind:       PurchaseKindVirtual,
			quantity:   0,
			status:     PurchaseStatusCompleted,
			wantError:  ErrInvalidQuantity,
		},
		{
			name:       "異常系: 無効な種別",
			purchaseID: "pur_123",
			userID:     "user123",
			itemID:     "good_sword",
			kind:       PurchaseKind("unknown"),
			quantity:   1,
			status:     PurchaseStatusCompleted,
			wantError:  ErrInvalidPurchase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPurchase(
				tt.purchaseID, tt.userID, tt.itemID, tt.kind, tt.quantity,
				map[string]int64{"currency_coin": 50}, 0, 1, tt.status, nil,
			)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.purchaseID, got.PurchaseID())
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.quantity, got.Quantity())
			assert.Nil(t, got.MarketOrderID())
		})
	}
}

func TestPurchase_SetMarketOrderID(t *testing.T) {
	p := MustNewPurchase("pur_123", "user123", "coinpack_100",
		PurchaseKindMarket, 1, nil, 0, 100, PurchaseStatusCompleted, nil)

	p.SetMarketOrderID("order_abc")
	require.NotNil(t, p.MarketOrderID())
	assert.Equal(t, "order_abc", *p.MarketOrderID())
}

func TestNewPurchaseKind(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      PurchaseKind
		wantError bool
	}{
		{name: "正常系: market", input: "market", want: PurchaseKindMarket},
		{name: "正常系: virtual", input: "virtual", want: PurchaseKindVirtual},
		{name: "正常系: grant", input: "grant", want: PurchaseKindGrant},
		{name: "正常系: take", input: "take", want: PurchaseKindTake},
		{name: "異常系: 未知の種別", input: "refund", wantError: true},
		{name: "異常系: 空文字", input: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPurchaseKind(tt.input)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidPurchaseKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestNewPurchaseStatus(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      PurchaseStatus
		wantError bool
	}{
		{name: "正常系: completed", input: "completed", want: PurchaseStatusCompleted},
		{name: "正常系: failed", input: "failed", want: PurchaseStatusFailed},
		{name: "異常系: 未知のステータス", input: "pending", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPurchaseStatus(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
