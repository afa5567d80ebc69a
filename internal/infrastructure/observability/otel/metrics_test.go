package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics(t *testing.T) {
	// Noopメータープロバイダーを使用
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	assert.NotNil(t, metrics.PurchaseCount)
	assert.NotNil(t, metrics.InsufficientFundsCount)
	assert.NotNil(t, metrics.ItemBalance)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.ResponseTime)
	assert.NotNil(t, metrics.ErrorCount)
}

func TestMetrics_RecordPurchase(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 購入を記録
	metrics.RecordPurchase(ctx, "virtual", "good_sword")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordInsufficientFunds(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 残高不足を記録
	metrics.RecordInsufficientFunds(ctx, "currency_coin")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordItemBalance(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// アイテム残高を記録
	metrics.RecordItemBalance(ctx, "user123", "currency_coin", 1000)

	// エラーが発生しないことを確認
}

func TestMetrics_RecordRequest(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// リクエストを記録
	metrics.RecordRequest(ctx, "GET", "/api/v1/balances")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordResponseTime(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// レスポンス時間を記録
	metrics.RecordResponseTime(ctx, "GET", "/api/v1/balances", 0.123)

	// エラーが発生しないことを確認
}

func TestMetrics_RecordError(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// エラーを記録
	metrics.RecordError(ctx, "database_error")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordPurchaseWithDifferentKinds(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 異なる購入種別を記録
	metrics.RecordPurchase(ctx, "virtual", "good_sword")
	metrics.RecordPurchase(ctx, "market", "coinpack_100")
	metrics.RecordPurchase(ctx, "grant", "currency_coin")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordItemBalanceWithDifferentUsers(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 異なるユーザーの残高を記録
	metrics.RecordItemBalance(ctx, "user1", "currency_coin", 1000)
	metrics.RecordItemBalance(ctx, "user2", "currency_gem", 500)
	metrics.RecordItemBalance(ctx, "user1", "good_sword", 2)

	// エラーが発生しないことを確認
}

func TestMetrics_MultipleCalls(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 複数回メトリクスを記録
	for i := 0; i < 10; i++ {
		metrics.RecordPurchase(ctx, "virtual", "good_sword")
		metrics.RecordItemBalance(ctx, "user123", "currency_coin", int64(100*i))
		metrics.RecordRequest(ctx, "GET", "/api/v1/balances")
		metrics.RecordResponseTime(ctx, "GET", "/api/v1/balances", 0.1)
	}

	// エラーが発生しないことを確認
}
