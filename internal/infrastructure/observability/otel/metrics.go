package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 購入数（種別・アイテム毎）
	PurchaseCount metric.Int64Counter

	// 残高不足の発生件数
	InsufficientFundsCount metric.Int64Counter

	// アイテム残高の分布
	ItemBalance metric.Int64Gauge

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	purchaseCount, err := meter.Int64Counter(
		"purchases_total",
		metric.WithDescription("Total number of purchases"),
	)
	if err != nil {
		return nil, err
	}

	insufficientFundsCount, err := meter.Int64Counter(
		"insufficient_funds_total",
		metric.WithDescription("Total number of insufficient funds rejections"),
	)
	if err != nil {
		return nil, err
	}

	itemBalance, err := meter.Int64Gauge(
		"item_balance",
		metric.WithDescription("Virtual item balance"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		PurchaseCount:          purchaseCount,
		InsufficientFundsCount: insufficientFundsCount,
		ItemBalance:            itemBalance,
		RequestCount:           requestCount,
		ResponseTime:           responseTime,
		ErrorCount:             errorCount,
	}, nil
}

// RecordPurchase 購入を記録
func (m *Metrics) RecordPurchase(ctx context.Context, purchaseKind, itemID string) {
	m.PurchaseCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("purchase_kind", purchaseKind),
			attribute.String("item_id", itemID),
		),
	)
}

// RecordInsufficientFunds 残高不足の発生を記録
func (m *Metrics) RecordInsufficientFunds(ctx context.Context, currencyItemID string) {
	m.InsufficientFundsCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("currency_item_id", currencyItemID),
		),
	)
}

// RecordItemBalance アイテム残高を記録
func (m *Metrics) RecordItemBalance(ctx context.Context, userID, itemID string, amount int64) {
	m.ItemBalance.Record(ctx, amount,
		metric.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("item_id", itemID),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
