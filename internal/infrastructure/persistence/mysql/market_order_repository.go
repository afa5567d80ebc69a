package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/market_order"
)

// MarketOrderRepository MySQL実装のMarketOrderRepository
type MarketOrderRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewMarketOrderRepository 新しいMarketOrderRepositoryを作成
func NewMarketOrderRepository(db *DB) *MarketOrderRepository {
	return &MarketOrderRepository{
		db:     db,
		tracer: otel.Tracer("market-order-repository"),
	}
}

// Create 新しい注文を作成
func (r *MarketOrderRepository) Create(ctx context.Context, order *market_order.MarketOrder) error {
	ctx, span := r.tracer.Start(ctx, "MarketOrderRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", order.OrderID()),
		attribute.String("db.user_id", order.UserID()),
		attribute.String("db.item_id", order.ItemID()),
		attribute.String("db.product_id", order.ProductID()),
		attribute.String("db.status", order.Status().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "market_orders"),
	)

	receiptJSON, err := json.Marshal(order.Receipt())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	query := `
		INSERT INTO market_orders (
			order_id, user_id, item_id, product_id, status, receipt, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		order.OrderID(),
		order.UserID(),
		order.ItemID(),
		order.ProductID(),
		order.Status().String(),
		string(receiptJSON),
		order.CreatedAt(),
		order.UpdatedAt(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create market order: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "market order created")
	return nil
}

// FindByOrderID 注文IDで注文を取得
func (r *MarketOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*market_order.MarketOrder, error) {
	ctx, span := r.tracer.Start(ctx, "MarketOrderRepository.FindByOrderID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", orderID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "market_orders"),
	)

	query := `
		SELECT order_id, user_id, item_id, product_id, status, receipt, created_at, updated_at
		FROM market_orders
		WHERE order_id = ?
	`

	var dbOrderID, dbUserID, dbItemID, dbProductID, dbStatus string
	var receiptJSON sql.NullString
	var createdAt, updatedAt time.Time

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&dbOrderID,
		&dbUserID,
		&dbItemID,
		&dbProductID,
		&dbStatus,
		&receiptJSON,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "market order not found")
		return nil, market_order.ErrOrderNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find market order: %w", err)
	}

	span.SetAttributes(attribute.String("db.status", dbStatus))
	span.SetStatus(otelcodes.Ok, "market order found")

	status, err := market_order.NewOrderStatus(dbStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid order status: %w", err)
	}

	var receipt map[string]interface{}
	if receiptJSON.Valid && receiptJSON.String != "" {
		if err := json.Unmarshal([]byte(receiptJSON.String), &receipt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
		}
	}

	order, err := market_order.NewMarketOrderWithStatus(dbOrderID, dbUserID, dbItemID, dbProductID, status, receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct market order entity: %w", err)
	}

	return order, nil
}

// Save 注文を保存（ステータス更新）
func (r *MarketOrderRepository) Save(ctx context.Context, order *market_order.MarketOrder) error {
	ctx, span := r.tracer.Start(ctx, "MarketOrderRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_id", order.OrderID()),
		attribute.String("db.status", order.Status().String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "market_orders"),
	)

	receiptJSON, err := json.Marshal(order.Receipt())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	query := `
		UPDATE market_orders
		SET status = ?, receipt = ?, updated_at = CURRENT_TIMESTAMP
		WHERE order_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		order.Status().String(),
		string(receiptJSON),
		order.OrderID(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save market order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.RecordError(market_order.ErrOrderNotFound)
		span.SetStatus(otelcodes.Error, market_order.ErrOrderNotFound.Error())
		return market_order.ErrOrderNotFound
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "market order saved")
	return nil
}
