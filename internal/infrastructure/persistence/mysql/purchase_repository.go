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

	"storefront-server/internal/domain/purchase"
)

// PurchaseRepository MySQL実装のPurchaseRepository
type PurchaseRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPurchaseRepository 新しいPurchaseRepositoryを作成
func NewPurchaseRepository(db *DB) *PurchaseRepository {
	return &PurchaseRepository{
		db:     db,
		tracer: otel.Tracer("purchase-repository"),
	}
}

// Save 購入レコードを保存
func (r *PurchaseRepository) Save(ctx context.Context, p *purchase.Purchase) error {
	ctx, span := r.tracer.Start(ctx, "PurchaseRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.purchase_id", p.PurchaseID()),
		attribute.String("db.user_id", p.UserID()),
		attribute.String("db.item_id", p.ItemID()),
		attribute.String("db.kind", p.Kind().String()),
		attribute.Int64("db.quantity", p.Quantity()),
		attribute.String("db.status", p.Status().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "purchases"),
	)

	query := `
		INSERT INTO purchases (
			purchase_id, user_id, item_id, kind,
			quantity, debits, balance_before, balance_after, status,
			market_order_id, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			updated_at = VALUES(updated_at)
	`

	var debitsJSON []byte
	var err error
	if p.Debits() != nil {
		debitsJSON, err = json.Marshal(p.Debits())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal debits: %w", err)
		}
	}

	var metadataJSON []byte
	if p.Metadata() != nil {
		metadataJSON, err = json.Marshal(p.Metadata())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	marketOrderID := p.MarketOrderID()
	var marketOrderIDValue interface{}
	if marketOrderID != nil {
		marketOrderIDValue = *marketOrderID
	}

	_, err = r.db.ExecContext(ctx, query,
		p.PurchaseID(),
		p.UserID(),
		p.ItemID(),
		p.Kind().String(),
		p.Quantity(),
		string(debitsJSON),
		p.BalanceBefore(),
		p.BalanceAfter(),
		p.Status().String(),
		marketOrderIDValue,
		string(metadataJSON),
		p.CreatedAt(),
		p.UpdatedAt(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save purchase: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "purchase saved")
	return nil
}

// FindByPurchaseID 購入IDで購入レコードを取得
func (r *PurchaseRepository) FindByPurchaseID(ctx context.Context, purchaseID string) (*purchase.Purchase, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRepository.FindByPurchaseID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.purchase_id", purchaseID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchases"),
	)

	query := `
		SELECT
			purchase_id, user_id, item_id, kind,
			quantity, debits, balance_before, balance_after, status,
			market_order_id, metadata, created_at, updated_at
		FROM purchases
		WHERE purchase_id = ?
	`

	p, err := r.scanPurchase(r.db.QueryRowContext(ctx, query, purchaseID))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "purchase not found")
		return nil, purchase.ErrPurchaseNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "purchase found")
	return p, nil
}

// FindByUserID ユーザーIDで購入レコード一覧を取得（ページネーション対応）
func (r *PurchaseRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*purchase.Purchase, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchases"),
	)

	query := `
		SELECT
			purchase_id, user_id, item_id, kind,
			quantity, debits, balance_before, balance_after, status,
			market_order_id, metadata, created_at, updated_at
		FROM purchases
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*purchase.Purchase
	for rows.Next() {
		p, err := r.scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(purchases)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d purchases", len(purchases)))
	return purchases, nil
}

// FindByUserIDAndKind ユーザーIDと種別で購入レコード一覧を取得（ページネーション対応）
func (r *PurchaseRepository) FindByUserIDAndKind(ctx context.Context, userID string, kind purchase.PurchaseKind, limit, offset int) ([]*purchase.Purchase, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRepository.FindByUserIDAndKind")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.kind", kind.String()),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchases"),
	)

	query := `
		SELECT
			purchase_id, user_id, item_id, kind,
			quantity, debits, balance_before, balance_after, status,
			market_order_id, metadata, created_at, updated_at
		FROM purchases
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, kind.String(), limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*purchase.Purchase
	for rows.Next() {
		p, err := r.scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(purchases)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d purchases", len(purchases)))
	return purchases, nil
}

// FindByMarketOrderID マーケット注文IDで購入レコードを取得
func (r *PurchaseRepository) FindByMarketOrderID(ctx context.Context, orderID string) (*purchase.Purchase, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRepository.FindByMarketOrderID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.market_order_id", orderID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchases"),
	)

	query := `
		SELECT
			purchase_id, user_id, item_id, kind,
			quantity, debits, balance_before, balance_after, status,
			market_order_id, metadata, created_at, updated_at
		FROM purchases
		WHERE market_order_id = ?
	`

	p, err := r.scanPurchase(r.db.QueryRowContext(ctx, query, orderID))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "purchase not found")
		return nil, purchase.ErrPurchaseNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "purchase found")
	return p, nil
}

// scanner QueryRowContextとrows.Scanの両方を受けるための共通インターフェース
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPurchase 1行分の購入レコードをエンティティに復元
func (r *PurchaseRepository) scanPurchase(row scanner) (*purchase.Purchase, error) {
	var dbPurchaseID, dbUserID, dbItemID, dbKind string
	var quantity, balanceBefore, balanceAfter int64
	var dbStatus string
	var debitsJSON sql.NullString
	var marketOrderID sql.NullString
	var metadataJSON sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&dbPurchaseID,
		&dbUserID,
		&dbItemID,
		&dbKind,
		&quantity,
		&debitsJSON,
		&balanceBefore,
		&balanceAfter,
		&dbStatus,
		&marketOrderID,
		&metadataJSON,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}

	kind, err := purchase.NewPurchaseKind(dbKind)
	if err != nil {
		return nil, err
	}

	status, err := purchase.NewPurchaseStatus(dbStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase status: %w", err)
	}

	var debits map[string]int64
	if debitsJSON.Valid && debitsJSON.String != "" {
		if err := json.Unmarshal([]byte(debitsJSON.String), &debits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal debits: %w", err)
		}
	}

	var metadata map[string]interface{}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	p, err := purchase.NewPurchase(
		dbPurchaseID,
		dbUserID,
		dbItemID,
		kind,
		quantity,
		debits,
		balanceBefore,
		balanceAfter,
		status,
		metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct purchase entity: %w", err)
	}

	if marketOrderID.Valid {
		p.SetMarketOrderID(marketOrderID.String)
	}

	return p, nil
}
