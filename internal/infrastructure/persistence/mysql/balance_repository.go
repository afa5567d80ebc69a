package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/balance"
)

// BalanceRepository MySQL実装のBalanceRepository
type BalanceRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewBalanceRepository 新しいBalanceRepositoryを作成
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{
		db:     db,
		tracer: otel.Tracer("balance-repository"),
	}
}

// FindByUserIDAndItemID ユーザーIDとアイテムIDで残高を取得
func (r *BalanceRepository) FindByUserIDAndItemID(ctx context.Context, userID, itemID string) (*balance.Balance, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.FindByUserIDAndItemID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.item_id", itemID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "item_balances"),
	)

	query := `
		SELECT user_id, item_id, amount, version
		FROM item_balances
		WHERE user_id = ? AND item_id = ?
	`

	var dbUserID string
	var dbItemID string
	var amount int64
	var version int

	err := r.db.QueryRowContext(ctx, query, userID, itemID).Scan(
		&dbUserID,
		&dbItemID,
		&amount,
		&version,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "balance not found")
		return nil, balance.ErrBalanceNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find balance: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("db.amount", amount),
		attribute.Int("db.version", version),
	)
	span.SetStatus(otelcodes.Ok, "balance found")

	b, err := balance.NewBalance(dbUserID, dbItemID, amount, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct balance entity: %w", err)
	}

	return b, nil
}

// FindByUserID ユーザーの全残高を取得
func (r *BalanceRepository) FindByUserID(ctx context.Context, userID string) ([]*balance.Balance, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "item_balances"),
	)

	query := `
		SELECT user_id, item_id, amount, version
		FROM item_balances
		WHERE user_id = ?
		ORDER BY item_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []*balance.Balance
	for rows.Next() {
		var dbUserID string
		var dbItemID string
		var amount int64
		var version int

		if err := rows.Scan(&dbUserID, &dbItemID, &amount, &version); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}

		b, err := balance.NewBalance(dbUserID, dbItemID, amount, version)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct balance entity: %w", err)
		}

		balances = append(balances, b)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(balances)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d balances", len(balances)))
	return balances, nil
}

// Save 残高を保存（更新、楽観的ロック対応）
func (r *BalanceRepository) Save(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", b.UserID()),
		attribute.String("db.item_id", b.ItemID()),
		attribute.Int64("db.amount", b.Amount()),
		attribute.Int("db.version", b.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "item_balances"),
	)

	query := `
		UPDATE item_balances
		SET amount = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND item_id = ? AND version = ?
	`

	// エンティティ側でversionがインクリメント済みのため、更新条件には1つ前のversionを使う
	result, err := r.db.ExecContext(ctx, query,
		b.Amount(),
		b.Version(),
		b.UserID(),
		b.ItemID(),
		b.Version()-1,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.RecordError(balance.ErrVersionMismatch)
		span.SetStatus(otelcodes.Error, balance.ErrVersionMismatch.Error())
		return balance.ErrVersionMismatch
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "balance saved")
	return nil
}

// Create 新しい残高を作成
func (r *BalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", b.UserID()),
		attribute.String("db.item_id", b.ItemID()),
		attribute.Int64("db.amount", b.Amount()),
		attribute.Int("db.version", b.Version()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "item_balances"),
	)

	// ユーザーが存在するか確認（存在しない場合は作成）
	if err := r.ensureUserExists(ctx, b.UserID()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to ensure user exists: %w", err)
	}

	query := `
		INSERT INTO item_balances (user_id, item_id, amount, version)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			amount = VALUES(amount),
			version = VALUES(version),
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		b.UserID(),
		b.ItemID(),
		b.Amount(),
		b.Version(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create balance: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "balance created")
	return nil
}

// ensureUserExists ユーザーが存在することを確認（存在しない場合は作成）
func (r *BalanceRepository) ensureUserExists(ctx context.Context, userID string) error {
	query := `
		INSERT INTO users (user_id)
		VALUES (?)
		ON DUPLICATE KEY UPDATE updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user exists: %w", err)
	}

	return nil
}
