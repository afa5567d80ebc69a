package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TransactionManager トランザクション管理を提供
type TransactionManager struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionManager 新しいトランザクションマネージャーを作成
func NewTransactionManager(db *DB) *TransactionManager {
	return &TransactionManager{
		db:     db,
		tracer: otel.Tracer("transaction-manager"),
	}
}

// WithTransaction トランザクション内で関数を実行
// fnがエラーまたはパニックを返した場合はロールバックする
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx, span := tm.tracer.Start(ctx, "TransactionManager.WithTransaction")
	defer span.End()

	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// パニック時もここでロールバックされる
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
