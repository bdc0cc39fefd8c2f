package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Manager runs fn as one atomic unit. Nested calls join the outer transaction.
type Manager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// DB returns the transaction bound to ctx, or fallback scoped to ctx.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// InTx reports whether ctx carries a gorm transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// GormManager runs transactions on Postgres and retries serialization failures and deadlocks.
type GormManager struct {
	db         *gorm.DB
	maxRetries int
	backoff    time.Duration
}

func NewGormManager(db *gorm.DB) *GormManager {
	return &GormManager{db: db, maxRetries: 3, backoff: 25 * time.Millisecond}
}

func (m *GormManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if err == nil || !isRetryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("transaction failed after %d retries: %w", m.maxRetries, err)
}

// 40001 serialization_failure, 40P01 deadlock_detected
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
