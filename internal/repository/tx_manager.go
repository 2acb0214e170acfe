package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// ErrLockNotAvailable marks a unit of work that lost a row-lock race:
// either the lock_timeout elapsed waiting on FOR UPDATE or Postgres chose
// this transaction as the deadlock victim. Callers can retry.
var ErrLockNotAvailable = errors.New("row lock not available")

const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
)

// TransactionManager runs a group of repository calls as one atomic unit of
// work. The unit's *gorm.DB handle travels through the context so every
// repository call inside fn writes through the same database transaction;
// any error rolls the whole unit back before it is surfaced.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgLockNotAvailable || pgErr.Code == pgDeadlockDetected) {
			return fmt.Errorf("%w: %v", ErrLockNotAvailable, err)
		}
	}
	return err
}

// GetDB extracts the unit-of-work DB from context if present, otherwise
// returns the root DB. Repositories route every query through this so they
// transparently join an enclosing unit.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
