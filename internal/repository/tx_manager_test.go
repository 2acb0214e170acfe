package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestRunInTxTranslatesLockTimeout(t *testing.T) {
	tm := NewTransactionManager(newTxTestDB(t))

	pgErr := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("lock products: %w", pgErr)
	})
	require.ErrorIs(t, err, ErrLockNotAvailable)
}

func TestRunInTxTranslatesDeadlock(t *testing.T) {
	tm := NewTransactionManager(newTxTestDB(t))

	pgErr := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return pgErr
	})
	require.ErrorIs(t, err, ErrLockNotAvailable)
}

func TestRunInTxPassesThroughOtherErrors(t *testing.T) {
	tm := NewTransactionManager(newTxTestDB(t))

	sentinel := errors.New("boom")
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.NotErrorIs(t, err, ErrLockNotAvailable)
}
