package repository

import (
	"context"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository manages the append-only money-movement ledger.
// Only the order-update and payment paths mutate the single primary row
// paired to an order; the refund path appends a dedicated refund row.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	Save(ctx context.Context, tx *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindPrimaryByOrderID returns the one non-refund transaction of an order.
	FindPrimaryByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Transaction, error)
	RefundExists(ctx context.Context, orderID uuid.UUID) (bool, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
	ListLatest(ctx context.Context, limit int) ([]model.Transaction, error)
	SumByTypeAndMode(ctx context.Context, txType, paymentMode string) (decimal.Decimal, error)
	SumProfit(ctx context.Context) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) Save(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Save(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var tx model.Transaction
	if err := db.Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindPrimaryByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).
		Where("order_id = ? AND transaction_type <> ?", orderID, model.TxTypeRefund).
		First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) RefundExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Where("order_id = ? AND transaction_type = ?", orderID, model.TxTypeRefund).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *transactionRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("order_id = ?", orderID).Delete(&model.Transaction{}).Error
}

func (r *transactionRepository) ListLatest(ctx context.Context, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("Order.User").
		Order("transaction_date DESC").
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) SumByTypeAndMode(ctx context.Context, txType, paymentMode string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("transaction_type = ? AND payment_mode = ?", txType, paymentMode).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *transactionRepository) SumProfit(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Select("COALESCE(SUM(profit), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
