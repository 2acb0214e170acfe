package repository

import (
	"context"
	"fmt"
	"time"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesTotalsRow struct {
	TotalRevenue decimal.Decimal `gorm:"column:total_revenue"`
	TotalOrders  int64           `gorm:"column:total_orders"`
	TotalCost    decimal.Decimal `gorm:"column:total_cost"`
}

type ProductSalesRow struct {
	ProductID uuid.UUID       `gorm:"column:product_id" json:"product_id"`
	Name      string          `gorm:"column:name" json:"name"`
	Company   string          `gorm:"column:company" json:"company"`
	Profit    decimal.Decimal `gorm:"column:profit" json:"profit"`
	UnitsSold int64           `gorm:"column:units_sold" json:"units_sold"`
	Price     decimal.Decimal `gorm:"column:price" json:"price"`
}

// ReportRepository serves the read-only admin rollups. The queries stay on
// ANSI SQL so they run against both Postgres and the SQLite test database.
type ReportRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (SalesTotalsRow, error)
	BestSellers(ctx context.Context) ([]ProductSalesRow, error)
	ProfitByProduct(ctx context.Context) ([]ProductSalesRow, error)
	TotalStock(ctx context.Context) (int64, error)
	InventoryValue(ctx context.Context) (selling, actual decimal.Decimal, err error)
	LowStock(ctx context.Context, threshold int) ([]model.Product, error)
	OutOfStock(ctx context.Context) ([]model.Product, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesTotals(ctx context.Context, from, to time.Time) (SalesTotalsRow, error) {
	var row SalesTotalsRow
	query := `
		SELECT
			COALESCE(SUM(o.total_price), 0) AS total_revenue,
			COUNT(*) AS total_orders,
			COALESCE((
				SELECT SUM(oi.quantity * p.actual_price)
				FROM order_items oi
				JOIN products p ON p.id = oi.product_id
				JOIN orders o2 ON o2.id = oi.order_id
				WHERE o2.status = ? AND o2.order_date BETWEEN ? AND ?
			), 0) AS total_cost
		FROM orders o
		WHERE o.status = ? AND o.order_date BETWEEN ? AND ?
	`
	if err := GetDB(ctx, r.db).Raw(query,
		model.OrderStatusCompleted, from, to,
		model.OrderStatusCompleted, from, to,
	).Scan(&row).Error; err != nil {
		return SalesTotalsRow{}, fmt.Errorf("failed to query sales totals: %w", err)
	}
	return row, nil
}

func (r *reportRepository) BestSellers(ctx context.Context) ([]ProductSalesRow, error) {
	return r.productSales(ctx, "units_sold DESC")
}

func (r *reportRepository) ProfitByProduct(ctx context.Context) ([]ProductSalesRow, error) {
	return r.productSales(ctx, "profit DESC")
}

func (r *reportRepository) productSales(ctx context.Context, order string) ([]ProductSalesRow, error) {
	query := `
		SELECT
			p.id AS product_id,
			p.name AS name,
			p.company AS company,
			COALESCE(SUM((oi.selling_price - p.actual_price) * oi.quantity), 0) AS profit,
			COALESCE(SUM(oi.quantity), 0) AS units_sold,
			p.selling_price AS price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		GROUP BY p.id, p.name, p.company, p.selling_price
		ORDER BY ` + order
	var rows []ProductSalesRow
	if err := GetDB(ctx, r.db).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) TotalStock(ctx context.Context) (int64, error) {
	var row struct {
		Total int64 `gorm:"column:total"`
	}
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity), 0) AS total").
		Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}

func (r *reportRepository) InventoryValue(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		SellingValue decimal.Decimal `gorm:"column:selling_value"`
		ActualValue  decimal.Decimal `gorm:"column:actual_value"`
	}
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity * selling_price), 0) AS selling_value, COALESCE(SUM(stock_quantity * actual_price), 0) AS actual_value").
		Scan(&row).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.SellingValue, row.ActualValue, nil
}

func (r *reportRepository) LowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).
		Where("stock_quantity > 0 AND stock_quantity <= ?", threshold).
		Order("stock_quantity").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *reportRepository) OutOfStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).
		Where("stock_quantity = 0").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
