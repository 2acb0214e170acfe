package service

import (
	"context"
	"fmt"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const lowStockThreshold = 5

type SalesReport struct {
	From         time.Time                    `json:"from"`
	To           time.Time                    `json:"to"`
	TotalRevenue decimal.Decimal              `json:"total_revenue"`
	TotalOrders  int64                        `json:"total_orders"`
	TotalCost    decimal.Decimal              `json:"total_cost"`
	TotalProfit  decimal.Decimal              `json:"total_profit"`
	BestSellers  []repository.ProductSalesRow `json:"best_sellers"`
	ProfitByItem []repository.ProductSalesRow `json:"profit_by_product"`
}

type InventoryReport struct {
	TotalStock   int64             `json:"total_stock"`
	SellingValue decimal.Decimal   `json:"selling_value"`
	ActualValue  *decimal.Decimal  `json:"actual_value,omitempty"`
	LowStock     []ProductResponse `json:"low_stock"`
	OutOfStock   []ProductResponse `json:"out_of_stock"`
}

type ReportService interface {
	// Sales covers completed orders in [from, to]. Profit is revenue minus
	// the current replacement cost of the units sold, so it drifts when
	// actual_price changes after the sale.
	Sales(ctx context.Context, from, to time.Time) (*SalesReport, error)
	Inventory(ctx context.Context, role string) (*InventoryReport, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	logger     *zap.Logger
}

func NewReportService(reportRepo repository.ReportRepository, logger *zap.Logger) ReportService {
	return &reportService{reportRepo: reportRepo, logger: logger}
}

func (s *reportService) Sales(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: report range end precedes start", ErrValidation)
	}

	totals, err := s.reportRepo.SalesTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build sales totals: %w", err)
	}
	bestSellers, err := s.reportRepo.BestSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank best sellers: %w", err)
	}
	profitByItem, err := s.reportRepo.ProfitByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank product profit: %w", err)
	}

	return &SalesReport{
		From:         from,
		To:           to,
		TotalRevenue: totals.TotalRevenue,
		TotalOrders:  totals.TotalOrders,
		TotalCost:    totals.TotalCost,
		TotalProfit:  totals.TotalRevenue.Sub(totals.TotalCost),
		BestSellers:  bestSellers,
		ProfitByItem: profitByItem,
	}, nil
}

func (s *reportService) Inventory(ctx context.Context, role string) (*InventoryReport, error) {
	totalStock, err := s.reportRepo.TotalStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock: %w", err)
	}
	sellingValue, actualValue, err := s.reportRepo.InventoryValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to value inventory: %w", err)
	}
	lowStock, err := s.reportRepo.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	outOfStock, err := s.reportRepo.OutOfStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list out of stock: %w", err)
	}

	report := &InventoryReport{
		TotalStock:   totalStock,
		SellingValue: sellingValue,
		LowStock:     toProductResponses(lowStock, role),
		OutOfStock:   toProductResponses(outOfStock, role),
	}
	if role == model.RoleAdmin {
		report.ActualValue = &actualValue
	}
	return report, nil
}

func toProductResponses(products []model.Product, role string) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i], role))
	}
	return res
}
