package service

import (
	"context"
	"testing"
	"time"

	"inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesReportTotals(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")

	completed := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})
	require.NoError(t, env.orderSvc.MarkPaid(context.Background(), completed.OrderID.String()))

	// Pending orders stay out of the revenue rollup.
	env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 1})

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	report, err := env.reportSvc.Sales(context.Background(), from, to)
	require.NoError(t, err)

	requireDecimal(t, "300", report.TotalRevenue)
	assert.EqualValues(t, 1, report.TotalOrders)
	requireDecimal(t, "200", report.TotalCost)
	requireDecimal(t, "100", report.TotalProfit)

	require.NotEmpty(t, report.BestSellers)
	assert.Equal(t, "Widget", report.BestSellers[0].Name)
	assert.EqualValues(t, 3, report.BestSellers[0].UnitsSold)
}

func TestSalesReportRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reportSvc.Sales(context.Background(), time.Now(), time.Now().Add(-time.Hour))
	require.ErrorIs(t, err, ErrValidation)
}

func TestInventoryReport(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "Plenty", 50, "10", "20")
	low := env.seedProduct(t, "Low", 2, "10", "20")
	out := env.seedProduct(t, "Gone", 0, "10", "20")

	report, err := env.reportSvc.Inventory(context.Background(), model.RoleAdmin)
	require.NoError(t, err)

	assert.EqualValues(t, 52, report.TotalStock)
	requireDecimal(t, "1040", report.SellingValue)
	require.NotNil(t, report.ActualValue)
	requireDecimal(t, "520", *report.ActualValue)

	require.Len(t, report.LowStock, 1)
	assert.Equal(t, low.ID, report.LowStock[0].ID)
	require.Len(t, report.OutOfStock, 1)
	assert.Equal(t, out.ID, report.OutOfStock[0].ID)

	asUser, err := env.reportSvc.Inventory(context.Background(), model.RoleUser)
	require.NoError(t, err)
	assert.Nil(t, asUser.ActualValue)
}
