package service

import (
	"context"
	"testing"

	"inventory-api/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayCompletesOrder(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})

	txID, err := env.txSvc.Pay(context.Background(), PayOrderRequest{
		OrderID:     result.OrderID.String(),
		PaymentMode: model.PaymentModeOnline,
		AmountPaid:  decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	order, err := env.orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)

	// Settling reuses the order's single non-refund transaction instead
	// of appending a second one.
	var count int64
	require.NoError(t, env.db.Model(&model.Transaction{}).
		Where("order_id = ? AND transaction_type <> ?", result.OrderID, model.TxTypeRefund).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	tx, err := env.txs.FindPrimaryByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, txID, tx.ID)
	assert.Equal(t, model.PaymentModeOnline, tx.PaymentMode)
}

func TestPayAmountMismatch(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})

	_, err := env.txSvc.Pay(context.Background(), PayOrderRequest{
		OrderID:     result.OrderID.String(),
		PaymentMode: model.PaymentModeCash,
		AmountPaid:  decimal.NewFromInt(299),
	})
	require.ErrorIs(t, err, ErrValidation)

	order, err := env.orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestPayRejectsSettledAndCanceledOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")

	paid := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})
	require.NoError(t, env.orderSvc.MarkPaid(context.Background(), paid.OrderID.String()))
	_, err := env.txSvc.Pay(context.Background(), PayOrderRequest{
		OrderID:     paid.OrderID.String(),
		PaymentMode: model.PaymentModeCash,
		AmountPaid:  decimal.NewFromInt(300),
	})
	require.ErrorIs(t, err, ErrAlreadyPaid)

	canceled := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})
	require.NoError(t, env.orderSvc.CancelOrder(context.Background(), canceled.OrderID.String()))
	_, err = env.txSvc.Pay(context.Background(), PayOrderRequest{
		OrderID:     canceled.OrderID.String(),
		PaymentMode: model.PaymentModeCash,
		AmountPaid:  decimal.NewFromInt(300),
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRollbackCreatesRefundAndRevertsOrder(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 3})
	require.NoError(t, env.orderSvc.MarkPaid(context.Background(), result.OrderID.String()))

	primary, err := env.txs.FindPrimaryByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)

	refundID, err := env.txSvc.Rollback(context.Background(), primary.ID.String())
	require.NoError(t, err)

	refund, err := env.txs.FindByID(context.Background(), refundID)
	require.NoError(t, err)
	assert.Equal(t, model.TxTypeRefund, refund.TransactionType)
	assert.Equal(t, primary.PaymentMode, refund.PaymentMode)
	requireDecimal(t, "450", refund.TotalPrice)

	order, err := env.orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	// A refund is a money movement; the goods stay sold.
	assert.Equal(t, 7, env.stockOf(t, product.ID))
}

func TestRollbackIsUniquePerOrder(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 1})

	primary, err := env.txs.FindPrimaryByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)

	_, err = env.txSvc.Rollback(context.Background(), primary.ID.String())
	require.NoError(t, err)

	_, err = env.txSvc.Rollback(context.Background(), primary.ID.String())
	require.ErrorIs(t, err, ErrAlreadyRefunded)
}

func TestGatewayConfirmRecomputesProfitFromLiveCost(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeOnline, SaleItem{ProductID: product.ID.String(), Quantity: 2})

	// Cost drifts between order creation and the gateway's confirmation.
	stored, err := env.products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	stored.ActualPrice = decimal.NewFromInt(120)
	require.NoError(t, env.products.Save(context.Background(), stored))

	require.NoError(t, env.txSvc.ConfirmGatewayPayment(context.Background(), result.OrderID.String(), GatewayStatusSuccess))

	order, err := env.orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)

	tx, err := env.txs.FindPrimaryByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	// selling_price is pinned by the item snapshot, cost is read live:
	// 2 * (150 - 120).
	requireDecimal(t, "300", tx.TotalPrice)
	requireDecimal(t, "60", tx.Profit)
	assert.Equal(t, model.PaymentModeOnline, tx.PaymentMode)
}

func TestGatewayConfirmIgnoresNonSuccess(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeOnline, SaleItem{ProductID: product.ID.String(), Quantity: 2})

	require.NoError(t, env.txSvc.ConfirmGatewayPayment(context.Background(), result.OrderID.String(), "FAILED"))

	order, err := env.orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestTransactionListRollups(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")

	env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 3})

	_, err := env.orderSvc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:      env.userID.String(),
		PaymentMode: model.PaymentModeCash,
		Purchase: &PurchaseOrder{
			TotalAmount: decimal.NewFromInt(200),
			Items: []PurchaseItem{{
				ProductName:  "Widget",
				Company:      "Acme",
				Quantity:     2,
				ActualPrice:  decimal.NewFromInt(100),
				SellingPrice: decimal.NewFromInt(150),
			}},
		},
	})
	require.NoError(t, err)

	_, err = env.orderSvc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:      env.userID.String(),
		PaymentMode: model.PaymentModeCash,
		Personal:    &PersonalOrder{TotalAmount: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)

	report, err := env.txSvc.List(context.Background(), model.RoleAdmin, 50)
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 3)

	// Purchases and personal spending are subtracted from sale income,
	// not merely excluded: 450 - 200 - 50.
	require.NotNil(t, report.TotalCash)
	requireDecimal(t, "200", *report.TotalCash)
	require.NotNil(t, report.TotalOnline)
	requireDecimal(t, "0", *report.TotalOnline)
	require.NotNil(t, report.TotalIncome)
	requireDecimal(t, "200", *report.TotalIncome)
	require.NotNil(t, report.Profit)
	requireDecimal(t, "150", *report.Profit)
}

func TestTransactionListHidesRollupsFromUsers(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 1})

	report, err := env.txSvc.List(context.Background(), model.RoleUser, 50)
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 1)
	assert.Nil(t, report.TotalCash)
	assert.Nil(t, report.TotalOnline)
	assert.Nil(t, report.TotalIncome)
	assert.Nil(t, report.Profit)
}
