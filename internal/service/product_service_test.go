package service

import (
	"context"
	"testing"

	"inventory-api/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddProductRestocksExisting(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "Widget", 10, "100", "150")

	// Same name+company restocks and overwrites prices: this is the
	// admin edit path, not the blending purchase intake.
	res, err := env.productSvc.AddProduct(context.Background(), model.RoleAdmin, AddProductRequest{
		ProductName:   "widget",
		Company:       "ACME",
		StockQuantity: 5,
		ActualPrice:   decimal.NewFromInt(120),
		SellingPrice:  decimal.NewFromInt(180),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.StockQuantity)
	require.NotNil(t, res.ActualPrice)
	requireDecimal(t, "120", *res.ActualPrice)
	requireDecimal(t, "180", res.SellingPrice)

	var count int64
	require.NoError(t, env.db.Model(&model.Product{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddProductCreatesNew(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.productSvc.AddProduct(context.Background(), model.RoleUser, AddProductRequest{
		ProductName:   "Gadget",
		Company:       "Initech",
		StockQuantity: 3,
		ActualPrice:   decimal.NewFromInt(40),
		SellingPrice:  decimal.NewFromInt(70),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.StockQuantity)
	// Cost is hidden from non-admin callers.
	assert.Nil(t, res.ActualPrice)
}

func TestUpdateProductRejectsNegativeStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")

	_, err := env.productSvc.UpdateProduct(context.Background(), model.RoleAdmin, product.ID.String(), UpdateProductRequest{
		SellingPrice:  decimal.NewFromInt(150),
		ActualPrice:   decimal.NewFromInt(100),
		StockQuantity: -1,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteProductHidesFromSearchAndBlocksSales(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")

	require.NoError(t, env.productSvc.DeleteProduct(context.Background(), product.ID.String()))

	found, err := env.productSvc.Search(context.Background(), model.RoleUser, "Widget")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = env.orderSvc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:      env.userID.String(),
		PaymentMode: model.PaymentModeCash,
		Sale:        &SaleOrder{Items: []SaleItem{{ProductID: product.ID.String(), Quantity: 1}}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletedProductKeepsOrderHistoryIntact(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Widget", 10, "100", "150")
	result := env.createSale(t, model.PaymentModeCash, SaleItem{ProductID: product.ID.String(), Quantity: 2})

	require.NoError(t, env.productSvc.DeleteProduct(context.Background(), product.ID.String()))

	// Deleting the order after the product is gone must not fail; the
	// soft-deleted product's stock counter simply stays untouched.
	require.NoError(t, env.orderSvc.DeleteOrder(context.Background(), result.OrderID.String()))
}

func TestListProductsRoleGatesCost(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "Widget", 10, "100", "150")

	asAdmin, _, err := env.productSvc.List(context.Background(), model.RoleAdmin, 1, 20, "name")
	require.NoError(t, err)
	require.Len(t, asAdmin, 1)
	assert.NotNil(t, asAdmin[0].ActualPrice)

	asUser, _, err := env.productSvc.List(context.Background(), model.RoleUser, 1, 20, "name")
	require.NoError(t, err)
	require.Len(t, asUser, 1)
	assert.Nil(t, asUser[0].ActualPrice)
}
