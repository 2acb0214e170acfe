package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"inventory-api/internal/database"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	ws "inventory-api/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	products repository.ProductRepository
	orders   repository.OrderRepository
	txs      repository.TransactionRepository
	coupons  repository.CouponRepository

	couponSvc  CouponService
	orderSvc   OrderService
	txSvc      TransactionService
	productSvc ProductService
	reportSvc  ReportService

	userID uuid.UUID
}

// newTestEnv opens a named in-memory database so every connection in the
// pool sees the same schema, migrates it and wires the full service stack.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	hub := ws.NewHub(log)

	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	reportRepo := repository.NewReportRepository(db)

	couponSvc := NewCouponService(couponRepo, log)

	env := &testEnv{
		db:         db,
		products:   productRepo,
		orders:     orderRepo,
		txs:        txRepo,
		coupons:    couponRepo,
		couponSvc:  couponSvc,
		orderSvc:   NewOrderService(productRepo, orderRepo, txRepo, couponSvc, txManager, hub, log),
		txSvc:      NewTransactionService(orderRepo, txRepo, productRepo, txManager, log),
		productSvc: NewProductService(productRepo, txManager, hub, log),
		reportSvc:  NewReportService(reportRepo, log),
	}

	user := &model.User{Name: "Test User", Email: "test@example.com", Password: "x", Role: model.RoleUser}
	require.NoError(t, db.Create(user).Error)
	env.userID = user.ID

	return env
}

func (e *testEnv) seedProduct(t *testing.T, name string, stock int, actual, selling string) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:          name,
		Company:       "Acme",
		Category:      "general",
		StockQuantity: stock,
		ActualPrice:   decimal.RequireFromString(actual),
		SellingPrice:  decimal.RequireFromString(selling),
	}
	require.NoError(t, e.products.Create(context.Background(), product))
	return product
}

func (e *testEnv) seedCoupon(t *testing.T, code, discountType, value string) *model.Coupon {
	t.Helper()
	coupon := &model.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		IsActive:      true,
	}
	require.NoError(t, e.coupons.Create(context.Background(), coupon))
	return coupon
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	product, err := e.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return product.StockQuantity
}

func (e *testEnv) createSale(t *testing.T, paymentMode string, items ...SaleItem) *CreateOrderResult {
	t.Helper()
	result, err := e.orderSvc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:      e.userID.String(),
		PaymentMode: paymentMode,
		Sale:        &SaleOrder{Items: items},
	})
	require.NoError(t, err)
	return result
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"expected %s, got %s", want, got)
}
