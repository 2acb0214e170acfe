package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	ws "inventory-api/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type SaleItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type SaleOrder struct {
	Items      []SaleItem `json:"items" binding:"required,min=1,dive"`
	CouponCode string     `json:"coupon_code"`
}

type PurchaseItem struct {
	ProductName     string          `json:"product_name" binding:"required"`
	Company         string          `json:"company" binding:"required"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity" binding:"required,gt=0"`
	ActualPrice     decimal.Decimal `json:"actual_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	TimeForDelivery string          `json:"time_for_delivery"`
}

type PurchaseOrder struct {
	Items       []PurchaseItem  `json:"items" binding:"required,min=1,dive"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type PersonalOrder struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CreateOrderRequest is a tagged variant over the three order kinds.
// Exactly one of Sale, Purchase, Personal must be set.
type CreateOrderRequest struct {
	UserID      string
	PaymentMode string
	Sale        *SaleOrder
	Purchase    *PurchaseOrder
	Personal    *PersonalOrder
}

type UpdateOrderRequest struct {
	PaymentMode string     `json:"payment_mode"`
	Items       []SaleItem `json:"items" binding:"required,min=1,dive"`
	CouponCode  string     `json:"coupon_code"`
}

type CreateOrderResult struct {
	OrderID         uuid.UUID       `json:"order_id"`
	TransactionType string          `json:"transaction_type"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Discount        decimal.Decimal `json:"discount"`
	PaymentMode     string          `json:"payment_mode"`
}

type ApplyCouponResult struct {
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}

type OrderItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	UserName        string              `json:"user_name"`
	Status          string              `json:"order_status"`
	TransactionType string              `json:"transaction_type"`
	PaymentMode     string              `json:"payment_mode"`
	CouponCode      *string             `json:"coupon_code"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	OrderDate       string              `json:"order_date"`
	Items           []OrderItemResponse `json:"items"`
}

type OrderListResult struct {
	Orders          []OrderResponse `json:"orders"`
	CompletedOrders int64           `json:"completed_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	TotalOrders     int64           `json:"total_orders"`
}

// OrderService is the order lifecycle manager. Every mutating operation
// runs as one atomic unit of work: product rows are locked in ascending id
// order, stock + order + line items + the paired ledger transaction change
// together, and any failure rolls the whole unit back.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	ListOrders(ctx context.Context, page, limit int, sort string) (*OrderListResult, error)
	UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*CreateOrderResult, error)
	DeleteOrder(ctx context.Context, id string) error
	CancelOrder(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) error
	ApplyCoupon(ctx context.Context, orderID, couponCode string, orderTotal decimal.Decimal) (*ApplyCouponResult, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type orderService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	txRepo      repository.TransactionRepository
	coupons     CouponService
	txManager   repository.TransactionManager
	hub         *ws.Hub
	logger      *zap.Logger
}

func NewOrderService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	txRepo repository.TransactionRepository,
	coupons CouponService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		txRepo:      txRepo,
		coupons:     coupons,
		txManager:   txManager,
		hub:         hub,
		logger:      logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if req.PaymentMode != model.PaymentModeCash && req.PaymentMode != model.PaymentModeOnline {
		return nil, fmt.Errorf("%w: payment_mode must be cash or online", ErrValidation)
	}

	set := 0
	for _, tagged := range []bool{req.Sale != nil, req.Purchase != nil, req.Personal != nil} {
		if tagged {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of sale, purchase, personal must be given", ErrValidation)
	}

	switch {
	case req.Sale != nil:
		return s.createSale(ctx, userID, req.PaymentMode, req.Sale)
	case req.Purchase != nil:
		return s.createPurchase(ctx, userID, req.PaymentMode, req.Purchase)
	default:
		return s.createPersonal(ctx, userID, req.PaymentMode, req.Personal)
	}
}

// sortedItemIDs parses and orders the product ids ascending. Locks are
// always taken in this order so two units sharing products cannot deadlock.
func sortedItemIDs(items []SaleItem) ([]SaleItem, error) {
	parsed := make([]SaleItem, len(items))
	copy(parsed, items)
	for _, item := range parsed {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, fmt.Errorf("%w: invalid product_id %q", ErrValidation, item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}
	sort.Slice(parsed, func(i, j int) bool {
		a, _ := uuid.Parse(parsed[i].ProductID)
		b, _ := uuid.Parse(parsed[j].ProductID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return parsed, nil
}

// applySaleItems locks each product, verifies availability, decrements
// stock and accumulates the order totals. selling_price is snapshotted from
// the product at this moment; actual_price is read live for profit.
func (s *orderService) applySaleItems(ctx context.Context, items []SaleItem) (decimal.Decimal, decimal.Decimal, []model.OrderItem, []ws.StockEvent, error) {
	total := decimal.Zero
	profit := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(items))
	events := make([]ws.StockEvent, 0, len(items))

	sorted, err := sortedItemIDs(items)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, nil, err
	}

	for _, item := range sorted {
		productID, _ := uuid.Parse(item.ProductID)
		product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, decimal.Zero, nil, nil, fmt.Errorf("%w: product %s", ErrNotFound, item.ProductID)
			}
			return decimal.Zero, decimal.Zero, nil, nil, fmt.Errorf("failed to lock product %s: %w", item.ProductID, err)
		}

		if product.StockQuantity < item.Quantity {
			return decimal.Zero, decimal.Zero, nil, nil, fmt.Errorf("%w: product %s has %d available, %d requested",
				ErrInsufficientStock, product.Name, product.StockQuantity, item.Quantity)
		}

		newStock := product.StockQuantity - item.Quantity
		if err := s.productRepo.UpdateStock(ctx, product.ID, newStock); err != nil {
			return decimal.Zero, decimal.Zero, nil, nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(product.SellingPrice.Mul(qty))
		profit = profit.Add(product.SellingPrice.Sub(product.ActualPrice).Mul(qty))

		orderItems = append(orderItems, model.OrderItem{
			ProductID:    product.ID,
			Quantity:     item.Quantity,
			SellingPrice: product.SellingPrice,
		})
		events = append(events, ws.StockEvent{Event: "sale", ProductID: product.ID.String(), Stock: newStock})
	}

	return total, profit, orderItems, events, nil
}

// restoreStock adds the quantities of previously committed line items back
// onto their products, locking rows in ascending id order.
func (s *orderService) restoreStock(ctx context.Context, items []model.OrderItem, event string) ([]ws.StockEvent, error) {
	sorted := make([]model.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ProductID[:], sorted[j].ProductID[:]) < 0
	})

	events := make([]ws.StockEvent, 0, len(sorted))
	for _, item := range sorted {
		product, err := s.productRepo.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Product was soft-deleted since the order; its counter is gone.
				continue
			}
			return nil, fmt.Errorf("failed to lock product %s: %w", item.ProductID, err)
		}
		newStock := product.StockQuantity + item.Quantity
		if err := s.productRepo.UpdateStock(ctx, product.ID, newStock); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
		events = append(events, ws.StockEvent{Event: event, ProductID: product.ID.String(), Stock: newStock})
	}
	return events, nil
}

func (s *orderService) publish(events []ws.StockEvent) {
	for _, ev := range events {
		s.hub.Publish(ev)
	}
}

func (s *orderService) createSale(ctx context.Context, userID uuid.UUID, paymentMode string, req *SaleOrder) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale order needs at least one item", ErrValidation)
	}

	var result *CreateOrderResult
	var events []ws.StockEvent

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		total, profit, orderItems, evs, err := s.applySaleItems(txCtx, req.Items)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		var couponCode *string
		if req.CouponCode != "" {
			eval, err := s.coupons.Evaluate(txCtx, req.CouponCode, total)
			if err != nil {
				return err
			}
			discount = eval.Discount
			total = eval.NewTotal
			couponCode = &eval.Code
		}

		order := model.Order{UserID: userID, TotalPrice: total, Status: model.OrderStatusPending}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := s.orderRepo.CreateItems(txCtx, orderItems); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		tx := model.Transaction{
			OrderID:         order.ID,
			TransactionType: model.TxTypeSale,
			TotalPrice:      total,
			Profit:          profit,
			PaymentMode:     paymentMode,
			CouponCode:      couponCode,
			Discount:        discount,
		}
		if err := s.txRepo.Create(txCtx, &tx); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &CreateOrderResult{
			OrderID:         order.ID,
			TransactionType: model.TxTypeSale,
			TotalPrice:      total,
			Discount:        discount,
			PaymentMode:     paymentMode,
		}
		events = evs
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events)
	s.logger.Info("sale order created",
		zap.String("order_id", result.OrderID.String()),
		zap.String("total_price", result.TotalPrice.String()),
		zap.String("payment_mode", paymentMode))
	return result, nil
}

func (s *orderService) createPurchase(ctx context.Context, userID uuid.UUID, paymentMode string, req *PurchaseOrder) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a purchase order needs at least one item", ErrValidation)
	}
	if req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total_amount must not be negative", ErrValidation)
	}

	var result *CreateOrderResult
	var events []ws.StockEvent

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Purchases complete immediately; nothing is pending on intake.
		order := model.Order{UserID: userID, TotalPrice: req.TotalAmount, Status: model.OrderStatusCompleted}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Resolve every item to its product id before taking any row lock so
		// restocks lock in ascending id order, same as the sale path.
		type restock struct {
			item      PurchaseItem
			productID uuid.UUID
		}
		restocks := make([]restock, 0, len(req.Items))
		fresh := make([]PurchaseItem, 0)
		for _, item := range req.Items {
			existing, err := s.productRepo.FindByNameAndCompany(txCtx, item.ProductName, item.Company)
			switch {
			case err == nil:
				restocks = append(restocks, restock{item: item, productID: existing.ID})
			case errors.Is(err, gorm.ErrRecordNotFound):
				fresh = append(fresh, item)
			default:
				return fmt.Errorf("failed to look up product %s/%s: %w", item.ProductName, item.Company, err)
			}
		}
		sort.Slice(restocks, func(i, j int) bool {
			return bytes.Compare(restocks[i].productID[:], restocks[j].productID[:]) < 0
		})

		for _, r := range restocks {
			// Re-read under lock, blend cost as a weighted average and
			// refresh the list price / delivery time.
			product, err := s.productRepo.FindByIDForUpdate(txCtx, r.productID)
			if err != nil {
				return fmt.Errorf("failed to lock product %s: %w", r.productID, err)
			}
			product.ActualPrice = model.BlendCost(product.StockQuantity, product.ActualPrice, r.item.Quantity, r.item.ActualPrice)
			product.StockQuantity += r.item.Quantity
			product.SellingPrice = r.item.SellingPrice
			product.TimeForDelivery = r.item.TimeForDelivery
			if err := s.productRepo.Save(txCtx, product); err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
			events = append(events, ws.StockEvent{Event: "purchase", ProductID: product.ID.String(), Stock: product.StockQuantity})
		}

		for _, item := range fresh {
			product := model.Product{
				Name:            item.ProductName,
				Company:         item.Company,
				Category:        item.Category,
				StockQuantity:   item.Quantity,
				ActualPrice:     item.ActualPrice,
				SellingPrice:    item.SellingPrice,
				TimeForDelivery: item.TimeForDelivery,
			}
			if err := s.productRepo.Create(txCtx, &product); err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			events = append(events, ws.StockEvent{Event: "purchase", ProductID: product.ID.String(), Stock: product.StockQuantity})
		}

		tx := model.Transaction{
			OrderID:         order.ID,
			TransactionType: model.TxTypePurchase,
			TotalPrice:      req.TotalAmount,
			Profit:          decimal.Zero,
			PaymentMode:     paymentMode,
		}
		if err := s.txRepo.Create(txCtx, &tx); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &CreateOrderResult{
			OrderID:         order.ID,
			TransactionType: model.TxTypePurchase,
			TotalPrice:      req.TotalAmount,
			PaymentMode:     paymentMode,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events)
	s.logger.Info("purchase order created",
		zap.String("order_id", result.OrderID.String()),
		zap.Int("items", len(req.Items)))
	return result, nil
}

func (s *orderService) createPersonal(ctx context.Context, userID uuid.UUID, paymentMode string, req *PersonalOrder) (*CreateOrderResult, error) {
	if req.TotalAmount.IsZero() || req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total_amount must be positive", ErrValidation)
	}

	var result *CreateOrderResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order := model.Order{UserID: userID, TotalPrice: req.TotalAmount, Status: model.OrderStatusCompleted}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		tx := model.Transaction{
			OrderID:         order.ID,
			TransactionType: model.TxTypePersonal,
			TotalPrice:      req.TotalAmount,
			Profit:          decimal.Zero,
			PaymentMode:     paymentMode,
		}
		if err := s.txRepo.Create(txCtx, &tx); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &CreateOrderResult{
			OrderID:         order.ID,
			TransactionType: model.TxTypePersonal,
			TotalPrice:      req.TotalAmount,
			PaymentMode:     paymentMode,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("personal order created", zap.String("order_id", result.OrderID.String()))
	return result, nil
}

// UpdateOrder drops the old line items' stock effects and replays the sale
// loop against the new items, all inside one unit: it never partially
// restores.
func (s *orderService) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*CreateOrderResult, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", ErrValidation)
	}

	var result *CreateOrderResult
	var events []ws.StockEvent

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order.Status == model.OrderStatusCanceled {
			return fmt.Errorf("%w: cannot update a canceled order", ErrInvalidState)
		}

		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction for order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}
		if primary.TransactionType != model.TxTypeSale {
			return fmt.Errorf("%w: only sale orders carry line items", ErrInvalidState)
		}

		oldItems, err := s.orderRepo.ListItems(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		restoreEvents, err := s.restoreStock(txCtx, oldItems, "update")
		if err != nil {
			return err
		}
		if err := s.orderRepo.DeleteItems(txCtx, orderID); err != nil {
			return fmt.Errorf("failed to delete old order items: %w", err)
		}

		total, profit, newItems, applyEvents, err := s.applySaleItems(txCtx, req.Items)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		var couponCode *string
		if req.CouponCode != "" {
			eval, err := s.coupons.Evaluate(txCtx, req.CouponCode, total)
			if err != nil {
				return err
			}
			discount = eval.Discount
			total = eval.NewTotal
			couponCode = &eval.Code
		}

		for i := range newItems {
			newItems[i].OrderID = orderID
		}
		if err := s.orderRepo.CreateItems(txCtx, newItems); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		primary.TotalPrice = total
		primary.Profit = profit
		primary.Discount = discount
		primary.CouponCode = couponCode
		if req.PaymentMode != "" {
			primary.PaymentMode = req.PaymentMode
		}
		if err := s.txRepo.Save(txCtx, primary); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		if err := s.orderRepo.UpdateTotal(txCtx, orderID, total); err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}

		result = &CreateOrderResult{
			OrderID:         order.ID,
			TransactionType: model.TxTypeSale,
			TotalPrice:      total,
			Discount:        discount,
			PaymentMode:     primary.PaymentMode,
		}
		events = append(restoreEvents, applyEvents...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events)
	s.logger.Info("order updated", zap.String("order_id", id))
	return result, nil
}

// DeleteOrder removes an order, its line items and its transactions; sale
// orders first get every touched product's stock restored exactly. Canceled
// sale orders already got their stock back when the cancel ran, so their
// items are deleted without a second restore.
func (s *orderService) DeleteOrder(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	var events []ws.StockEvent

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction for order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		if primary.TransactionType == model.TxTypeSale && order.Status != model.OrderStatusCanceled {
			items, err := s.orderRepo.ListItems(txCtx, orderID)
			if err != nil {
				return fmt.Errorf("failed to load order items: %w", err)
			}
			events, err = s.restoreStock(txCtx, items, "delete")
			if err != nil {
				return err
			}
		}

		if err := s.orderRepo.DeleteItems(txCtx, orderID); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := s.txRepo.DeleteByOrderID(txCtx, orderID); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := s.orderRepo.Delete(txCtx, orderID); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(events)
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}

// CancelOrder moves a pending order to canceled. Sale orders get their
// stock back so a canceled order cannot strand reserved inventory.
func (s *orderService) CancelOrder(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	var events []ws.StockEvent

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if !model.CanTransition(order.Status, model.OrderStatusCanceled) {
			return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidState, order.Status)
		}

		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, orderID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load transaction: %w", err)
		}
		if primary != nil && primary.TransactionType == model.TxTypeSale {
			items, err := s.orderRepo.ListItems(txCtx, orderID)
			if err != nil {
				return fmt.Errorf("failed to load order items: %w", err)
			}
			events, err = s.restoreStock(txCtx, items, "cancel")
			if err != nil {
				return err
			}
		}

		return s.orderRepo.UpdateStatus(txCtx, orderID, model.OrderStatusCanceled)
	})
	if err != nil {
		return err
	}

	s.publish(events)
	s.logger.Info("order canceled", zap.String("order_id", id))
	return nil
}

// MarkPaid transitions pending → completed. It records no stock or
// transaction side effects; payment recording is a separate step.
func (s *orderService) MarkPaid(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if order.Status == model.OrderStatusCompleted {
			return fmt.Errorf("%w: order %s", ErrAlreadyPaid, id)
		}
		if !model.CanTransition(order.Status, model.OrderStatusCompleted) {
			return fmt.Errorf("%w: cannot pay a %s order", ErrInvalidState, order.Status)
		}

		return s.orderRepo.UpdateStatus(txCtx, orderID, model.OrderStatusCompleted)
	})
}

// ApplyCoupon recomputes the discount against the order's pre-discount
// subtotal (the previously applied discount is added back first) and
// replaces the coupon reference on the paired transaction: last applied
// wins, no stacking. The Order row's total is intentionally left untouched;
// the transaction carries the authoritative discounted figure.
func (s *orderService) ApplyCoupon(ctx context.Context, orderID, couponCode string, orderTotal decimal.Decimal) (*ApplyCouponResult, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	if couponCode == "" {
		return nil, fmt.Errorf("%w: coupon_code is required", ErrValidation)
	}

	var result *ApplyCouponResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction for order %s", ErrNotFound, orderID)
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		subtotal := orderTotal.Add(primary.Discount)

		eval, err := s.coupons.Evaluate(txCtx, couponCode, subtotal)
		if err != nil {
			return err
		}

		// Null the prior coupon reference before writing the new one.
		primary.CouponCode = nil
		if err := s.txRepo.Save(txCtx, primary); err != nil {
			return fmt.Errorf("failed to clear coupon: %w", err)
		}

		primary.CouponCode = &eval.Code
		primary.Discount = eval.Discount
		if err := s.txRepo.Save(txCtx, primary); err != nil {
			return fmt.Errorf("failed to apply coupon: %w", err)
		}

		result = &ApplyCouponResult{Discount: eval.Discount, NewTotal: eval.NewTotal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("coupon applied",
		zap.String("order_id", orderID),
		zap.String("coupon_code", couponCode))
	return result, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	primary, err := s.txRepo.FindPrimaryByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	return s.toOrderResponse(ctx, order, primary), nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, sortBy string) (*OrderListResult, error) {
	orders, _, err := s.orderRepo.List(ctx, page, limit, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		primary, err := s.txRepo.FindPrimaryByOrderID(ctx, orders[i].ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load transaction: %w", err)
		}
		res = append(res, *s.toOrderResponse(ctx, &orders[i], primary))
	}

	completed, err := s.orderRepo.CountByStatus(ctx, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	pending, err := s.orderRepo.CountByStatus(ctx, model.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	return &OrderListResult{
		Orders:          res,
		CompletedOrders: completed,
		PendingOrders:   pending,
		TotalOrders:     completed + pending,
	}, nil
}

func (s *orderService) ListCategories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

func (s *orderService) toOrderResponse(ctx context.Context, order *model.Order, primary *model.Transaction) *OrderResponse {
	res := &OrderResponse{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		OrderDate:  order.OrderDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if order.User != nil {
		res.UserName = order.User.Name
	}
	if primary != nil {
		res.TransactionType = primary.TransactionType
		res.PaymentMode = primary.PaymentMode
		res.CouponCode = primary.CouponCode
	}

	res.Items = make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		name := ""
		if product, err := s.productRepo.FindByID(ctx, item.ProductID); err == nil {
			name = product.Name
		}
		res.Items = append(res.Items, OrderItemResponse{
			ProductID:    item.ProductID,
			ProductName:  name,
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice,
		})
	}
	return res
}
