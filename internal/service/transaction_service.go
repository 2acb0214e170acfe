package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type PayOrderRequest struct {
	OrderID     string          `json:"order_id" binding:"required"`
	PaymentMode string          `json:"payment_mode" binding:"required,oneof=cash online"`
	AmountPaid  decimal.Decimal `json:"amount_paid" binding:"required"`
}

type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	OrderStatus     string          `json:"order_status"`
	UserName        string          `json:"user_name"`
	TransactionType string          `json:"transaction_type"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Profit          decimal.Decimal `json:"profit"`
	PaymentMode     string          `json:"payment_mode"`
	CouponCode      *string         `json:"coupon_code"`
	Discount        decimal.Decimal `json:"discount"`
	TransactionDate string          `json:"transaction_date"`
}

// TransactionReport carries the latest ledger rows plus, for admins, the
// net cash position: purchase and personal outflows are subtracted from
// sale income rather than counted as revenue.
type TransactionReport struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCash    *decimal.Decimal      `json:"total_cash,omitempty"`
	TotalOnline  *decimal.Decimal      `json:"total_online,omitempty"`
	TotalIncome  *decimal.Decimal      `json:"total_income,omitempty"`
	Profit       *decimal.Decimal      `json:"profit,omitempty"`
}

// GatewayStatusSuccess is the status value the payment gateway's callback
// delivers for a settled payment.
const GatewayStatusSuccess = "SUCCESS"

type TransactionService interface {
	// Pay settles a pending order: it validates the amount against the
	// order total, stamps the payment mode onto the order's single
	// non-refund transaction (creating it when the order has none yet) and
	// completes the order.
	Pay(ctx context.Context, req PayOrderRequest) (uuid.UUID, error)
	// Rollback refunds a transaction: appends the order's unique refund row
	// and moves the order back to pending. Stock is not restored; a refund
	// is a money movement, not a goods return.
	Rollback(ctx context.Context, transactionID string) (uuid.UUID, error)
	// ConfirmGatewayPayment handles the asynchronous payment-gateway
	// callback. Only SUCCESS settles the order; anything else is an ack.
	ConfirmGatewayPayment(ctx context.Context, orderID, status string) error
	List(ctx context.Context, role string, limit int) (*TransactionReport, error)
}

type transactionService struct {
	orderRepo   repository.OrderRepository
	txRepo      repository.TransactionRepository
	productRepo repository.ProductRepository
	txManager   repository.TransactionManager
	logger      *zap.Logger
}

func NewTransactionService(
	orderRepo repository.OrderRepository,
	txRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) TransactionService {
	return &transactionService{
		orderRepo:   orderRepo,
		txRepo:      txRepo,
		productRepo: productRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *transactionService) Pay(ctx context.Context, req PayOrderRequest) (uuid.UUID, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	var txID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if order.Status == model.OrderStatusCompleted {
			return fmt.Errorf("%w: order %s", ErrAlreadyPaid, req.OrderID)
		}
		if order.Status == model.OrderStatusCanceled {
			return fmt.Errorf("%w: cannot process payment for a canceled order", ErrInvalidState)
		}
		if !req.AmountPaid.Equal(order.TotalPrice) {
			return fmt.Errorf("%w: amount paid (%s) does not match order total (%s)",
				ErrValidation, req.AmountPaid, order.TotalPrice)
		}

		// The order keeps exactly one non-refund transaction: settle onto
		// the existing row rather than appending a second one.
		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, orderID)
		switch {
		case err == nil:
			primary.PaymentMode = req.PaymentMode
			if err := s.txRepo.Save(txCtx, primary); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
			txID = primary.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			tx := model.Transaction{
				OrderID:         orderID,
				TransactionType: model.TxTypeSale,
				TotalPrice:      order.TotalPrice,
				PaymentMode:     req.PaymentMode,
			}
			if err := s.txRepo.Create(txCtx, &tx); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}
			txID = tx.ID
		default:
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		return s.orderRepo.UpdateStatus(txCtx, orderID, model.OrderStatusCompleted)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("order_id", req.OrderID),
		zap.String("payment_mode", req.PaymentMode))
	return txID, nil
}

func (s *transactionService) Rollback(ctx context.Context, transactionID string) (uuid.UUID, error) {
	txUUID, err := uuid.Parse(transactionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid transaction id", ErrValidation)
	}

	var refundID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		tx, err := s.txRepo.FindByIDForUpdate(txCtx, txUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
			}
			return fmt.Errorf("failed to lock transaction: %w", err)
		}

		refunded, err := s.txRepo.RefundExists(txCtx, tx.OrderID)
		if err != nil {
			return fmt.Errorf("failed to check refunds: %w", err)
		}
		if refunded {
			return fmt.Errorf("%w: order %s", ErrAlreadyRefunded, tx.OrderID)
		}

		refund := model.Transaction{
			OrderID:         tx.OrderID,
			TransactionType: model.TxTypeRefund,
			TotalPrice:      tx.TotalPrice,
			PaymentMode:     tx.PaymentMode,
		}
		if err := s.txRepo.Create(txCtx, &refund); err != nil {
			return fmt.Errorf("failed to record refund: %w", err)
		}
		refundID = refund.ID

		order, err := s.orderRepo.FindByIDForUpdate(txCtx, tx.OrderID)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order.Status == model.OrderStatusCompleted {
			// Back to pending for further processing.
			return s.orderRepo.UpdateStatus(txCtx, tx.OrderID, model.OrderStatusPending)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("transaction rolled back",
		zap.String("transaction_id", transactionID),
		zap.String("refund_id", refundID.String()))
	return refundID, nil
}

func (s *transactionService) ConfirmGatewayPayment(ctx context.Context, orderID, status string) error {
	if status != GatewayStatusSuccess {
		s.logger.Info("gateway callback ignored",
			zap.String("order_id", orderID),
			zap.String("status", status))
		return nil
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order.Status == model.OrderStatusCompleted {
			return fmt.Errorf("%w: order %s", ErrAlreadyPaid, orderID)
		}

		// Recompute profit from the stored line items against the live
		// product cost. The snapshots pin selling_price; actual_price may
		// have drifted since the order was created.
		items, err := s.orderRepo.ListItems(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		total := decimal.Zero
		profit := decimal.Zero
		for _, item := range items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			total = total.Add(item.SellingPrice.Mul(qty))
			product, err := s.productRepo.FindByID(txCtx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("failed to load product: %w", err)
			}
			profit = profit.Add(item.SellingPrice.Sub(product.ActualPrice).Mul(qty))
		}

		primary, err := s.txRepo.FindPrimaryByOrderID(txCtx, id)
		switch {
		case err == nil:
			primary.TotalPrice = total
			primary.Profit = profit
			primary.PaymentMode = model.PaymentModeOnline
			if err := s.txRepo.Save(txCtx, primary); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			tx := model.Transaction{
				OrderID:         id,
				TransactionType: model.TxTypeSale,
				TotalPrice:      total,
				Profit:          profit,
				PaymentMode:     model.PaymentModeOnline,
			}
			if err := s.txRepo.Create(txCtx, &tx); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}
		default:
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		return s.orderRepo.UpdateStatus(txCtx, id, model.OrderStatusCompleted)
	})
	if err != nil {
		return err
	}

	s.logger.Info("gateway payment confirmed", zap.String("order_id", orderID))
	return nil
}

func (s *transactionService) List(ctx context.Context, role string, limit int) (*TransactionReport, error) {
	if limit <= 0 {
		limit = 20
	}

	txs, err := s.txRepo.ListLatest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	report := &TransactionReport{Transactions: make([]TransactionResponse, 0, len(txs))}
	for _, tx := range txs {
		res := TransactionResponse{
			ID:              tx.ID,
			OrderID:         tx.OrderID,
			TransactionType: tx.TransactionType,
			TotalPrice:      tx.TotalPrice,
			Profit:          tx.Profit,
			PaymentMode:     tx.PaymentMode,
			CouponCode:      tx.CouponCode,
			Discount:        tx.Discount,
			TransactionDate: tx.TransactionDate.Format("2006-01-02T15:04:05Z07:00"),
		}
		if tx.Order != nil {
			res.OrderStatus = tx.Order.Status
			if tx.Order.User != nil {
				res.UserName = tx.Order.User.Name
			}
		}
		report.Transactions = append(report.Transactions, res)
	}

	// Cash-position rollups are admin-only.
	if role != model.RoleAdmin {
		return report, nil
	}

	totalCash, err := s.netByMode(ctx, model.PaymentModeCash)
	if err != nil {
		return nil, err
	}
	totalOnline, err := s.netByMode(ctx, model.PaymentModeOnline)
	if err != nil {
		return nil, err
	}
	profit, err := s.txRepo.SumProfit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum profit: %w", err)
	}

	income := totalCash.Add(totalOnline)
	report.TotalCash = &totalCash
	report.TotalOnline = &totalOnline
	report.TotalIncome = &income
	report.Profit = &profit
	return report, nil
}

// netByMode nets sale income against purchase and personal outflow for one
// payment mode. Refund rows carry no profit and are not part of income.
func (s *transactionService) netByMode(ctx context.Context, mode string) (decimal.Decimal, error) {
	sales, err := s.txRepo.SumByTypeAndMode(ctx, model.TxTypeSale, mode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	purchases, err := s.txRepo.SumByTypeAndMode(ctx, model.TxTypePurchase, mode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum purchases: %w", err)
	}
	personal, err := s.txRepo.SumByTypeAndMode(ctx, model.TxTypePersonal, mode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum personal movements: %w", err)
	}
	return sales.Sub(purchases).Sub(personal), nil
}
