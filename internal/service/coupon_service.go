package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type CreateCouponRequest struct {
	Code          string          `json:"code" binding:"required"`
	DiscountType  string          `json:"discount_type" binding:"required,oneof=fixed percentage"`
	DiscountValue decimal.Decimal `json:"discount_value" binding:"required"`
}

// CouponEvaluation is the outcome of applying a coupon to a subtotal.
type CouponEvaluation struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}

type CouponService interface {
	// Evaluate computes the discount a coupon yields on a subtotal. The
	// discount never exceeds the subtotal and the new total never goes
	// negative.
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (CouponEvaluation, error)
	CreateCoupon(ctx context.Context, req CreateCouponRequest) (*model.Coupon, error)
	ListCoupons(ctx context.Context) ([]model.Coupon, error)
	SetActive(ctx context.Context, code string, active bool) error
}

type couponService struct {
	couponRepo repository.CouponRepository
	logger     *zap.Logger
}

func NewCouponService(couponRepo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponService{couponRepo: couponRepo, logger: logger}
}

func (s *couponService) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (CouponEvaluation, error) {
	coupon, err := s.couponRepo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CouponEvaluation{}, fmt.Errorf("%w: %s", ErrInvalidCoupon, code)
		}
		return CouponEvaluation{}, fmt.Errorf("failed to look up coupon: %w", err)
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountTypeFixed:
		discount = coupon.DiscountValue
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	case model.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100))
	default:
		return CouponEvaluation{}, fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, coupon.DiscountType)
	}

	newTotal := subtotal.Sub(discount)
	if newTotal.IsNegative() {
		newTotal = decimal.Zero
	}

	return CouponEvaluation{Code: coupon.Code, Discount: discount, NewTotal: newTotal}, nil
}

func (s *couponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*model.Coupon, error) {
	if req.DiscountValue.IsNegative() || req.DiscountValue.IsZero() {
		return nil, fmt.Errorf("%w: discount_value must be positive", ErrValidation)
	}

	coupon := &model.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		IsActive:      true,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info("coupon created",
		zap.String("code", coupon.Code),
		zap.String("discount_type", coupon.DiscountType))
	return coupon, nil
}

func (s *couponService) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	return s.couponRepo.List(ctx)
}

func (s *couponService) SetActive(ctx context.Context, code string, active bool) error {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: coupon %s", ErrNotFound, code)
		}
		return fmt.Errorf("failed to look up coupon: %w", err)
	}

	coupon.IsActive = active
	if err := s.couponRepo.Save(ctx, coupon); err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}
