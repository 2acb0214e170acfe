package repository

import (
	"context"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	Save(ctx context.Context, coupon *model.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	// FindActiveByCode returns the coupon only when it exists and is active.
	FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	return GetDB(ctx, r.db).Create(coupon).Error
}

func (r *couponRepository) Save(ctx context.Context, coupon *model.Coupon) error {
	return GetDB(ctx, r.db).Save(coupon).Error
}

func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).
		Where("code = ? AND is_active = ?", code, true).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := GetDB(ctx, r.db).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}
