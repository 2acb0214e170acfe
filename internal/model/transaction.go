package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType constants
const (
	TxTypeSale     = "sale"
	TxTypePurchase = "purchase"
	TxTypePersonal = "personal"
	TxTypeRefund   = "refund"
)

// PaymentMode constants
const (
	PaymentModeCash   = "cash"
	PaymentModeOnline = "online"
)

// Transaction is the financial ledger row paired 1:1 with an order.
// Exactly one non-refund transaction exists per order; a refund row, if
// present, is unique per order and marks the order as reversed.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order           *Order          `gorm:"foreignKey:OrderID" json:"-"`
	TransactionType string          `gorm:"type:varchar(20);not null;index" json:"transaction_type"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Profit          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"profit"`
	PaymentMode     string          `gorm:"type:varchar(20);not null" json:"payment_mode"`
	CouponCode      *string         `gorm:"type:varchar(100)" json:"coupon_code"`
	Discount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	TransactionDate time.Time       `gorm:"autoCreateTime" json:"transaction_date"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
