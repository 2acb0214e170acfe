package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
)

// orderTransitions enumerates every legal status change. Anything not
// listed here is rejected with an invalid-state error instead of silently
// proceeding. completed → pending exists only for the refund rollback path.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusCanceled},
	OrderStatusCompleted: {OrderStatusPending},
	OrderStatusCanceled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents one commercial transaction. It exclusively owns its
// line items; the paired ledger Transaction is created and deleted with it.
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending'" json:"order_status"`
	OrderDate  time.Time       `gorm:"autoCreateTime" json:"order_date"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one product+quantity line belonging to an order.
// SellingPrice is snapshotted from the product at order-creation time and
// never recomputed afterwards.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product      Product         `gorm:"foreignKey:ProductID" json:"-"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"selling_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
