package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item with its running stock counter.
// ActualPrice is the blended unit cost, SellingPrice the list price.
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null;index:idx_products_name_company" json:"name"`
	Company         string          `gorm:"type:varchar(255);not null;index:idx_products_name_company" json:"company"`
	Category        string          `gorm:"type:varchar(100)" json:"category"`
	StockQuantity   int             `gorm:"type:int;default:0;not null" json:"stock_quantity"`
	ActualPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"actual_price"`
	SellingPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"selling_price"`
	TimeForDelivery string          `gorm:"type:varchar(100)" json:"time_for_delivery"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate assigns the UUID client-side so the same model works on
// Postgres and SQLite.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BlendCost returns the weighted-average unit cost after restocking
// existingQty units held at existingCost with incomingQty units bought at
// incomingCost. Cost reflects a moving average, not the last purchase price.
func BlendCost(existingQty int, existingCost decimal.Decimal, incomingQty int, incomingCost decimal.Decimal) decimal.Decimal {
	totalQty := existingQty + incomingQty
	if totalQty == 0 {
		return decimal.Zero
	}
	held := existingCost.Mul(decimal.NewFromInt(int64(existingQty)))
	bought := incomingCost.Mul(decimal.NewFromInt(int64(incomingQty)))
	return held.Add(bought).Div(decimal.NewFromInt(int64(totalQty)))
}
