package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderAnalytics is the per-order reporting rollup. Rows are written once in
// the placement transaction and never updated, not even on cancellation.
type OrderAnalytics struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"orderId"`
	Country      string          `gorm:"type:varchar(100);not null;index" json:"country"`
	OrderDate    time.Time       `gorm:"not null;index" json:"orderDate"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	ProductCount int             `gorm:"not null" json:"productCount"`
}

func (OrderAnalytics) TableName() string {
	return "order_analytics"
}

// ProductAnalytics holds one row per (product, order) line.
type ProductAnalytics struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"productId"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"orderId"`
	Country   string    `gorm:"type:varchar(100);not null;index" json:"country"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	OrderDate time.Time `gorm:"not null;index" json:"orderDate"`
}

func (ProductAnalytics) TableName() string {
	return "product_analytics"
}
