package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every recognised status in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

// transitions is the strict lifecycle graph. It is only enforced when the
// store runs with strict transitions enabled.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed under the
// strict graph.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks the strict lifecycle graph.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"userId,omitempty"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerPhone   string          `gorm:"type:varchar(50)" json:"customerPhone"`
	CustomerCountry string          `gorm:"type:varchar(100);not null;index" json:"customerCountry"`
	PickupDetails   string          `gorm:"type:text;not null" json:"pickupDetails"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`

	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"orderItems"`
}

// LinesTotal sums quantity x captured price over the order lines.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// OrderLine captures the unit price at order time; it never follows later
// product price changes.
type OrderLine struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
