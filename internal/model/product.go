package model

import "github.com/shopspring/decimal"

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "/images/default-cigarette.jpg"

// LowStockThreshold marks products that need restocking on the dashboard.
const LowStockThreshold = 10

type Product struct {
	BaseModel
	Name            string              `gorm:"type:varchar(255);not null" json:"name"`
	Brand           string              `gorm:"type:varchar(255);not null;index" json:"brand"`
	Description     string              `gorm:"type:text" json:"description"`
	Price           decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	ImageURL        string              `gorm:"type:varchar(512)" json:"imageUrl"`
	TarContent      decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"tarContent"`
	NicotineContent decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"nicotineContent"`

	// Quantity is the on-hand stock. It only moves through the order
	// placement transaction (guarded decrement) or an admin absolute set.
	Quantity int `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
}

// InStock reports whether n units can be sold right now.
func (p *Product) InStock(n int) bool {
	return n > 0 && p.Quantity >= n
}
