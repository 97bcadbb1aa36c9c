package repository

import (
	"go-storefront/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or alters the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderLine{},
		&model.OrderAnalytics{},
		&model.ProductAnalytics{},
	)
}
