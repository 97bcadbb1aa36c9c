package repository

import (
	"context"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	FindAll(ctx context.Context) ([]model.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// The methods below take a *gorm.DB (tx) so they can run inside a transaction.
	Create(tx *gorm.DB, order *model.Order) error
	Load(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, updatedBy string) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

// withLines joins line items and their products. Products are loaded
// unscoped so lines of a since-deleted product still show what was sold.
func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lines.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (r *orderRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := withLines(r.db.WithContext(ctx)).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.Load(r.db.WithContext(ctx), id)
}

// Create inserts the order and then each line with OrderID set.
func (r *orderRepo) Create(tx *gorm.DB, order *model.Order) error {
	if err := tx.Omit("Lines").Create(order).Error; err != nil {
		return err
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		order.Lines[i].CreatedBy = order.CreatedBy
		order.Lines[i].UpdatedBy = order.UpdatedBy
		if err := tx.Omit("Product").Create(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) Load(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := withLines(tx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	return tx.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}
