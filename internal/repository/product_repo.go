package repository

import (
	"context"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error

	// The methods below take a *gorm.DB (tx) so they can run inside a transaction.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	SetQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error
	DecrementStock(tx *gorm.DB, id uuid.UUID, quantity int) (bool, error)
	IncrementStock(tx *gorm.DB, id uuid.UUID, quantity int) error
	QuantityOf(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("brand ASC, name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete is a soft delete: order lines keep referencing the row.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

// LockByID reads the product with a row lock (FOR UPDATE) for the rest of tx.
func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateFields writes only the given columns, so a concurrent stock
// decrement is never overwritten by a stale read.
func (r *productRepo) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	res := tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SetQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error {
	res := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts quantity only if enough stock remains. The
// condition and the write are one statement, so two concurrent orders can
// never both take the last units. It reports false when the guard failed.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, quantity int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) IncrementStock(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
}

// QuantityOf re-reads a product inside tx, including soft-deleted rows.
func (r *productRepo) QuantityOf(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Unscoped().Select("id", "name", "quantity", "deleted_at").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
