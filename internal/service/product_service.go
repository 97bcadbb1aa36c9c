package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go-storefront/internal/apperror"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/cache"
	"go-storefront/pkg/storage"
	"go-storefront/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogCacheKey holds the public product list.
const CatalogCacheKey = "catalog:products"

// MaxImageSize bounds product image uploads.
const MaxImageSize = 5 << 20

type ProductService interface {
	Create(ctx context.Context, req *CreateProductRequest, actor string) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.Product, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int, actor string) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	UploadImage(ctx context.Context, contentType string, body io.Reader, size int64) (string, error)
}

type CreateProductRequest struct {
	Name            string              `json:"name" validate:"required"`
	Brand           string              `json:"brand" validate:"required"`
	Description     string              `json:"description"`
	Price           decimal.Decimal     `json:"price" validate:"gt=0"`
	ImageURL        string              `json:"imageUrl"`
	TarContent      decimal.NullDecimal `json:"tarContent"`
	NicotineContent decimal.NullDecimal `json:"nicotineContent"`
	Quantity        int                 `json:"quantity" validate:"gte=0"`
	// InitialStock is accepted as an alias of quantity.
	InitialStock *int `json:"initialStock,omitempty" validate:"omitempty,gte=0"`
}

// OptionalDecimal records whether a nullable decimal was present in the
// body. An explicit null clears the stored value.
type OptionalDecimal struct {
	Set   bool
	Value decimal.NullDecimal
}

func (o *OptionalDecimal) UnmarshalJSON(b []byte) error {
	o.Set = true
	return o.Value.UnmarshalJSON(b)
}

// UpdateProductRequest is a partial update: absent fields are left untouched.
type UpdateProductRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=1"`
	Brand           *string          `json:"brand" validate:"omitempty,min=1"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	ImageURL        *string          `json:"imageUrl"`
	TarContent      OptionalDecimal  `json:"tarContent"`
	NicotineContent OptionalDecimal  `json:"nicotineContent"`
	Quantity        *int             `json:"quantity" validate:"omitempty,gte=0"`
}

// fields maps the supplied values to their columns.
func (r *UpdateProductRequest) fields() map[string]interface{} {
	f := map[string]interface{}{}
	if r.Name != nil {
		f["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Brand != nil {
		f["brand"] = strings.TrimSpace(*r.Brand)
	}
	if r.Description != nil {
		f["description"] = *r.Description
	}
	if r.Price != nil {
		f["price"] = *r.Price
	}
	if r.ImageURL != nil {
		f["image_url"] = strings.TrimSpace(*r.ImageURL)
	}
	if r.TarContent.Set {
		f["tar_content"] = r.TarContent.Value
	}
	if r.NicotineContent.Set {
		f["nicotine_content"] = r.NicotineContent.Value
	}
	if r.Quantity != nil {
		f["quantity"] = *r.Quantity
	}
	return f
}

type productService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	images      storage.ObjectStore
	notifier    Notifier
	log         *zap.Logger
}

func NewProductService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	images storage.ObjectStore,
	notifier Notifier,
	log *zap.Logger,
) ProductService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &productService{
		db:          db,
		productRepo: pRepo,
		cache:       c,
		cacheTTL:    cacheTTL,
		images:      images,
		notifier:    notifier,
		log:         log.Named("products"),
	}
}

func (s *productService) Create(ctx context.Context, req *CreateProductRequest, actor string) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Brand = strings.TrimSpace(req.Brand)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("%s", validator.Describe(errs))
	}

	product := &model.Product{
		Name:            req.Name,
		Brand:           req.Brand,
		Description:     req.Description,
		Price:           req.Price,
		ImageURL:        strings.TrimSpace(req.ImageURL),
		TarContent:      req.TarContent,
		NicotineContent: req.NicotineContent,
		Quantity:        req.Quantity,
	}
	if product.Quantity == 0 && req.InitialStock != nil {
		product.Quantity = *req.InitialStock
	}
	if product.ImageURL == "" {
		product.ImageURL = model.DefaultProductImage
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperror.Internal(err, "Failed to create product")
	}

	s.changed(ctx, "product_created", product, -1, actor)
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("%s", validator.Describe(errs))
	}

	var (
		updated  *model.Product
		oldStock int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Product not found")
		}
		if err != nil {
			return err
		}
		oldStock = existing.Quantity

		fields := req.fields()
		name, brand := existing.Name, existing.Brand
		if v, ok := fields["name"]; ok {
			name = v.(string)
		}
		if v, ok := fields["brand"]; ok {
			brand = v.(string)
		}
		if name == "" || brand == "" {
			return apperror.Validation("Name and brand cannot be empty")
		}
		fields["updated_by"] = actor

		if err := s.productRepo.UpdateFields(tx, id, fields); err != nil {
			return err
		}
		updated, err = s.productRepo.LockByID(tx, id)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "Failed to update product")
	}

	s.changed(ctx, "product_updated", updated, oldStock, actor)
	return updated, nil
}

// SetQuantity replaces the on-hand stock with an absolute value.
func (s *productService) SetQuantity(ctx context.Context, id uuid.UUID, quantity int, actor string) (*model.Product, error) {
	if quantity < 0 {
		return nil, apperror.Validation("Quantity must be zero or greater")
	}

	var (
		product  *model.Product
		oldStock int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Product not found")
		}
		if err != nil {
			return err
		}
		oldStock = existing.Quantity

		if err := s.productRepo.SetQuantity(tx, id, quantity, actor); err != nil {
			return err
		}
		existing.Quantity = quantity
		existing.UpdatedBy = actor
		product = existing
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "Failed to update quantity")
	}

	s.changed(ctx, "quantity_updated", product, oldStock, actor)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	err := s.productRepo.Delete(ctx, id, actor)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Product not found")
	}
	if err != nil {
		return apperror.Internal(err, "Failed to delete product")
	}

	s.changed(ctx, "product_deleted", &model.Product{BaseModel: model.BaseModel{ID: id}}, -1, actor)
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch product")
	}
	return product, nil
}

// List serves the catalog through the cache.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if s.cache.Get(ctx, CatalogCacheKey, &products) {
		return products, nil
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch products")
	}
	if err := s.cache.Set(ctx, CatalogCacheKey, products, s.cacheTTL); err != nil {
		s.log.Warn("cache catalog", zap.Error(err))
	}
	return products, nil
}

// UploadImage stores a product image and returns its public URL.
func (s *productService) UploadImage(ctx context.Context, contentType string, body io.Reader, size int64) (string, error) {
	if s.images == nil {
		return "", apperror.Unavailable("Image storage is not configured")
	}
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		return "", apperror.Validation("Unsupported image type %q", contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return "", apperror.Validation("Image must be between 1 byte and %d MB", MaxImageSize>>20)
	}

	url, err := s.images.Put(ctx, storage.ProductImageKey(ext), contentType, body, size)
	if err != nil {
		return "", apperror.Internal(err, "Failed to upload image")
	}
	return url, nil
}

// changed drops the cached catalog and tells the dashboard. oldStock < 0
// means the stock delta is not part of the event.
func (s *productService) changed(ctx context.Context, action string, p *model.Product, oldStock int, actor string) {
	if err := s.cache.Del(ctx, CatalogCacheKey); err != nil {
		s.log.Warn("invalidate catalog cache", zap.Error(err))
	}
	s.log.Info("product changed",
		zap.String("action", action),
		zap.String("product_id", p.ID.String()),
		zap.String("by", actor),
	)
	if s.notifier == nil {
		return
	}

	data := map[string]interface{}{
		"id":       p.ID,
		"name":     p.Name,
		"brand":    p.Brand,
		"quantity": p.Quantity,
		"price":    p.Price,
	}
	message := fmt.Sprintf("%s: %s", action, p.Name)
	if oldStock >= 0 {
		data["oldQuantity"] = oldStock
		message = fmt.Sprintf("%s: %s stock %d -> %d", action, p.Name, oldStock, p.Quantity)
	}
	s.notifier.Broadcast(Event{
		Type:    EventStockUpdate,
		Action:  action,
		Message: message,
		Data:    data,
		Actor:   actor,
	})
}

// asAppError passes typed errors through and wraps anything else.
func asAppError(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Internal(err, message)
}
