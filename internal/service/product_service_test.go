package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go-storefront/internal/apperror"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProductCreate(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()

	p, err := svc.Create(context.Background(), &CreateProductRequest{
		Name:  " Marlboro Gold ",
		Brand: "Marlboro",
		Price: decimal.RequireFromString("57.50"),
	}, "admin-1")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Marlboro Gold", p.Name)
	assert.Equal(t, model.DefaultProductImage, p.ImageURL)
	assert.Zero(t, p.Quantity)
	assert.Equal(t, "admin-1", p.CreatedBy)
	assert.Contains(t, e.notifier.eventTypes(), EventStockUpdate+"/product_created")

	stocked, err := svc.Create(context.Background(), &CreateProductRequest{
		Name: "Sampoerna", Brand: "Sampoerna", Price: decimal.NewFromInt(40), InitialStock: intPtr(12),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 12, stocked.Quantity)
}

func TestProductCreate_Validation(t *testing.T) {
	svc := newEnv(t).productService()

	cases := map[string]*CreateProductRequest{
		"name":     {Brand: "B", Price: decimal.NewFromInt(1)},
		"brand":    {Name: "N", Price: decimal.NewFromInt(1)},
		"price":    {Name: "N", Brand: "B"},
		"quantity": {Name: "N", Brand: "B", Price: decimal.NewFromInt(1), Quantity: -1},
	}
	for field, req := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req, "admin")
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestProductUpdate_Partial(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()
	p := e.addProduct(t, "Marlboro Red", "55", 10)

	desc := "Full flavour"
	updated, err := svc.Update(context.Background(), p.ID, &UpdateProductRequest{Description: &desc}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Marlboro Red", updated.Name)
	assert.Equal(t, "Full flavour", updated.Description)
	assert.Equal(t, 10, updated.Quantity)
	assert.Equal(t, "55.00", updated.Price.StringFixed(2))

	_, err = svc.Update(context.Background(), p.ID, &UpdateProductRequest{Quantity: intPtr(-1)}, "admin")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.Update(context.Background(), p.ID, &UpdateProductRequest{Price: decimalPtr("0")}, "admin")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.Update(context.Background(), uuid.New(), &UpdateProductRequest{Description: &desc}, "admin")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestProductUpdate_ClearsNullableContent(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()
	p := e.addProduct(t, "Marlboro Red", "55", 10)

	var req UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"tarContent": 10.5, "nicotineContent": 0.8}`), &req))
	updated, err := svc.Update(context.Background(), p.ID, &req, "admin")
	require.NoError(t, err)
	require.True(t, updated.TarContent.Valid)
	assert.Equal(t, "10.50", updated.TarContent.Decimal.StringFixed(2))

	req = UpdateProductRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"tarContent": null}`), &req))
	assert.True(t, req.TarContent.Set)
	assert.False(t, req.NicotineContent.Set)
	updated, err = svc.Update(context.Background(), p.ID, &req, "admin")
	require.NoError(t, err)
	assert.False(t, updated.TarContent.Valid)
	assert.True(t, updated.NicotineContent.Valid)
}

// sellDuringUpdate takes stock between the update's read and its write.
type sellDuringUpdate struct {
	repository.ProductRepository
	sold int
}

func (s sellDuringUpdate) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if _, err := s.ProductRepository.DecrementStock(tx, id, s.sold); err != nil {
		return err
	}
	return s.ProductRepository.UpdateFields(tx, id, fields)
}

func TestProductUpdate_KeepsConcurrentStockChange(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "Marlboro Red", "55", 10)
	svc := NewProductService(e.db, sellDuringUpdate{e.products, 3}, e.cache, time.Minute, nil, e.notifier, nil)

	desc := "Full flavour"
	updated, err := svc.Update(context.Background(), p.ID, &UpdateProductRequest{Description: &desc}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, 7, e.stockOf(t, p))
	assert.Equal(t, "Full flavour", updated.Description)
}

func TestProductSetQuantity(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()
	p := e.addProduct(t, "Marlboro Red", "55", 10)

	updated, err := svc.SetQuantity(context.Background(), p.ID, 0, "admin")
	require.NoError(t, err)
	assert.Zero(t, updated.Quantity)
	assert.Zero(t, e.stockOf(t, p))

	_, err = svc.SetQuantity(context.Background(), p.ID, -5, "admin")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Zero(t, e.stockOf(t, p))

	_, err = svc.SetQuantity(context.Background(), uuid.New(), 3, "admin")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	e.notifier.mu.Lock()
	last := e.notifier.events[len(e.notifier.events)-1]
	e.notifier.mu.Unlock()
	assert.Equal(t, "quantity_updated", last.Action)
	assert.Contains(t, last.Message, "10 -> 0")
}

func TestProductDelete_Soft(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()
	p := e.addProduct(t, "Marlboro Red", "55", 10)

	require.NoError(t, svc.Delete(context.Background(), p.ID, "admin"))

	_, err := svc.Get(context.Background(), p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(svc.Delete(context.Background(), p.ID, "admin"), apperror.KindNotFound))

	var raw model.Product
	require.NoError(t, e.db.Unscoped().First(&raw, "id = ?", p.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)
	assert.Equal(t, "admin", raw.DeletedBy)
}

func TestProductList_Cached(t *testing.T) {
	e := newEnv(t)
	svc := e.productService()
	e.addProduct(t, "Marlboro Red", "55", 10)

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.True(t, e.cache.has(CatalogCacheKey))

	// A direct insert bypasses invalidation, so the cached list is served.
	e.addProduct(t, "Double Happiness", "55", 5)
	products, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, "55.00", products[0].Price.StringFixed(2))

	_, err = svc.Create(context.Background(), &CreateProductRequest{Name: "Gudang Garam", Brand: "GG", Price: decimal.NewFromInt(30)}, "admin")
	require.NoError(t, err)
	products, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestProductUploadImage(t *testing.T) {
	e := newEnv(t)

	_, err := e.productService().UploadImage(context.Background(), "image/png", strings.NewReader("x"), 1)
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))

	store := &fakeStore{}
	svc := NewProductService(e.db, e.products, e.cache, time.Minute, store, nil, nil)

	url, err := svc.UploadImage(context.Background(), "image/png", bytes.NewReader([]byte("png")), 3)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.key, "products/"))
	assert.True(t, strings.HasSuffix(store.key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+store.key, url)
	assert.Equal(t, []byte("png"), store.body)

	_, err = svc.UploadImage(context.Background(), "application/pdf", strings.NewReader("x"), 1)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.UploadImage(context.Background(), "image/png", strings.NewReader("x"), MaxImageSize+1)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func intPtr(v int) *int {
	return &v
}
