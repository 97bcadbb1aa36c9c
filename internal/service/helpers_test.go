package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"go-storefront/internal/dbtest"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	placed []*model.Order
	events []Event
}

func (n *recordingNotifier) OrderPlaced(order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order)
}

func (n *recordingNotifier) Broadcast(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) placedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.placed)
}

func (n *recordingNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		out = append(out, e.Type+"/"+e.Action)
	}
	return out
}

// memCache is an in-process cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fakeStore struct {
	key         string
	contentType string
	body        []byte
}

func (s *fakeStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.body = key, contentType, b
	return "https://cdn.example.com/" + key, nil
}

type env struct {
	db        *gorm.DB
	products  repository.ProductRepository
	orders    repository.OrderRepository
	analytics repository.AnalyticsRepository
	users     repository.UserRepository
	notifier  *recordingNotifier
	cache     *memCache
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.NewDB(t)
	return &env{
		db:        db,
		products:  repository.NewProductRepo(db),
		orders:    repository.NewOrderRepo(db),
		analytics: repository.NewAnalyticsRepo(db),
		users:     repository.NewUserRepo(db),
		notifier:  &recordingNotifier{},
		cache:     newMemCache(),
	}
}

func (e *env) orderService(opts OrderOptions) OrderService {
	return NewOrderService(e.db, e.orders, e.products, e.analytics, e.cache, e.notifier, opts, nil)
}

func (e *env) productService() ProductService {
	return NewProductService(e.db, e.products, e.cache, time.Minute, nil, e.notifier, nil)
}

func (e *env) addProduct(t *testing.T, name string, price string, quantity int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:     name,
		Brand:    "Test",
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *env) stockOf(t *testing.T, p *model.Product) int {
	t.Helper()
	var q int
	require.NoError(t, e.db.Unscoped().Model(&model.Product{}).Select("quantity").Where("id = ?", p.ID).Row().Scan(&q))
	return q
}

func (e *env) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func orderFor(items ...OrderItemRequest) *PlaceOrderRequest {
	req := &PlaceOrderRequest{
		CustomerName:    "Jane Doe",
		CustomerPhone:   "+1 555 0100",
		CustomerCountry: "Indonesia",
		PickupDetails:   "Front desk, 5pm",
		Items:           items,
	}
	req.Total = req.ItemsTotal()
	return req
}

func item(p *model.Product, quantity int, price string) OrderItemRequest {
	return OrderItemRequest{ProductID: p.ID, Quantity: quantity, Price: decimal.RequireFromString(price)}
}
