package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-storefront/internal/apperror"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/cache"
	"go-storefront/pkg/metrics"
	"go-storefront/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, updatedBy string) (*model.Order, error)
}

type PlaceOrderRequest struct {
	CustomerName    string             `json:"customerName" validate:"required"`
	CustomerPhone   string             `json:"customerPhone"`
	CustomerCountry string             `json:"customerCountry" validate:"required"`
	PickupDetails   string             `json:"pickupDetails" validate:"required"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total           decimal.Decimal    `json:"total" validate:"gt=0"`

	// UserID is the signed-in account placing the order, if any.
	UserID *uuid.UUID `json:"-"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"productId" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
}

// ItemsTotal is Σ quantity × price over the requested items.
func (r *PlaceOrderRequest) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (r *PlaceOrderRequest) normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.CustomerCountry = strings.TrimSpace(r.CustomerCountry)
	r.PickupDetails = strings.TrimSpace(r.PickupDetails)
}

// OrderOptions are the admin status-update policies.
type OrderOptions struct {
	StrictTransitions bool
	RestockOnCancel   bool
}

type orderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	analyticsRepo repository.AnalyticsRepository
	cache         cache.Cache
	notifier      Notifier
	opts          OrderOptions
	log           *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	oRepo repository.OrderRepository,
	pRepo repository.ProductRepository,
	aRepo repository.AnalyticsRepository,
	c cache.Cache,
	notifier Notifier,
	opts OrderOptions,
	log *zap.Logger,
) OrderService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		db:            db,
		orderRepo:     oRepo,
		productRepo:   pRepo,
		analyticsRepo: aRepo,
		cache:         c,
		notifier:      notifier,
		opts:          opts,
		log:           log.Named("orders"),
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*model.Order, error) {
	order, err := s.placeOrder(ctx, req)
	if err != nil {
		metrics.OrderRejections.WithLabelValues(apperror.KindOf(err).String()).Inc()
		if apperror.KindOf(err) == apperror.KindInternal {
			s.log.Error("place order", zap.Error(err))
		}
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	s.log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("country", order.CustomerCountry),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", order.ItemCount()),
	)

	// Stock changed, so the cached catalog is stale.
	if err := s.cache.Del(ctx, CatalogCacheKey); err != nil {
		s.log.Warn("invalidate catalog cache", zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(order)
	}
	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, req *PlaceOrderRequest) (*model.Order, error) {
	// 1. Validate input
	req.normalize()
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("%s", validator.Describe(errs))
	}
	if !wholeCents(req.Total) {
		return nil, apperror.Validation("total must have at most 2 decimal places")
	}
	for i, it := range req.Items {
		if !wholeCents(it.Price) {
			return nil, apperror.Validation("items[%d].price must have at most 2 decimal places", i)
		}
	}
	itemsTotal := req.ItemsTotal()
	if !req.Total.Equal(itemsTotal) {
		return nil, apperror.Validation("Order total %s does not match items total %s",
			req.Total.StringFixed(2), itemsTotal.StringFixed(2))
	}

	// 2. Check stock, merging repeated products
	ids, requested := mergeItems(req.Items)
	if err := s.checkStock(ctx, ids, requested); err != nil {
		return nil, err
	}

	// 3. Commit order, lines, decrements and analytics atomically
	order := &model.Order{
		UserID:          req.UserID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerCountry: req.CustomerCountry,
		PickupDetails:   req.PickupDetails,
		Total:           itemsTotal,
		Status:          model.StatusPending,
	}
	if req.UserID != nil {
		order.CreatedBy = req.UserID.String()
		order.UpdatedBy = order.CreatedBy
	}
	for _, it := range req.Items {
		order.Lines = append(order.Lines, model.OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	var placed *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(tx, order); err != nil {
			return err
		}

		for _, line := range order.Lines {
			ok, err := s.productRepo.DecrementStock(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return s.stockFailure(tx, line)
			}
		}

		if err := s.analyticsRepo.Record(tx, orderAnalytics(order), productAnalytics(order)); err != nil {
			return err
		}

		loaded, err := s.orderRepo.Load(tx, order.ID)
		if err != nil {
			return err
		}
		placed = loaded
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "Failed to place order")
	}
	return placed, nil
}

// wholeCents reports whether d fits a decimal(12,2) column without rounding.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// checkStock is the fast pre-check. The guarded decrement inside the
// transaction is what actually prevents overselling.
func (s *orderService) checkStock(ctx context.Context, ids []uuid.UUID, requested map[uuid.UUID]int) error {
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return apperror.Internal(err, "Failed to check stock")
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return apperror.NotFound("Product not found: %s", id)
		}
		if !p.InStock(requested[id]) {
			return apperror.Stock(p.ID, p.Name, p.Quantity, requested[id])
		}
	}
	return nil
}

// stockFailure explains why a guarded decrement matched no row.
func (s *orderService) stockFailure(tx *gorm.DB, line model.OrderLine) error {
	current, err := s.productRepo.QuantityOf(tx, line.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Product not found: %s", line.ProductID)
	}
	if err != nil {
		return err
	}
	if current.DeletedAt.Valid {
		return apperror.NotFound("Product not found: %s", line.ProductID)
	}
	return apperror.Stock(current.ID, current.Name, current.Quantity, line.Quantity)
}

// mergeItems sums quantities per product, keeping first-seen order.
func mergeItems(items []OrderItemRequest) ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(items))
	requested := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if _, seen := requested[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}
	return ids, requested
}

func orderAnalytics(order *model.Order) *model.OrderAnalytics {
	return &model.OrderAnalytics{
		OrderID:      order.ID,
		Country:      order.CustomerCountry,
		OrderDate:    order.CreatedAt,
		TotalAmount:  order.Total,
		ProductCount: order.ItemCount(),
	}
}

// productAnalytics writes one row per order line.
func productAnalytics(order *model.Order) []model.ProductAnalytics {
	rows := make([]model.ProductAnalytics, 0, len(order.Lines))
	for _, l := range order.Lines {
		rows = append(rows, model.ProductAnalytics{
			ProductID: l.ProductID,
			OrderID:   order.ID,
			Country:   order.CustomerCountry,
			Quantity:  l.Quantity,
			OrderDate: order.CreatedAt,
		})
	}
	return rows
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch orders")
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, updatedBy string) (*model.Order, error) {
	status = model.OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, apperror.Validation("Invalid status: %q", string(status))
	}

	var (
		updated  *model.Order
		previous model.OrderStatus
		restock  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockByID(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Order not found")
		}
		if err != nil {
			return err
		}
		previous = order.Status

		if s.opts.StrictTransitions && order.Status != status && !order.Status.CanTransitionTo(status) {
			return apperror.Validation("Cannot change order status from %s to %s", order.Status, status)
		}

		if err := s.orderRepo.UpdateStatus(tx, id, status, updatedBy); err != nil {
			return err
		}

		// Entering CANCELLED hands the reserved units back. Analytics rows stay.
		if s.opts.RestockOnCancel && status == model.StatusCancelled && order.Status != model.StatusCancelled {
			for _, line := range order.Lines {
				if err := s.productRepo.IncrementStock(tx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
			restock = len(order.Lines) > 0
		}

		updated, err = s.orderRepo.Load(tx, id)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "Failed to update order status")
	}

	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	s.log.Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("by", updatedBy),
	)
	if restock {
		if err := s.cache.Del(ctx, CatalogCacheKey); err != nil {
			s.log.Warn("invalidate catalog cache", zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Broadcast(Event{
			Type:    EventOrderStatusUpdated,
			Action:  "status_updated",
			Message: fmt.Sprintf("Order %s moved from %s to %s", id, previous, status),
			Data:    updated,
			Actor:   updatedBy,
		})
	}
	return updated, nil
}
