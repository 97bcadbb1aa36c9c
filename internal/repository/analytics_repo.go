package repository

import (
	"context"
	"time"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AnalyticsRepository interface {
	// Record writes the rollup rows for one order; tx is the placement transaction.
	Record(tx *gorm.DB, order *model.OrderAnalytics, lines []model.ProductAnalytics) error
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetDailySales(ctx context.Context, startDate, endDate time.Time) ([]DailySalesData, error)
	GetCountryStats(ctx context.Context) ([]CountryStats, error)
	GetTopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	GetRevenueSummary(ctx context.Context, startDate, endDate time.Time) (*RevenueSummary, error)
}

// DailySalesData is one point of the units-sold chart.
type DailySalesData struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
}

// DashboardStats is the overview card set.
type DashboardStats struct {
	TotalProducts  int64           `json:"totalProducts"`
	LowStockCount  int64           `json:"lowStockCount"`
	OutOfStock     int64           `json:"outOfStock"`
	TotalValuation decimal.Decimal `json:"totalValuation"`
	TotalOrders    int64           `json:"totalOrders"`
	PendingOrders  int64           `json:"pendingOrders"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type CountryStats struct {
	Country string          `json:"country"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductSales struct {
	ProductID uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Sales     int64     `json:"sales"`
}

type RevenueSummary struct {
	Orders       int64           `json:"orders"`
	Units        int64           `json:"units"`
	Revenue      decimal.Decimal `json:"revenue"`
	AverageOrder decimal.Decimal `json:"averageOrderValue"`
}

type analyticsRepo struct {
	db *gorm.DB
}

func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db}
}

func (r *analyticsRepo) Record(tx *gorm.DB, order *model.OrderAnalytics, lines []model.ProductAnalytics) error {
	if err := tx.Create(order).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

func (r *analyticsRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var stats DashboardStats

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("quantity < ?", model.LowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("quantity = 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}

	// Total Valuation (SUM of quantity * price)
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(quantity * price), 0)").Row().Scan(&stats.TotalValuation); err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).Where("status = ?", model.StatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.OrderAnalytics{}).Select("COALESCE(SUM(total_amount), 0)").Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *analyticsRepo) GetDailySales(ctx context.Context, startDate, endDate time.Time) ([]DailySalesData, error) {
	results := []DailySalesData{}

	// Units sold per day from the per-line rollup
	rows, err := r.db.WithContext(ctx).Model(&model.ProductAnalytics{}).
		Select("CAST(DATE(order_date) AS TEXT) as date, COALESCE(SUM(quantity), 0) as units").
		Where("order_date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(order_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data DailySalesData
		if err := rows.Scan(&data.Date, &data.Units); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *analyticsRepo) GetCountryStats(ctx context.Context) ([]CountryStats, error) {
	results := []CountryStats{}

	rows, err := r.db.WithContext(ctx).Model(&model.OrderAnalytics{}).
		Select("country, COUNT(*) as orders, COALESCE(SUM(total_amount), 0) as revenue").
		Group("country").
		Order("orders DESC, country ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data CountryStats
		if err := rows.Scan(&data.Country, &data.Orders, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *analyticsRepo) GetTopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	results := []ProductSales{}

	rows, err := r.db.WithContext(ctx).Table("product_analytics AS pa").
		Select("pa.product_id, p.name, p.brand, COALESCE(SUM(pa.quantity), 0) AS sales").
		Joins("JOIN products p ON p.id = pa.product_id").
		Where("pa.deleted_at IS NULL").
		Group("pa.product_id, p.name, p.brand").
		Order("sales DESC, p.name ASC").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data ProductSales
		if err := rows.Scan(&data.ProductID, &data.Name, &data.Brand, &data.Sales); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *analyticsRepo) GetRevenueSummary(ctx context.Context, startDate, endDate time.Time) (*RevenueSummary, error) {
	var summary RevenueSummary

	err := r.db.WithContext(ctx).Model(&model.OrderAnalytics{}).
		Select("COUNT(*), COALESCE(SUM(product_count), 0), COALESCE(SUM(total_amount), 0)").
		Where("order_date BETWEEN ? AND ?", startDate, endDate).
		Row().
		Scan(&summary.Orders, &summary.Units, &summary.Revenue)
	if err != nil {
		return nil, err
	}

	if summary.Orders > 0 {
		summary.AverageOrder = summary.Revenue.Div(decimal.NewFromInt(summary.Orders)).Round(2)
	}
	return &summary, nil
}
