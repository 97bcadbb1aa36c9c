package service

import (
	"context"
	"strings"
	"time"

	"go-storefront/internal/apperror"
	"go-storefront/internal/repository"
)

// RevenueRanges are the accepted revenue windows.
var RevenueRanges = []string{"7d", "1m", "3m", "6m", "12m"}

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	GetCountryStats(ctx context.Context) ([]repository.CountryStats, error)
	GetTopProducts(ctx context.Context, limit int) ([]repository.ProductSales, error)
	GetDailySales(ctx context.Context, days int) ([]repository.DailySalesData, error)
	GetRevenue(ctx context.Context, rangeKey string) (*RevenueReport, error)
}

type RevenueReport struct {
	Range string    `json:"range"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	repository.RevenueSummary
}

type dashboardService struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

func NewDashboardService(aRepo repository.AnalyticsRepository) DashboardService {
	return &dashboardService{analyticsRepo: aRepo, now: time.Now}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.analyticsRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch dashboard stats")
	}
	return stats, nil
}

func (s *dashboardService) GetCountryStats(ctx context.Context) ([]repository.CountryStats, error) {
	stats, err := s.analyticsRepo.GetCountryStats(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch country stats")
	}
	return stats, nil
}

func (s *dashboardService) GetTopProducts(ctx context.Context, limit int) ([]repository.ProductSales, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	products, err := s.analyticsRepo.GetTopProducts(ctx, limit)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch top products")
	}
	return products, nil
}

func (s *dashboardService) GetDailySales(ctx context.Context, days int) ([]repository.DailySalesData, error) {
	if days <= 0 || days > 366 {
		days = 7
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.analyticsRepo.GetDailySales(ctx, startDate, endDate)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch daily sales")
	}
	return data, nil
}

func (s *dashboardService) GetRevenue(ctx context.Context, rangeKey string) (*RevenueReport, error) {
	if rangeKey == "" {
		rangeKey = "1m"
	}
	endDate := s.now()
	startDate, ok := rangeStart(endDate, rangeKey)
	if !ok {
		return nil, apperror.Validation("Invalid range %q, expected one of %s", rangeKey, strings.Join(RevenueRanges, ", "))
	}

	summary, err := s.analyticsRepo.GetRevenueSummary(ctx, startDate, endDate)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch revenue")
	}
	return &RevenueReport{Range: rangeKey, From: startDate, To: endDate, RevenueSummary: *summary}, nil
}

func rangeStart(end time.Time, key string) (time.Time, bool) {
	switch key {
	case "7d":
		return end.AddDate(0, 0, -7), true
	case "1m":
		return end.AddDate(0, -1, 0), true
	case "3m":
		return end.AddDate(0, -3, 0), true
	case "6m":
		return end.AddDate(0, -6, 0), true
	case "12m":
		return end.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}
