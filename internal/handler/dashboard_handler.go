package handler

import (
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) GetCountryStats(c *fiber.Ctx) error {
	stats, err := h.service.GetCountryStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetTopProducts query params: limit (default 5)
func (h *DashboardHandler) GetTopProducts(c *fiber.Ctx) error {
	data, err := h.service.GetTopProducts(c.UserContext(), c.QueryInt("limit", 5))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(data)
}

// GetDailySales returns units sold per day for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetDailySales(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	data, err := h.service.GetDailySales(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetRevenue query params: range (7d, 1m, 3m, 6m, 12m; default 1m)
func (h *DashboardHandler) GetRevenue(c *fiber.Ctx) error {
	report, err := h.service.GetRevenue(c.UserContext(), c.Query("range"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
