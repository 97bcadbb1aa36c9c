package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// PlaceOrder handles checkout
// POST /api/orders
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req service.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if s := middleware.CurrentSession(c); s != nil {
		req.UserID = &s.UserID
	}

	order, err := h.service.PlaceOrder(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GetOrder returns one order with its lines
// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// GetOrders lists all orders, newest first
// GET /api/admin/orders
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus sets an order's status
// PATCH /api/admin/orders/:id
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.UpdateStatus(c.UserContext(), id, req.Status, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
