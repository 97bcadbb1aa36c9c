package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers lists accounts
// GET /api/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SetAdmin grants or revokes admin access
// PUT /api/admin/users/:id/admin
func (h *UserHandler) SetAdmin(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		IsAdmin *bool `json:"isAdmin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.IsAdmin == nil {
		return badRequest(c, "isAdmin is required")
	}

	user, err := h.userService.SetAdmin(c.UserContext(), id, *req.IsAdmin, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
