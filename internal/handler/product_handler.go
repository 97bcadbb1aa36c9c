package handler

import (
	"go-storefront/internal/apperror"
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GET /api/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// POST /api/admin/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Create(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// PATCH /api/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Update(c.UserContext(), id, &req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// DELETE /api/admin/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

type quantityRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  *int      `json:"quantity"`
}

// SetQuantity replaces a product's stock
// PUT /api/admin/quantity
// PATCH /api/admin/products/:id/quantity
func (h *ProductHandler) SetQuantity(c *fiber.Ctx) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if c.Params("id") != "" {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		req.ProductID = id
	}
	if req.ProductID == uuid.Nil || req.Quantity == nil || *req.Quantity < 0 {
		return respondError(c, apperror.Validation("Invalid data. Product ID and quantity (≥ 0) are required."))
	}

	product, err := h.service.SetQuantity(c.UserContext(), req.ProductID, *req.Quantity, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// UploadImage stores a multipart "file" and returns its URL
// POST /api/admin/products/upload
func (h *ProductHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	f, err := file.Open()
	if err != nil {
		return respondError(c, apperror.Internal(err, "Failed to read upload"))
	}
	defer f.Close()

	url, err := h.service.UploadImage(c.UserContext(), file.Header.Get(fiber.HeaderContentType), f, file.Size)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
