// Package server assembles the Fiber application: middleware chain, routes,
// the admin websocket and the operational endpoints.
package server

import (
	"errors"
	"io"

	"go-storefront/internal/handler"
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"
	"go-storefront/internal/ws"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoginPath is where unauthenticated admin page requests are sent.
const LoginPath = "/auth/login"

type Deps struct {
	DB        *gorm.DB
	Tokens    *jwt.Manager
	Hub       *ws.Hub
	Orders    service.OrderService
	Products  service.ProductService
	Auth      service.AuthService
	Users     service.UserService
	Dashboard service.DashboardService

	AdminUIDir    string
	SecureCookies bool
	// AccessLog receives the request log. Nil disables it.
	AccessLog io.Writer
	Log       *zap.Logger
}

func New(d Deps) *fiber.App {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Storefront API",
		ErrorHandler: errorHandler(log),
	})

	// Middleware
	app.Use(recover.New()) // Panic recovery
	if d.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: d.AccessLog}))
	}
	app.Use(cors.New())
	app.Use(middleware.Metrics())
	app.Use(middleware.LoadSession(d.Tokens))
	app.Use(middleware.AdminGate(LoginPath))

	orderHandler := handler.NewOrderHandler(d.Orders)
	productHandler := handler.NewProductHandler(d.Products)
	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookies)
	userHandler := handler.NewUserHandler(d.Users)
	dashHandler := handler.NewDashboardHandler(d.Dashboard)

	// Operational
	app.Get("/healthz", healthz(d.DB))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	api.Get("/products", productHandler.GetProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Post("/orders", orderHandler.PlaceOrder)
	api.Get("/orders/:id", orderHandler.GetOrder)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/session", authHandler.Session)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// ============ ADMIN ROUTES ============
	// AdminGate has already rejected anything without an admin session.
	admin := api.Group("/admin")

	admin.Get("/orders", orderHandler.GetOrders)
	admin.Patch("/orders/:id", orderHandler.UpdateStatus)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Post("/products/upload", productHandler.UploadImage)
	admin.Patch("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
	admin.Patch("/products/:id/quantity", productHandler.SetQuantity)
	admin.Put("/quantity", productHandler.SetQuantity)

	admin.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	admin.Get("/dashboard/countries", dashHandler.GetCountryStats)
	admin.Get("/dashboard/top-products", dashHandler.GetTopProducts)
	admin.Get("/dashboard/sales", dashHandler.GetDailySales)
	admin.Get("/dashboard/revenue", dashHandler.GetRevenue)

	admin.Get("/users", userHandler.GetUsers)
	admin.Put("/users/:id/admin", userHandler.SetAdmin)

	// WebSocket Route
	if d.Hub != nil {
		admin.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		admin.Get("/ws", websocket.New(func(c *websocket.Conn) {
			if !d.Hub.Register(c) {
				return
			}
			defer d.Hub.Unregister(c)

			for {
				// Keep alive loop
				if _, _, err := c.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}

	// Admin pages
	if d.AdminUIDir != "" {
		app.Static("/admin", d.AdminUIDir, fiber.Static{Index: "index.html"})
	}

	return app
}

func healthz(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.UserContext())
			}
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// errorHandler renders errors that escape handlers (routing misses, panics,
// body limits) as {message}.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
