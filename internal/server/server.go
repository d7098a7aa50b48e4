// Package server assembles the fiber application: middleware, routes and the
// websocket endpoint.
package server

import (
	"go-sales-crm/internal/config"
	"go-sales-crm/internal/handler"
	"go-sales-crm/internal/middleware"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/internal/service"
	"go-sales-crm/internal/ws"
	"go-sales-crm/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Users    service.UserService
	Clients  service.ClientService
	Sales    service.SaleService
	Imports  service.ImportService
	Products service.ProductService
}

// NewServices wires repositories and services over db.
func NewServices(cfg config.Config, db *gorm.DB, hub *ws.Hub) Services {
	userRepo := repository.NewUserRepo(db)
	clientRepo := repository.NewClientRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	productRepo := repository.NewProductRepo(db)

	return Services{
		Auth:     service.NewAuthService(userRepo, jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)),
		Users:    service.NewUserService(userRepo),
		Clients:  service.NewClientService(clientRepo, saleRepo),
		Sales:    service.NewSaleService(saleRepo, productRepo, db, hub),
		Imports:  service.NewImportService(clientRepo, hub, cfg.Import.Workers),
		Products: service.NewProductService(productRepo, db, hub),
	}
}

// New builds the fiber app. A nil hub disables the websocket route.
func New(cfg config.Config, svc Services, hub *ws.Hub) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
		// Uploads carry the spreadsheet plus multipart framing.
		BodyLimit: int(cfg.Import.MaxFileSize) + 1<<20,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	clientHandler := handler.NewClientHandler(svc.Clients, svc.Imports, cfg.Import.MaxFileSize)
	saleHandler := handler.NewSaleHandler(svc.Sales)
	productHandler := handler.NewProductHandler(svc.Products)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Post("/auth/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(svc.Auth))
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	protected.Post("/auth/change-password", authHandler.ChangePassword)

	// Clients (always owner-scoped)
	protected.Post("/clients/import", clientHandler.ImportClients)
	protected.Get("/clients", clientHandler.GetClients)
	protected.Post("/clients", clientHandler.CreateClient)
	protected.Delete("/clients", clientHandler.BulkDeleteClients)
	protected.Get("/clients/:id", clientHandler.GetClient)
	protected.Put("/clients/:id", clientHandler.UpdateClient)
	protected.Delete("/clients/:id", clientHandler.DeleteClient)

	// Sales (admins may read and delete any)
	protected.Get("/sales", saleHandler.GetSales)
	protected.Post("/sales", saleHandler.CreateSale)
	protected.Get("/sales/:id", saleHandler.GetSale)
	protected.Delete("/sales/:id", saleHandler.DeleteSale)

	// Products
	protected.Get("/products", productHandler.GetProducts)
	protected.Post("/products", adminOnly, productHandler.CreateProduct)
	protected.Put("/products/:id", adminOnly, productHandler.UpdateProduct)

	// User Management
	protected.Get("/users", adminOnly, userHandler.GetUsers)
	protected.Post("/users", adminOnly, userHandler.CreateUser)
	protected.Put("/users/:id", adminOnly, userHandler.UpdateUser)

	if hub != nil {
		// WebSocket Route (events are delivered to their owner and admins)
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}, middleware.RequireSocketAuth(svc.Auth))
		app.Get("/ws", websocket.New(func(c *websocket.Conn) {
			userID, _ := c.Locals(middleware.LocalUserID).(uint)
			role, _ := c.Locals(middleware.LocalRole).(string)
			hub.Serve(c, policy.Caller{UserID: userID, Role: role})
		}))
	}

	return app
}
