package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/config"
	"github.com/example/gerai/internal/handlers"
	"github.com/example/gerai/internal/middleware"
	"github.com/example/gerai/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	rateSource := services.NewStaticRateSource()
	cartService := services.NewCartService(db)
	orderStore := services.NewOrderStore(db)
	checkoutService := services.NewCheckoutService(orderStore, rateSource, cfg.ShippingFlatRate, cfg.StoreCurrency)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(db, cartService)
	checkoutHandler := handlers.NewCheckoutHandler(db, cartService, checkoutService, rateSource)
	orderHandler := handlers.NewOrderHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Storefront catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:slug", productHandler.GetProductBySlug)

	// Cart and checkout work for guests (session key header) and users alike.
	optional := middleware.OptionalAuthMiddleware(cfg)

	cart := api.Group("/cart", optional)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/", cartHandler.AddItem)
	cart.Patch("/:productId", cartHandler.UpdateItem)
	cart.Delete("/:productId", cartHandler.RemoveItem)

	checkout := api.Group("/checkout", optional)
	checkout.Get("/rates", checkoutHandler.Rates)
	checkout.Post("/", checkoutHandler.PlaceOrder)
	checkout.Get("/success/:orderNumber", checkoutHandler.Success)

	// Authenticated order history
	protected := api.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	// Admin panel
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(db))
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Patch("/orders/:id", adminHandler.UpdateOrderStatus)
	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
}
