package handler

import (
	"crypto-checkout/internal/adapter/http/middleware"
	"crypto-checkout/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ProductSvc     ports.ProductService
	CartSvc        ports.CartService
	OrderSvc       ports.OrderService
	PayoutSvc      ports.PayoutService
	WebhookSvc     ports.WebhookService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	api := r.Group("/api")

	productHandler := NewProductHandler(deps.ProductSvc)
	products := api.Group("/products")
	{
		products.POST("", productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
	}

	cartHandler := NewCartHandler(deps.CartSvc)
	carts := api.Group("/carts")
	{
		carts.POST("", cartHandler.Create)
		carts.GET("/:id", cartHandler.Get)
		carts.POST("/:id/items", cartHandler.AddItem)
		carts.DELETE("/:id/items/:productId", cartHandler.RemoveItem)
	}

	orderHandler := NewOrderHandler(deps.OrderSvc, deps.PayoutSvc)
	orders := api.Group("/orders")
	{
		orders.POST("", orderHandler.Create)
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.GET("/:id/payout", orderHandler.GetPayout)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc, deps.Logger)
	api.POST("/webhooks/mural", webhookHandler.HandleMural)

	return r
}
