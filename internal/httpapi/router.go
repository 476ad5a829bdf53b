package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpay/merchant-backend/internal/checkout"
	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	DB       *store.Database
	Products *store.ProductRepo
	Carts    *store.CartRepo
	Orders   *store.OrderRepo
	Checkout *checkout.Service
	Rules    pricing.Rules
	Logger   *zap.Logger
	Env      string
}

// NewRouter builds the Gin engine with all routes and middleware.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		if err := deps.DB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	catalogHandler := NewCatalogHandler(deps.Products)
	cartHandler := NewCartHandler(deps.Carts, deps.Products, deps.Rules)
	ordersHandler := NewOrdersHandler(deps.Orders)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.Logger)

	api := r.Group("/api")
	{
		api.GET("/products", catalogHandler.List)
		api.GET("/products/:id", catalogHandler.Get)

		api.GET("/cart/:session_id", cartHandler.Get)
		api.POST("/cart/:session_id/items", cartHandler.AddItem)
		api.DELETE("/cart/:session_id/items/:item_id", cartHandler.RemoveItem)

		api.POST("/cart/:session_id/x402/pay", checkoutHandler.Pay)

		api.GET("/orders/session/:session_id", ordersHandler.ListBySession)
		api.GET("/orders/:order_number", ordersHandler.GetByNumber)
	}

	return r
}
