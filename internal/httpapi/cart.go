package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
)

// CartHandler serves cart endpoints.
type CartHandler struct {
	carts    *store.CartRepo
	products *store.ProductRepo
	rules    pricing.Rules
}

// NewCartHandler creates the cart handler.
func NewCartHandler(carts *store.CartRepo, products *store.ProductRepo, rules pricing.Rules) *CartHandler {
	return &CartHandler{carts: carts, products: products, rules: rules}
}

// Get handles GET /api/cart/:session_id. The cart comes back priced, so a
// buyer sees the same totals a later challenge will demand.
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.carts.GetBySession(c.Request.Context(), c.Param("session_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	body := gin.H{"cart": cart}
	if quote, err := h.rules.Price(cart.Items); err == nil {
		body["pricing"] = quote
	}
	c.JSON(http.StatusOK, body)
}

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// AddItem handles POST /api/cart/:session_id/items, creating the cart on
// first use.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	if _, err := h.products.Get(ctx, req.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up product"})
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	if err := h.carts.AddItem(ctx, cart.ID, req.ProductID, req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	cart, err = h.carts.GetBySession(ctx, c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveItem handles DELETE /api/cart/:session_id/items/:item_id.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	ctx := c.Request.Context()
	cart, err := h.carts.GetBySession(ctx, c.Param("session_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	if err := h.carts.RemoveItem(ctx, cart.ID, uint(itemID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
