package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentpay/merchant-backend/internal/store"
)

// OrdersHandler serves order lookup endpoints.
type OrdersHandler struct {
	orders *store.OrderRepo
}

// NewOrdersHandler creates the orders handler.
func NewOrdersHandler(orders *store.OrderRepo) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// ListBySession handles GET /api/orders/session/:session_id.
func (h *OrdersHandler) ListBySession(c *gin.Context) {
	orders, err := h.orders.ListBySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetByNumber handles GET /api/orders/:order_number.
func (h *OrdersHandler) GetByNumber(c *gin.Context) {
	order, err := h.orders.GetByNumber(c.Request.Context(), c.Param("order_number"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}
	c.JSON(http.StatusOK, order)
}
