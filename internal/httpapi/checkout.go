package httpapi

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentpay/merchant-backend/internal/checkout"
	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
	"github.com/agentpay/merchant-backend/internal/trust"
	"github.com/agentpay/merchant-backend/internal/x402"
)

// CheckoutHandler serves the payment-gated checkout endpoint.
type CheckoutHandler struct {
	service *checkout.Service
	logger  *zap.Logger
}

// NewCheckoutHandler creates the checkout handler.
func NewCheckoutHandler(service *checkout.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, logger: logger.Named("checkout_handler")}
}

// Pay handles POST /api/cart/:session_id/x402/pay.
//
// Without an X-PAYMENT header it responds 402 with the requirement set.
// With one it runs the paid checkout and responds 200 (settled receipt,
// X-PAYMENT-RESPONSE header), 403 (spend limit), 404/400 (cart missing or
// empty), 400 (malformed proof), 402 (proof matches no requirement), or
// 502 (settlement failed after order commit; the order is in the body).
func (h *CheckoutHandler) Pay(c *gin.Context) {
	sessionID := c.Param("session_id")
	resourceURL := resourceURL(c)

	paymentHeader := c.GetHeader(HeaderPayment)
	if paymentHeader == "" {
		h.challenge(c, sessionID, resourceURL)
		return
	}

	signals := AgentSignals(c)
	result, err := h.service.Pay(c.Request.Context(), sessionID, paymentHeader, resourceURL, signals)
	if err != nil {
		h.payError(c, sessionID, resourceURL, err)
		return
	}

	switch result.Outcome {
	case checkout.OutcomeSettled, checkout.OutcomeVerified:
		if result.Settlement != nil {
			if encoded, err := x402.EncodeSettlement(*result.Settlement); err == nil {
				c.Header(HeaderPaymentResponse, encoded)
			} else {
				h.logger.Warn("failed to encode settlement header", zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, receiptBody(result, signals))

	case checkout.OutcomeSettlementFailed:
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "settlement_failed",
			"message": "Order was created but payment settlement failed. Contact the merchant referencing the order number.",
			"reason":  result.FailureReason,
			"order":   orderBody(result),
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected checkout outcome"})
	}
}

// challenge issues the 402 response for a proof-less request.
func (h *CheckoutHandler) challenge(c *gin.Context, sessionID, resourceURL string) {
	result, err := h.service.Challenge(c.Request.Context(), sessionID, resourceURL)
	if err != nil {
		h.payError(c, sessionID, resourceURL, err)
		return
	}
	c.JSON(http.StatusPaymentRequired, result.Challenge)
}

// payError maps checkout errors onto HTTP statuses. A proof that matches
// no requirement gets a fresh 402 challenge so the buyer can retry with a
// supported network and the current amount.
func (h *CheckoutHandler) payError(c *gin.Context, sessionID, resourceURL string, err error) {
	var limitErr *trust.LimitExceededError
	var payErr *x402.PaymentError

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})

	case errors.Is(err, pricing.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})

	case errors.As(err, &limitErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Order total exceeds the spend limit for this agent's trust tier",
			"tier":  limitErr.Tier,
			"total": limitErr.Total.StringFixed(2),
			"limit": limitErr.Limit.StringFixed(2),
		})

	case errors.Is(err, x402.ErrNoMatchingRequirement):
		challenge, cerr := h.service.Challenge(c.Request.Context(), sessionID, resourceURL)
		if cerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment matches no accepted requirement"})
			return
		}
		body := challenge.Challenge
		body.Error = "Payment matches no accepted requirement"
		c.JSON(http.StatusPaymentRequired, body)

	case errors.As(err, &payErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"x402Version": x402.Version,
			"error":       payErr.Message,
			"code":        payErr.Code,
		})

	case errors.Is(err, x402.ErrMalformedHeader) || errors.Is(err, x402.ErrUnsupportedVersion):
		c.JSON(http.StatusBadRequest, gin.H{
			"x402Version": x402.Version,
			"error":       "Invalid payment header",
		})

	default:
		h.logger.Error("checkout failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
	}
}

// receiptBody builds the success response: order receipt, the identity the
// purchase was attributed to, and a fulfillment stub for physical goods.
func receiptBody(result *checkout.Result, signals trust.Signals) gin.H {
	body := gin.H{
		"status":  "success",
		"message": "Checkout completed",
		"order":   orderBody(result),
		"agent": gin.H{
			"key_id":   result.Order.AgentKeyID,
			"tier":     result.Tier,
			"verified": signals.Verified,
			"claimed":  signals.Claimed,
		},
	}

	if result.Settlement != nil {
		body["settlement"] = gin.H{
			"network":     result.Settlement.Network,
			"transaction": result.Settlement.Transaction,
			"payer":       result.Settlement.Payer,
		}
	}

	if result.Quote != nil && !result.Quote.IsFullyDigital {
		body["fulfillment"] = gin.H{
			"tracking_number":    newTrackingNumber(),
			"estimated_delivery": "5-7 business days",
			"shipping_carrier":   "Standard Shipping",
			"status":             "processing",
		}
	}
	return body
}

func orderBody(result *checkout.Result) gin.H {
	order := result.Order
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"unit_price": item.Price.StringFixed(2),
		})
	}

	return gin.H{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"subtotal":       order.Subtotal.StringFixed(2),
		"tax_amount":     order.TaxAmount.StringFixed(2),
		"shipping_cost":  order.ShippingCost.StringFixed(2),
		"total_amount":   order.TotalAmount.StringFixed(2),
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"payment_status": order.PaymentStatus,
		"created_at":     order.CreatedAt,
		"items":          items,
	}
}

func newTrackingNumber() string {
	u := uuid.New()
	return "TRK" + strings.ToUpper(hex.EncodeToString(u[:5]))
}

// resourceURL reconstructs the absolute URL of the paid resource for the
// challenge body.
func resourceURL(c *gin.Context) string {
	scheme := "https"
	if c.Request.TLS == nil {
		scheme = "http"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}
