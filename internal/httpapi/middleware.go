// Package httpapi exposes the merchant's HTTP surface with Gin: the
// catalog, cart, and order endpoints and the x402 payment-gated checkout.
package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpay/merchant-backend/internal/trust"
)

// Agent identity headers, set by the edge proxy after it has verified the
// underlying credentials. This service trusts them as-is and never
// re-verifies signatures; that boundary belongs to the edge.
const (
	HeaderAgentVerified   = "X-Agent-Clawkey-Verified"
	HeaderAgentClaimed    = "X-Agent-Moltbook-Claimed"
	HeaderAgentReputation = "X-Agent-Moltbook-Karma"
	HeaderAgentKeyID      = "X-Agent-KeyID"
)

// x402 transport headers.
const (
	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// AgentSignals extracts trust signals from the identity headers. Absent or
// malformed headers degrade to the anonymous defaults rather than erroring:
// an unidentified agent can still buy within the baseline limit.
func AgentSignals(c *gin.Context) trust.Signals {
	reputation := 0
	if raw := c.GetHeader(HeaderAgentReputation); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			reputation = n
		}
	}

	return trust.Signals{
		Verified:   strings.EqualFold(c.GetHeader(HeaderAgentVerified), "true"),
		Claimed:    strings.EqualFold(c.GetHeader(HeaderAgentClaimed), "true"),
		Reputation: reputation,
		KeyID:      c.GetHeader(HeaderAgentKeyID),
	}
}

// RequestLogger logs each request with latency and status.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
