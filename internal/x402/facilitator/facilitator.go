// Package facilitator talks to the external x402 facilitator service, the
// single point where this backend touches a blockchain: the facilitator
// verifies payment authorizations and executes settlement on-chain.
package facilitator

import (
	"context"
	"fmt"
	"time"

	"github.com/agentpay/merchant-backend/internal/x402"
)

// Interface is the facilitator contract. Settle performs verification and
// on-chain settlement in one call; Verify exists for verify-only
// deployments and preflight checks.
type Interface interface {
	// Verify checks a payment authorization without executing it.
	Verify(ctx context.Context, payload x402.PaymentPayload, requirements x402.PaymentRequirements) (*x402.VerifyResponse, error)

	// Settle verifies and executes a payment on the blockchain.
	Settle(ctx context.Context, payload x402.PaymentPayload, requirements x402.PaymentRequirements) (*x402.SettleResponse, error)

	// Supported queries the facilitator for supported payment kinds and
	// network metadata such as fee-sponsorship signers.
	Supported(ctx context.Context) (*x402.SupportedResponse, error)
}

// VerifyRequest is the payload sent to POST /verify.
type VerifyRequest struct {
	X402Version         int                      `json:"x402Version"`
	PaymentPayload      x402.PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements x402.PaymentRequirements `json:"paymentRequirements"`
}

// SettleRequest is the payload sent to POST /settle.
type SettleRequest struct {
	X402Version         int                      `json:"x402Version"`
	PaymentPayload      x402.PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements x402.PaymentRequirements `json:"paymentRequirements"`
}

// TimeoutConfig holds timeout configuration for facilitator operations.
type TimeoutConfig struct {
	// VerifyTimeout is the maximum time to wait for verification.
	VerifyTimeout time.Duration

	// SettleTimeout is the maximum time to wait for settlement. Settlement
	// includes on-chain confirmation and runs much longer than verification.
	SettleTimeout time.Duration

	// RequestTimeout is the overall HTTP client timeout.
	RequestTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for facilitator operations.
var DefaultTimeouts = TimeoutConfig{
	VerifyTimeout:  5 * time.Second,
	SettleTimeout:  60 * time.Second,
	RequestTimeout: 120 * time.Second,
}

// Validate ensures timeout values are reasonable.
func (tc TimeoutConfig) Validate() error {
	if tc.VerifyTimeout <= 0 {
		return fmt.Errorf("verify timeout must be positive, got %v", tc.VerifyTimeout)
	}
	if tc.SettleTimeout <= 0 {
		return fmt.Errorf("settle timeout must be positive, got %v", tc.SettleTimeout)
	}
	if tc.SettleTimeout < tc.VerifyTimeout {
		return fmt.Errorf("settle timeout (%v) should be >= verify timeout (%v)",
			tc.SettleTimeout, tc.VerifyTimeout)
	}
	return nil
}
