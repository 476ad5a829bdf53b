// Package checkout drives the x402 payment-gated checkout: it prices the
// cart, issues the 402 challenge, enforces trust-tier spend limits, commits
// the order, and settles the payment with the facilitator.
package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentpay/merchant-backend/internal/config"
	"github.com/agentpay/merchant-backend/internal/x402"
)

// RequirementsBuilder constructs the payment requirement set offered in a
// 402 challenge: one requirement per configured network, all for the same
// USD total converted to USDC atomic units.
type RequirementsBuilder struct {
	networks          []config.NetworkConfig
	maxTimeoutSeconds int
}

// NewRequirementsBuilder validates the configured networks and returns a
// builder. Every network must be a recognized CAIP-2 identifier with a
// known USDC deployment.
func NewRequirementsBuilder(networks []config.NetworkConfig, maxTimeoutSeconds int) (*RequirementsBuilder, error) {
	if len(networks) == 0 {
		return nil, fmt.Errorf("no payment networks configured")
	}
	for _, nc := range networks {
		if _, err := x402.ValidateNetwork(nc.Network); err != nil {
			return nil, fmt.Errorf("network %q: %w", nc.Network, err)
		}
		if _, err := x402.GetChainConfig(nc.Network); err != nil {
			return nil, fmt.Errorf("network %q: %w", nc.Network, err)
		}
		if nc.PayTo == "" {
			return nil, fmt.Errorf("network %q: missing pay_to address", nc.Network)
		}
	}
	return &RequirementsBuilder{networks: networks, maxTimeoutSeconds: maxTimeoutSeconds}, nil
}

// Build converts a USD total into one requirement per network. The
// construction is deterministic: the same total yields the same
// requirement set, so repeated challenges for an unchanged cart are
// identical. No I/O happens here; fee-sponsorship enrichment is a separate
// facilitator step.
func (b *RequirementsBuilder) Build(totalUSD decimal.Decimal) ([]x402.PaymentRequirements, error) {
	requirements := make([]x402.PaymentRequirements, 0, len(b.networks))
	for _, nc := range b.networks {
		chain, err := x402.GetChainConfig(nc.Network)
		if err != nil {
			return nil, err
		}

		atomic, err := x402.AmountToBigInt(totalUSD.String(), chain.Decimals)
		if err != nil {
			return nil, fmt.Errorf("total %s: %w", totalUSD, err)
		}

		requirements = append(requirements, x402.PaymentRequirements{
			Scheme:            x402.SchemeExact,
			Network:           nc.Network,
			Amount:            atomic.String(),
			Asset:             chain.USDCAddress,
			PayTo:             nc.PayTo,
			MaxTimeoutSeconds: b.maxTimeoutSeconds,
		})
	}
	return requirements, nil
}
