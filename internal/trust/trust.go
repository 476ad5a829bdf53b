// Package trust applies per-order spend limits based on agent identity
// signals. The signals arrive as edge-verified HTTP headers; this package
// only maps them to a limit, it does not authenticate them.
package trust

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier names, for logging and response bodies.
const (
	TierVerified  = "verified"
	TierHighRep   = "high_reputation"
	TierClaimed   = "claimed"
	TierAnonymous = "anonymous"
)

// Signals are the agent identity facts extracted from request headers.
type Signals struct {
	// Verified is true when the agent holds an edge-verified cryptographic
	// credential.
	Verified bool

	// Claimed is true when the agent has a claimed registry profile.
	Claimed bool

	// Reputation is the agent's registry reputation score. Only meaningful
	// when Claimed is true.
	Reputation int

	// KeyID identifies the agent's key, for order attribution.
	KeyID string
}

// Limits are the configured per-tier spend ceilings.
type Limits struct {
	Verified  decimal.Decimal
	HighRep   decimal.Decimal
	Baseline  decimal.Decimal
	Threshold int
}

// Tier resolves the signals to a trust tier. Verification dominates: a
// verified agent gets the verified tier regardless of registry state.
func (l Limits) Tier(s Signals) string {
	switch {
	case s.Verified:
		return TierVerified
	case s.Claimed && s.Reputation >= l.Threshold:
		return TierHighRep
	case s.Claimed:
		return TierClaimed
	default:
		return TierAnonymous
	}
}

// SpendLimit returns the per-order ceiling for the signals. Anonymous
// agents share the claimed baseline rather than being refused outright;
// payment is still required either way.
func (l Limits) SpendLimit(s Signals) decimal.Decimal {
	switch l.Tier(s) {
	case TierVerified:
		return l.Verified
	case TierHighRep:
		return l.HighRep
	default:
		return l.Baseline
	}
}

// Authorize checks an order total against the agent's spend limit.
// Returns a LimitExceededError when the total is over the limit; a total
// exactly at the limit is allowed.
func (l Limits) Authorize(s Signals, total decimal.Decimal) error {
	limit := l.SpendLimit(s)
	if total.GreaterThan(limit) {
		return &LimitExceededError{Tier: l.Tier(s), Total: total, Limit: limit}
	}
	return nil
}

// LimitExceededError reports a trust-gated denial. It carries the amounts
// so the handler can tell the agent what ceiling it hit.
type LimitExceededError struct {
	Tier  string
	Total decimal.Decimal
	Limit decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("trust: order $%s exceeds %s tier limit $%s",
		e.Total.StringFixed(2), e.Tier, e.Limit.StringFixed(2))
}
