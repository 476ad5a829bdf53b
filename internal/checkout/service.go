package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
	"github.com/agentpay/merchant-backend/internal/trust"
	"github.com/agentpay/merchant-backend/internal/x402"
	"github.com/agentpay/merchant-backend/internal/x402/facilitator"
)

// Outcome classifies how a checkout request ended.
type Outcome int

const (
	// OutcomePaymentRequired means no payment proof was presented; the
	// result carries a 402 challenge. No state was mutated.
	OutcomePaymentRequired Outcome = iota

	// OutcomeSettled means the order was committed and the payment
	// settled on-chain.
	OutcomeSettled

	// OutcomeVerified means the order was committed and the payment
	// verified, with settlement deliberately skipped (verify-only mode).
	OutcomeVerified

	// OutcomeSettlementFailed means the order was committed but settlement
	// failed. The order persists with a failed payment status; the cart
	// stays cleared. Reconciliation is an operator concern.
	OutcomeSettlementFailed
)

// Result is the terminal state of one checkout request.
type Result struct {
	Outcome Outcome

	// Challenge is set for OutcomePaymentRequired.
	Challenge *x402.PaymentRequired

	// Quote is the priced cart, set on every outcome.
	Quote *pricing.Quote

	// Order is the committed order, set for all paid outcomes.
	Order *store.Order

	// Settlement is the facilitator's settle response when one was made.
	Settlement *x402.SettleResponse

	// Tier is the trust tier the request was authorized under.
	Tier string

	// FailureReason describes a settlement failure.
	FailureReason string
}

// Service is the checkout orchestrator. Construct once at startup with its
// collaborators and share across requests; all per-request state lives on
// the stack.
type Service struct {
	db          *store.Database
	carts       *store.CartRepo
	orders      *store.OrderRepo
	rules       pricing.Rules
	limits      trust.Limits
	builder     *RequirementsBuilder
	facilitator facilitator.Interface
	verifyOnly  bool
	logger      *zap.Logger
}

// NewService wires the checkout orchestrator.
func NewService(
	db *store.Database,
	carts *store.CartRepo,
	orders *store.OrderRepo,
	rules pricing.Rules,
	limits trust.Limits,
	builder *RequirementsBuilder,
	fac facilitator.Interface,
	verifyOnly bool,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:          db,
		carts:       carts,
		orders:      orders,
		rules:       rules,
		limits:      limits,
		builder:     builder,
		facilitator: fac,
		verifyOnly:  verifyOnly,
		logger:      logger.Named("checkout"),
	}
}

// Challenge prices the session's cart and returns the 402 challenge body.
// Repeated calls for an unchanged cart produce an identical requirement
// set. Mutates nothing.
//
// Returns store.ErrNotFound when no cart exists for the session and
// pricing.ErrEmptyCart when the cart has no items.
func (s *Service) Challenge(ctx context.Context, sessionID, resourceURL string) (*Result, error) {
	_, quote, err := s.priceCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.buildChallenge(ctx, quote, resourceURL)
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome:   OutcomePaymentRequired,
		Challenge: challenge,
		Quote:     quote,
	}, nil
}

// Pay runs the full paid checkout for a submitted payment proof:
//
//  1. price the cart (same computation the challenge used)
//  2. decode the proof and match it against freshly built requirements
//  3. authorize the total against the agent's trust-tier spend limit
//  4. atomically commit the order, capture line items, and consume the
//     cart; the cart consume doubles as the concurrency guard against a
//     racing checkout on the same cart
//  5. settle with the facilitator and record the outcome on the order
//
// Error returns mean no order was created: store.ErrNotFound,
// pricing.ErrEmptyCart, x402.PaymentError (malformed proof or no matching
// requirement), or *trust.LimitExceededError. Settlement failure is not an
// error return — the order exists by then, so it comes back as a Result
// with OutcomeSettlementFailed.
func (s *Service) Pay(ctx context.Context, sessionID, paymentHeader, resourceURL string, signals trust.Signals) (*Result, error) {
	cart, quote, err := s.priceCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payment, err := x402.ParsePaymentHeader(paymentHeader)
	if err != nil {
		return nil, err
	}

	requirements, err := s.builder.Build(quote.Total)
	if err != nil {
		return nil, err
	}

	matched, err := x402.MatchRequirement(payment, requirements)
	if err != nil {
		return nil, err
	}

	tier := s.limits.Tier(signals)
	if err := s.limits.Authorize(signals, quote.Total); err != nil {
		s.logger.Info("checkout denied by spend limit",
			zap.String("session_id", sessionID),
			zap.String("tier", tier),
			zap.String("total", quote.Total.StringFixed(2)),
		)
		return nil, err
	}

	order, err := s.commitOrder(ctx, sessionID, cart, quote, signals)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order committed",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", sessionID),
		zap.String("total", quote.Total.StringFixed(2)),
		zap.String("tier", tier),
		zap.String("network", matched.Network),
	)

	result := &Result{Quote: quote, Order: order, Tier: tier}
	s.settleOrder(ctx, result, payment, matched)
	return result, nil
}

// priceCart loads the session's cart and prices it. The same code path
// serves challenge issuance and settlement-time validation, so the two
// totals agree by construction for an unchanged cart.
func (s *Service) priceCart(ctx context.Context, sessionID string) (*store.Cart, *pricing.Quote, error) {
	cart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	quote, err := s.rules.Price(cart.Items)
	if err != nil {
		return nil, nil, err
	}
	return cart, quote, nil
}

// buildChallenge constructs the 402 body, enriching requirements with
// facilitator metadata (fee sponsorship) when the facilitator is
// reachable. Enrichment failure degrades to the unenriched set; a buyer
// can still pay on networks that need no sponsorship.
func (s *Service) buildChallenge(ctx context.Context, quote *pricing.Quote, resourceURL string) (*x402.PaymentRequired, error) {
	requirements, err := s.builder.Build(quote.Total)
	if err != nil {
		return nil, err
	}

	if enricher, ok := s.facilitator.(interface {
		EnrichRequirements(context.Context, []x402.PaymentRequirements) ([]x402.PaymentRequirements, error)
	}); ok {
		enriched, err := enricher.EnrichRequirements(ctx, requirements)
		if err != nil {
			s.logger.Warn("requirement enrichment failed, serving unenriched challenge", zap.Error(err))
		} else {
			requirements = enriched
		}
	}

	return &x402.PaymentRequired{
		X402Version: x402.Version,
		Error:       "Payment required",
		Resource: &x402.ResourceInfo{
			URL:         resourceURL,
			Description: "Cart checkout",
			MimeType:    "application/json",
		},
		Accepts: requirements,
	}, nil
}

// commitOrder atomically creates the order with captured line items and
// consumes the cart. When a concurrent checkout on the same cart wins the
// race, the cart consume affects zero rows and the whole transaction rolls
// back; the loser surfaces pricing.ErrEmptyCart, same as a cart that was
// empty all along.
func (s *Service) commitOrder(ctx context.Context, sessionID string, cart *store.Cart, quote *pricing.Quote, signals trust.Signals) (*store.Order, error) {
	keyID := signals.KeyID
	if keyID == "" {
		keyID = "unknown"
	}

	order := &store.Order{
		OrderNumber:   store.NewOrderNumber(),
		SessionID:     sessionID,
		CustomerEmail: fmt.Sprintf("agent_%s@x402.pay", keyID),
		CustomerName:  fmt.Sprintf("Agent %s", keyID),
		AgentKeyID:    keyID,
		Subtotal:      quote.Subtotal,
		TaxAmount:     quote.TaxAmount,
		ShippingCost:  quote.ShippingCost,
		TotalAmount:   quote.Total,
		Status:        store.OrderStatusConfirmed,
		PaymentMethod: store.PaymentMethodX402,
		PaymentStatus: store.PaymentStatusPending,
	}

	itemIDs := make([]uint, len(cart.Items))
	for i, item := range cart.Items {
		itemIDs[i] = item.ID
		order.Items = append(order.Items, store.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orders.CreateInTx(tx.WithContext(ctx), order); err != nil {
			return err
		}
		return s.carts.ConsumeItems(tx.WithContext(ctx), cart.ID, itemIDs)
	})
	if errors.Is(err, store.ErrCartConflict) {
		return nil, pricing.ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// settleOrder drives the facilitator call for a committed order and
// records the outcome. Every failure path marks the order failed rather
// than returning an error: by this point the draw-down is durable and must
// not be lost to a transport exception.
func (s *Service) settleOrder(ctx context.Context, result *Result, payment *x402.PaymentPayload, matched *x402.PaymentRequirements) {
	if s.verifyOnly {
		verifyResp, err := s.facilitator.Verify(ctx, *payment, *matched)
		switch {
		case err != nil:
			s.markFailed(ctx, result, fmt.Sprintf("verification error: %v", err))
		case !verifyResp.IsValid:
			reason := verifyResp.InvalidReason
			if reason == "" {
				reason = "payment verification failed"
			}
			s.markFailed(ctx, result, reason)
		default:
			result.Outcome = OutcomeVerified
			s.markSettled(ctx, result, matched.Network, "")
		}
		return
	}

	settleResp, err := s.facilitator.Settle(ctx, *payment, *matched)
	switch {
	case err != nil:
		s.markFailed(ctx, result, fmt.Sprintf("settlement error: %v", err))
	case !settleResp.Success:
		result.Settlement = settleResp
		reason := settleResp.ErrorReason
		if reason == "" {
			reason = "settlement failed"
		}
		s.markFailed(ctx, result, reason)
	default:
		result.Outcome = OutcomeSettled
		result.Settlement = settleResp
		s.markSettled(ctx, result, settleResp.Network, settleResp.Transaction)
	}
}

func (s *Service) markSettled(ctx context.Context, result *Result, network, transaction string) {
	order := result.Order
	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, store.PaymentStatusSettled, network, transaction); err != nil {
		s.logger.Error("failed to record settled status",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}
	order.PaymentStatus = store.PaymentStatusSettled
	order.PaymentNetwork = network
	order.PaymentTransaction = transaction

	s.logger.Info("payment settled",
		zap.String("order_number", order.OrderNumber),
		zap.String("network", network),
		zap.String("transaction", transaction),
	)
}

func (s *Service) markFailed(ctx context.Context, result *Result, reason string) {
	order := result.Order
	result.Outcome = OutcomeSettlementFailed
	result.FailureReason = reason

	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, store.PaymentStatusFailed, "", ""); err != nil {
		s.logger.Error("failed to record failed status",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}
	order.PaymentStatus = store.PaymentStatusFailed

	s.logger.Warn("settlement failed, order retained for reconciliation",
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", reason),
	)
}
