package checkout

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"

	"github.com/agentpay/merchant-backend/internal/config"
	"github.com/agentpay/merchant-backend/internal/pricing"
	"github.com/agentpay/merchant-backend/internal/store"
	"github.com/agentpay/merchant-backend/internal/trust"
	"github.com/agentpay/merchant-backend/internal/x402"
	"github.com/agentpay/merchant-backend/internal/x402/facilitator"
)

const (
	merchantEVM = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"
	merchantSVM = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
)

// fakeFacilitator scripts facilitator behavior per test.
type fakeFacilitator struct {
	verifyResp  *x402.VerifyResponse
	settleResp  *x402.SettleResponse
	settleErr   error
	settleCalls int
	verifyCalls int
}

var _ facilitator.Interface = (*fakeFacilitator)(nil)

func (f *fakeFacilitator) Verify(ctx context.Context, payload x402.PaymentPayload, req x402.PaymentRequirements) (*x402.VerifyResponse, error) {
	f.verifyCalls++
	if f.verifyResp == nil {
		return &x402.VerifyResponse{IsValid: true, Payer: "0xPayer"}, nil
	}
	return f.verifyResp, nil
}

func (f *fakeFacilitator) Settle(ctx context.Context, payload x402.PaymentPayload, req x402.PaymentRequirements) (*x402.SettleResponse, error) {
	f.settleCalls++
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	if f.settleResp == nil {
		return &x402.SettleResponse{
			Success:     true,
			Transaction: "0xdeadbeef",
			Network:     req.Network,
			Payer:       "0xPayer",
		}, nil
	}
	return f.settleResp, nil
}

func (f *fakeFacilitator) Supported(ctx context.Context) (*x402.SupportedResponse, error) {
	return &x402.SupportedResponse{}, nil
}

type fixture struct {
	db       *store.Database
	carts    *store.CartRepo
	orders   *store.OrderRepo
	products *store.ProductRepo
	service  *Service
	fac      *fakeFacilitator
}

func newFixture(t *testing.T, verifyOnly bool) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := store.NewWithDialector(sqlite.Open(dsn), nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	rules := pricing.NewRules(
		decimal.RequireFromString("0.0875"),
		decimal.RequireFromString("15.00"),
		[]string{"Digital Services", "API Access", "Compute", "Enterprise"},
	)
	limits := trust.Limits{
		Verified:  decimal.RequireFromString("2000"),
		HighRep:   decimal.RequireFromString("20"),
		Baseline:  decimal.RequireFromString("5"),
		Threshold: 100,
	}

	builder, err := NewRequirementsBuilder([]config.NetworkConfig{
		{Network: x402.NetworkBase, PayTo: merchantEVM},
		{Network: x402.NetworkSolanaMainnet, PayTo: merchantSVM},
	}, 300)
	require.NoError(t, err)

	fac := &fakeFacilitator{}
	carts := store.NewCartRepo(db)
	orders := store.NewOrderRepo(db)

	return &fixture{
		db:       db,
		carts:    carts,
		orders:   orders,
		products: store.NewProductRepo(db),
		fac:      fac,
		service: NewService(db, carts, orders, rules, limits, builder, fac,
			verifyOnly, zap.NewNop()),
	}
}

func (f *fixture) addToCart(t *testing.T, sessionID, name, price, category string, qty int) {
	t.Helper()
	ctx := context.Background()

	product := &store.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Category:      category,
		StockQuantity: 10,
	}
	require.NoError(t, f.db.DB.Create(product).Error)

	cart, err := f.carts.GetOrCreate(ctx, sessionID)
	require.NoError(t, err)
	require.NoError(t, f.carts.AddItem(ctx, cart.ID, product.ID, qty))
}

// headerFor builds an X-PAYMENT header claiming the requirement at idx of
// the current challenge, optionally overriding the amount.
func (f *fixture) headerFor(t *testing.T, sessionID string, idx int, amountOverride string) string {
	t.Helper()

	result, err := f.service.Challenge(context.Background(), sessionID, "http://merchant.test/pay")
	require.NoError(t, err)
	require.Greater(t, len(result.Challenge.Accepts), idx)

	accepted := result.Challenge.Accepts[idx]
	if amountOverride != "" {
		accepted.Amount = amountOverride
	}

	header, err := x402.EncodePayment(x402.PaymentPayload{
		X402Version: x402.Version,
		Accepted:    accepted,
		Payload:     map[string]interface{}{"signature": "0xsigned"},
	})
	require.NoError(t, err)
	return header
}

func TestChallengeDigitalCart(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)

	result, err := f.service.Challenge(context.Background(), "sess-1", "http://merchant.test/pay")
	require.NoError(t, err)

	assert.Equal(t, OutcomePaymentRequired, result.Outcome)
	assert.Equal(t, "3.26", result.Quote.Total.StringFixed(2))

	require.Len(t, result.Challenge.Accepts, 2)
	for _, req := range result.Challenge.Accepts {
		assert.Equal(t, x402.SchemeExact, req.Scheme)
		assert.Equal(t, "3260000", req.Amount, "USDC atomic units for $3.26")
		assert.Equal(t, 300, req.MaxTimeoutSeconds)
	}
	assert.Equal(t, x402.NetworkBase, result.Challenge.Accepts[0].Network)
	assert.Equal(t, merchantEVM, result.Challenge.Accepts[0].PayTo)
	assert.Equal(t, x402.NetworkSolanaMainnet, result.Challenge.Accepts[1].Network)
	assert.Equal(t, merchantSVM, result.Challenge.Accepts[1].PayTo)
}

func TestChallengeIdempotent(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)

	first, err := f.service.Challenge(context.Background(), "sess-1", "http://merchant.test/pay")
	require.NoError(t, err)
	second, err := f.service.Challenge(context.Background(), "sess-1", "http://merchant.test/pay")
	require.NoError(t, err)

	assert.Equal(t, first.Challenge.Accepts, second.Challenge.Accepts)
}

func TestChallengeErrors(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.Challenge(context.Background(), "missing", "http://merchant.test/pay")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, cerr := f.carts.GetOrCreate(context.Background(), "empty")
	require.NoError(t, cerr)
	_, err = f.service.Challenge(context.Background(), "empty", "http://merchant.test/pay")
	assert.ErrorIs(t, err, pricing.ErrEmptyCart)
}

func TestPayHappyPath(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{KeyID: "agent-7"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, result.Outcome)
	assert.Equal(t, trust.TierAnonymous, result.Tier)
	require.NotNil(t, result.Order)
	assert.Equal(t, "3.26", result.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, store.PaymentStatusSettled, result.Order.PaymentStatus)
	assert.Equal(t, "agent-7", result.Order.AgentKeyID)
	require.NotNil(t, result.Settlement)
	assert.Equal(t, "0xdeadbeef", result.Settlement.Transaction)
	assert.Equal(t, 1, f.fac.settleCalls)

	// Durable state: order settled, cart drained.
	stored, err := f.orders.GetByNumber(context.Background(), result.Order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentStatusSettled, stored.PaymentStatus)
	assert.Equal(t, "0xdeadbeef", stored.PaymentTransaction)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("3.00")))

	cart, err := f.carts.GetBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestPaySecondAttemptSeesEmptyCart(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	_, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	require.NoError(t, err)

	// Replaying the same proof finds nothing left to buy; exactly one
	// order exists.
	_, err = f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	assert.ErrorIs(t, err, pricing.ErrEmptyCart)

	orders, err := f.orders.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestPaySpendLimitDenied(t *testing.T) {
	f := newFixture(t, false)
	// $50 physical item: 50 + 4.38 tax + 15 shipping = $69.38, over every
	// tier but verified.
	f.addToCart(t, "sess-1", "Hoodie", "50.00", "Merchandise", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	_, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{Claimed: true, Reputation: 500})

	var limitErr *trust.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "69.38", limitErr.Total.StringFixed(2))
	assert.Equal(t, "20.00", limitErr.Limit.StringFixed(2))

	// Denial is side-effect free: no order, cart intact, no facilitator
	// traffic.
	orders, oerr := f.orders.ListBySession(context.Background(), "sess-1")
	require.NoError(t, oerr)
	assert.Empty(t, orders)

	cart, cerr := f.carts.GetBySession(context.Background(), "sess-1")
	require.NoError(t, cerr)
	assert.Len(t, cart.Items, 1)
	assert.Zero(t, f.fac.settleCalls)

	// A verified agent may buy the same cart.
	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{Verified: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, result.Outcome)
	assert.Equal(t, trust.TierVerified, result.Tier)
}

func TestPaySettlementFailureKeepsOrder(t *testing.T) {
	f := newFixture(t, false)
	f.fac.settleResp = &x402.SettleResponse{Success: false, ErrorReason: "insufficient_funds"}

	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	require.NoError(t, err, "settlement failure is an outcome, not an error")

	assert.Equal(t, OutcomeSettlementFailed, result.Outcome)
	assert.Equal(t, "insufficient_funds", result.FailureReason)

	// The order survives flagged failed; the cart is not restored.
	stored, err := f.orders.GetByNumber(context.Background(), result.Order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentStatusFailed, stored.PaymentStatus)

	cart, err := f.carts.GetBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestPayFacilitatorUnreachableKeepsOrder(t *testing.T) {
	f := newFixture(t, false)
	f.fac.settleErr = fmt.Errorf("%w: connection refused", x402.ErrFacilitatorUnavailable)

	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettlementFailed, result.Outcome)
	assert.Contains(t, result.FailureReason, "settlement error")
	assert.Equal(t, store.PaymentStatusFailed, result.Order.PaymentStatus)
}

func TestPayAmountMismatchRejected(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)

	for _, amount := range []string{"3259999", "3260001"} {
		header := f.headerFor(t, "sess-1", 0, amount)
		_, err := f.service.Pay(context.Background(), "sess-1", header,
			"http://merchant.test/pay", trust.Signals{})
		assert.ErrorIs(t, err, x402.ErrNoMatchingRequirement, "amount %s", amount)
	}

	orders, err := f.orders.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, f.fac.settleCalls)
}

func TestPayMalformedHeader(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)

	_, err := f.service.Pay(context.Background(), "sess-1", "garbage",
		"http://merchant.test/pay", trust.Signals{})
	assert.ErrorIs(t, err, x402.ErrMalformedHeader)

	var payErr *x402.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, x402.ErrCodeMalformedHeader, payErr.Code)
}

func TestPayPriceChangedSinceChallenge(t *testing.T) {
	f := newFixture(t, false)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	// Cart grows between challenge and payment; the stale proof no longer
	// matches the recomputed amount.
	f.addToCart(t, "sess-1", "Addon", "1.00", "Digital Services", 1)

	_, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	assert.ErrorIs(t, err, x402.ErrNoMatchingRequirement)
}

func TestPayVerifyOnlyMode(t *testing.T) {
	f := newFixture(t, true)
	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeVerified, result.Outcome)
	assert.Equal(t, 1, f.fac.verifyCalls)
	assert.Zero(t, f.fac.settleCalls)
	assert.Equal(t, store.PaymentStatusSettled, result.Order.PaymentStatus)
	assert.Empty(t, result.Order.PaymentTransaction)
}

func TestPayVerifyOnlyRejection(t *testing.T) {
	f := newFixture(t, true)
	f.fac.verifyResp = &x402.VerifyResponse{IsValid: false, InvalidReason: "expired"}

	f.addToCart(t, "sess-1", "Report", "3.00", "Digital Services", 1)
	header := f.headerFor(t, "sess-1", 0, "")

	result, err := f.service.Pay(context.Background(), "sess-1", header,
		"http://merchant.test/pay", trust.Signals{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettlementFailed, result.Outcome)
	assert.Equal(t, "expired", result.FailureReason)
	assert.Equal(t, store.PaymentStatusFailed, result.Order.PaymentStatus)
}

func TestRequirementsBuilderValidation(t *testing.T) {
	_, err := NewRequirementsBuilder(nil, 300)
	assert.Error(t, err)

	_, err = NewRequirementsBuilder([]config.NetworkConfig{
		{Network: "eip155:1", PayTo: merchantEVM},
	}, 300)
	assert.ErrorIs(t, err, x402.ErrInvalidNetwork)

	_, err = NewRequirementsBuilder([]config.NetworkConfig{
		{Network: x402.NetworkBase, PayTo: ""},
	}, 300)
	assert.Error(t, err)
}
