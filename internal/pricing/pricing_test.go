package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpay/merchant-backend/internal/store"
)

func testRules() Rules {
	return NewRules(
		decimal.RequireFromString("0.0875"),
		decimal.RequireFromString("15.00"),
		[]string{"Digital Services", "API Access", "Data & Analytics", "Compute", "Enterprise"},
	)
}

func item(priceStr, category string, qty int) store.CartItem {
	return store.CartItem{
		Quantity: qty,
		Product: store.Product{
			Price:    decimal.RequireFromString(priceStr),
			Category: category,
		},
	}
}

func TestPriceDigitalCart(t *testing.T) {
	// One $3.00 digital item: no shipping, 8.75% tax, total $3.26.
	quote, err := testRules().Price([]store.CartItem{item("3.00", "Digital Services", 1)})
	require.NoError(t, err)

	assert.Equal(t, "3.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "0.26", quote.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.00", quote.ShippingCost.StringFixed(2))
	assert.Equal(t, "3.26", quote.Total.StringFixed(2))
	assert.True(t, quote.IsFullyDigital)
}

func TestPricePhysicalCartAddsShipping(t *testing.T) {
	quote, err := testRules().Price([]store.CartItem{item("50.00", "Merchandise", 1)})
	require.NoError(t, err)

	assert.Equal(t, "50.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "4.38", quote.TaxAmount.StringFixed(2))
	assert.Equal(t, "15.00", quote.ShippingCost.StringFixed(2))
	assert.Equal(t, "69.38", quote.Total.StringFixed(2))
	assert.False(t, quote.IsFullyDigital)
}

func TestPriceMixedCartShipsOnce(t *testing.T) {
	// A single physical item makes the whole cart physical; shipping is a
	// flat fee, not per item.
	quote, err := testRules().Price([]store.CartItem{
		item("3.00", "Digital Services", 2),
		item("10.00", "Merchandise", 3),
	})
	require.NoError(t, err)

	assert.Equal(t, "36.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", quote.ShippingCost.StringFixed(2))
	assert.False(t, quote.IsFullyDigital)
}

func TestPriceCategoryCaseInsensitive(t *testing.T) {
	quote, err := testRules().Price([]store.CartItem{item("1.00", "dIgItAl SeRvIcEs", 1)})
	require.NoError(t, err)
	assert.True(t, quote.IsFullyDigital)
}

func TestPriceUncategorizedCountsAsPhysical(t *testing.T) {
	quote, err := testRules().Price([]store.CartItem{item("1.00", "", 1)})
	require.NoError(t, err)
	assert.False(t, quote.IsFullyDigital)
	assert.Equal(t, "15.00", quote.ShippingCost.StringFixed(2))
}

func TestPriceEmptyCart(t *testing.T) {
	_, err := testRules().Price(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceDeterministic(t *testing.T) {
	// Challenge-time and settlement-time pricing must agree exactly for an
	// unchanged cart.
	items := []store.CartItem{
		item("19.99", "Digital Services", 3),
		item("0.50", "API Access", 7),
	}
	rules := testRules()

	first, err := rules.Price(items)
	require.NoError(t, err)
	second, err := rules.Price(items)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first, second)
}

func TestPriceQuantityMultiplies(t *testing.T) {
	quote, err := testRules().Price([]store.CartItem{item("2.99", "Data & Analytics", 4)})
	require.NoError(t, err)
	assert.Equal(t, "11.96", quote.Subtotal.StringFixed(2))
}
