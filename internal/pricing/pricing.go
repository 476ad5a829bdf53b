// Package pricing computes authoritative order totals. The buyer never
// states a price; the server derives it from the cart and current catalog
// prices, and the same quote feeds both the 402 challenge and the final
// order record.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentpay/merchant-backend/internal/store"
)

// ErrEmptyCart indicates a cart with no items; there is nothing to price.
var ErrEmptyCart = errors.New("pricing: cart is empty")

// Rules holds the pricing constants.
type Rules struct {
	// TaxRate is the flat sales tax rate, e.g. 0.0875 for 8.75%.
	TaxRate decimal.Decimal

	// ShippingFee is the flat fee for carts with any physical item.
	ShippingFee decimal.Decimal

	// DigitalCategories are the category names, lowercase, that require
	// no shipping.
	DigitalCategories map[string]bool
}

// NewRules builds pricing rules from configured values.
func NewRules(taxRate, shippingFee decimal.Decimal, digitalCategories []string) Rules {
	digital := make(map[string]bool, len(digitalCategories))
	for _, c := range digitalCategories {
		digital[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return Rules{
		TaxRate:           taxRate,
		ShippingFee:       shippingFee,
		DigitalCategories: digital,
	}
}

// Quote is a priced cart. All amounts are USD with two-decimal rounding
// applied once, at the end of each component.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Total          decimal.Decimal `json:"total_amount"`
	IsFullyDigital bool            `json:"is_fully_digital"`
}

// Price computes the quote for a cart. Unit prices come from the loaded
// product rows, so a quote is consistent with the catalog at the moment
// the cart was read.
//
// Total = round(subtotal) + round(subtotal*taxRate) + shipping. Shipping
// is zero only when every item's category is digital; an uncategorized
// product counts as physical.
func (r Rules) Price(items []store.CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := decimal.Zero
	fullyDigital := true
	for _, item := range items {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)

		category := strings.ToLower(strings.TrimSpace(item.Product.Category))
		if !r.DigitalCategories[category] {
			fullyDigital = false
		}
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(r.TaxRate).Round(2)

	shipping := r.ShippingFee
	if fullyDigital {
		shipping = decimal.Zero
	}

	return &Quote{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		Total:          subtotal.Add(tax).Add(shipping),
		IsFullyDigital: fullyDigital,
	}, nil
}
