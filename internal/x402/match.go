package x402

import "strings"

// ParsePaymentHeader decodes a raw X-PAYMENT header value into a
// PaymentPayload. Nothing in the header is trusted before this decode
// succeeds. Returns ErrMalformedHeader for structurally invalid input and
// ErrUnsupportedVersion for a version mismatch.
func ParsePaymentHeader(raw string) (*PaymentPayload, error) {
	if raw == "" {
		return nil, ErrMalformedHeader
	}

	payment, err := DecodePayment(raw)
	if err != nil {
		return nil, NewPaymentError(ErrCodeMalformedHeader, "failed to decode payment header", ErrMalformedHeader).
			WithDetails("cause", err.Error())
	}

	if payment.X402Version != Version {
		return nil, NewPaymentError(ErrCodeUnsupportedVersion, "unsupported x402 version", ErrUnsupportedVersion).
			WithDetails("version", payment.X402Version)
	}

	return &payment, nil
}

// MatchRequirement finds the offered requirement the proof satisfies.
// The match is exact on scheme, network, recipient, and amount: an amount
// that differs by any nonzero value, over or under, is not a match — the
// exact scheme never accepts a lower payment and never silently keeps an
// overpayment. The first exact match in requirement-list order wins.
//
// Returns ErrNoMatchingRequirement when nothing matches.
func MatchRequirement(payment *PaymentPayload, requirements []PaymentRequirements) (*PaymentRequirements, error) {
	accepted := payment.Accepted
	for i := range requirements {
		req := &requirements[i]
		if req.Scheme != accepted.Scheme {
			continue
		}
		if req.Network != accepted.Network {
			continue
		}
		if !strings.EqualFold(req.PayTo, accepted.PayTo) {
			continue
		}
		if !amountsEqual(req.Amount, accepted.Amount) {
			continue
		}
		return req, nil
	}

	return nil, NewPaymentError(ErrCodeNoMatch, "payment does not match any accepted requirement", ErrNoMatchingRequirement).
		WithDetails("scheme", accepted.Scheme).
		WithDetails("network", accepted.Network).
		WithDetails("amount", accepted.Amount)
}

// amountsEqual compares two atomic-unit amount strings numerically, so
// "0100" and "100" compare equal while anything non-numeric never matches.
func amountsEqual(a, b string) bool {
	x, err := AmountToBigInt(a, 0)
	if err != nil {
		return false
	}
	y, err := AmountToBigInt(b, 0)
	if err != nil {
		return false
	}
	return x.Cmp(y) == 0
}
