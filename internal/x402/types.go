// Package x402 implements the merchant side of the x402 payment protocol:
// the wire types exchanged with buyers and facilitators, header codecs, and
// proof-to-requirement matching.
//
// Network identifiers use CAIP-2 form (e.g. "eip155:8453", "solana:...").
// Amounts on the wire are atomic units of the asset (10^-6 for USDC).
package x402

import "math/big"

// Version is the protocol version this server speaks.
const Version = 2

// Scheme identifiers. Only the exact-amount scheme is accepted: a proof must
// carry precisely the required amount, never more or less.
const SchemeExact = "exact"

// ResourceInfo describes the paid resource referenced by a challenge.
type ResourceInfo struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// PaymentRequirements is a single payment option the merchant will accept.
// A 402 challenge carries one per supported network; the buyer satisfies
// exactly one.
type PaymentRequirements struct {
	// Scheme is the payment scheme identifier (always "exact" here).
	Scheme string `json:"scheme"`

	// Network is the CAIP-2 network identifier.
	Network string `json:"network"`

	// Amount is the required payment in atomic units, as a decimal string.
	Amount string `json:"amount"`

	// Asset is the token contract address (EVM) or mint address (Solana).
	Asset string `json:"asset"`

	// PayTo is the merchant's receiving address on this network.
	PayTo string `json:"payTo"`

	// MaxTimeoutSeconds bounds how long the facilitator may take to settle.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	// Extra carries scheme- or network-specific metadata, e.g. the
	// facilitator's feePayer for Solana fee sponsorship.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// PaymentRequired is the body of a 402 response.
type PaymentRequired struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error,omitempty"`
	Resource    *ResourceInfo         `json:"resource,omitempty"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// PaymentPayload is the decoded X-PAYMENT header: the buyer's signed payment
// instruction together with the requirement it claims to satisfy.
type PaymentPayload struct {
	X402Version int                 `json:"x402Version"`
	Resource    *ResourceInfo       `json:"resource,omitempty"`
	Accepted    PaymentRequirements `json:"accepted"`

	// Payload is the network-specific signed data: an EVMPayload-shaped
	// object for EVM networks, an SVMPayload-shaped object for Solana.
	// Opaque to the merchant; only the facilitator interprets it.
	Payload interface{} `json:"payload"`
}

// EVMPayload is the EIP-3009 authorization carried for EVM payments.
type EVMPayload struct {
	Signature     string           `json:"signature"`
	Authorization EVMAuthorization `json:"authorization"`
}

// EVMAuthorization holds transferWithAuthorization parameters.
type EVMAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// SVMPayload carries a base64-encoded, partially signed Solana transaction.
// The facilitator adds the fee payer signature before broadcast.
type SVMPayload struct {
	Transaction string `json:"transaction"`
}

// VerifyResponse is the facilitator's answer to a verification request.
type VerifyResponse struct {
	IsValid        bool   `json:"isValid"`
	InvalidReason  string `json:"invalidReason,omitempty"`
	InvalidMessage string `json:"invalidMessage,omitempty"`
	Payer          string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's answer to a settlement request. The
// facilitator verifies and settles in one call, so this is the terminal
// outcome of a payment attempt.
type SettleResponse struct {
	Success      bool   `json:"success"`
	ErrorReason  string `json:"errorReason,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Transaction is the on-chain transaction hash or signature.
	Transaction string `json:"transaction"`

	// Network is where the payment settled (CAIP-2).
	Network string `json:"network"`

	Payer string `json:"payer,omitempty"`
}

// SupportedKind describes one payment type a facilitator supports.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse is the facilitator's /supported listing.
type SupportedResponse struct {
	Kinds   []SupportedKind     `json:"kinds"`
	Signers map[string][]string `json:"signers,omitempty"`
}

// AmountToBigInt converts a decimal amount string to atomic units.
// "3.26" with 6 decimals becomes 3260000. The conversion is exact: amounts
// with more fractional digits than the asset supports are rejected rather
// than rounded, since a rounded requirement could never be matched exactly.
func AmountToBigInt(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, ErrInvalidAmount
	}

	value := new(big.Rat)
	if _, ok := value.SetString(amount); !ok {
		return nil, ErrInvalidAmount
	}
	if value.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value.Mul(value, scale)

	if value.Denom().Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInvalidAmount
	}
	return new(big.Int).Set(value.Num()), nil
}

// BigIntToAmount converts atomic units back to a decimal string.
// 3260000 with 6 decimals becomes "3.260000".
func BigIntToAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}

	rat := new(big.Rat).SetInt(value)
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	rat.Quo(rat, scale)

	return rat.FloatString(decimals)
}
