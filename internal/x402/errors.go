package x402

import "errors"

// Sentinel errors for the merchant-side payment pipeline. Each maps to a
// distinct caller remediation, so they are never collapsed into one another:
// a malformed header needs a resubmit with a valid proof, a match failure
// needs a supported network/amount, a settlement failure needs operator
// attention.
var (
	// ErrMalformedHeader indicates the X-PAYMENT header could not be decoded.
	ErrMalformedHeader = errors.New("x402: malformed payment header")

	// ErrUnsupportedVersion indicates an unsupported protocol version.
	ErrUnsupportedVersion = errors.New("x402: unsupported protocol version")

	// ErrNoMatchingRequirement indicates the proof satisfies none of the
	// offered requirements.
	ErrNoMatchingRequirement = errors.New("x402: payment matches no accepted requirement")

	// ErrInvalidAmount indicates an amount string that is not a valid
	// non-negative decimal in the asset's precision.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrInvalidNetwork indicates an unrecognized or unsupported network.
	ErrInvalidNetwork = errors.New("x402: invalid or unsupported network")

	// ErrFacilitatorUnavailable indicates the facilitator could not be reached.
	ErrFacilitatorUnavailable = errors.New("x402: facilitator service unavailable")

	// ErrVerificationFailed indicates the facilitator rejected the payment
	// before settlement.
	ErrVerificationFailed = errors.New("x402: payment verification failed")

	// ErrSettlementFailed indicates on-chain settlement did not complete.
	ErrSettlementFailed = errors.New("x402: payment settlement failed")
)

// ErrorCode classifies payment errors for programmatic handling and
// response bodies.
type ErrorCode string

const (
	ErrCodeMalformedHeader    ErrorCode = "MALFORMED_HEADER"
	ErrCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
	ErrCodeNoMatch            ErrorCode = "NO_MATCHING_REQUIREMENT"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidNetwork     ErrorCode = "INVALID_NETWORK"
	ErrCodeFacilitator        ErrorCode = "FACILITATOR_ERROR"
	ErrCodeSettlement         ErrorCode = "SETTLEMENT_FAILED"
)

// PaymentError provides structured error information.
type PaymentError struct {
	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a PaymentError with the given code and message.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds additional context to the error.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
