package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Payment proofs and settlement receipts travel in HTTP headers as
// base64-encoded JSON: X-PAYMENT on the request, X-PAYMENT-RESPONSE on the
// response.

// EncodePayment converts a PaymentPayload to its header encoding.
func EncodePayment(payment PaymentPayload) (string, error) {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(paymentJSON), nil
}

// DecodePayment converts a header value back to a PaymentPayload.
func DecodePayment(encoded string) (PaymentPayload, error) {
	var payment PaymentPayload

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payment, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &payment); err != nil {
		return payment, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	return payment, nil
}

// EncodeSettlement converts a SettleResponse to its header encoding.
func EncodeSettlement(settlement SettleResponse) (string, error) {
	settlementJSON, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(settlementJSON), nil
}

// DecodeSettlement converts a header value back to a SettleResponse.
func DecodeSettlement(encoded string) (SettleResponse, error) {
	var settlement SettleResponse

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return settlement, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &settlement); err != nil {
		return settlement, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	return settlement, nil
}
