package x402

import (
	"encoding/base64"
	"reflect"
	"testing"
)

func TestEncodeDecodePayment(t *testing.T) {
	original := PaymentPayload{
		X402Version: 2,
		Resource: &ResourceInfo{
			URL:         "https://merchant.example.com/api/cart/abc/x402/pay",
			Description: "Cart checkout",
		},
		Accepted: PaymentRequirements{
			Scheme:            SchemeExact,
			Network:           NetworkBase,
			Amount:            "3260000",
			Asset:             BaseMainnet.USDCAddress,
			PayTo:             "0x1234567890123456789012345678901234567890",
			MaxTimeoutSeconds: 300,
		},
		Payload: map[string]interface{}{"signature": "0xabcdef"},
	}

	encoded, err := EncodePayment(original)
	if err != nil {
		t.Fatalf("EncodePayment() error = %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
		t.Errorf("EncodePayment() result is not valid base64: %v", err)
	}

	decoded, err := DecodePayment(encoded)
	if err != nil {
		t.Fatalf("DecodePayment() error = %v", err)
	}
	if decoded.X402Version != original.X402Version {
		t.Errorf("X402Version = %d; want %d", decoded.X402Version, original.X402Version)
	}
	if !reflect.DeepEqual(decoded.Accepted, original.Accepted) {
		t.Errorf("Accepted = %+v; want %+v", decoded.Accepted, original.Accepted)
	}
	if decoded.Resource == nil || decoded.Resource.URL != original.Resource.URL {
		t.Errorf("Resource = %+v; want %+v", decoded.Resource, original.Resource)
	}
}

func TestDecodePaymentInvalid(t *testing.T) {
	if _, err := DecodePayment("not base64!!!"); err == nil {
		t.Error("DecodePayment() should reject invalid base64")
	}
	notJSON := base64.StdEncoding.EncodeToString([]byte("not json"))
	if _, err := DecodePayment(notJSON); err == nil {
		t.Error("DecodePayment() should reject invalid JSON")
	}
}

func TestEncodeDecodeSettlement(t *testing.T) {
	original := SettleResponse{
		Success:     true,
		Transaction: "0xdeadbeef",
		Network:     NetworkBase,
		Payer:       "0xPayer",
	}

	encoded, err := EncodeSettlement(original)
	if err != nil {
		t.Fatalf("EncodeSettlement() error = %v", err)
	}
	decoded, err := DecodeSettlement(encoded)
	if err != nil {
		t.Fatalf("DecodeSettlement() error = %v", err)
	}
	if decoded != original {
		t.Errorf("DecodeSettlement() = %+v; want %+v", decoded, original)
	}
}
