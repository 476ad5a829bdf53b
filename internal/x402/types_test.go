package x402

import (
	"errors"
	"testing"
)

func TestAmountToBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "whole dollars", amount: "3", decimals: 6, want: "3000000"},
		{name: "two decimal places", amount: "3.26", decimals: 6, want: "3260000"},
		{name: "full precision", amount: "0.000001", decimals: 6, want: "1"},
		{name: "zero", amount: "0", decimals: 6, want: "0"},
		{name: "zero decimals", amount: "100", decimals: 0, want: "100"},
		{name: "leading zeros", amount: "0100", decimals: 0, want: "100"},
		{name: "large total", amount: "2175.74", decimals: 6, want: "2175740000"},
		{name: "excess precision rejected", amount: "0.0000001", decimals: 6, wantErr: true},
		{name: "negative rejected", amount: "-1", decimals: 6, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "negative decimals", amount: "1", decimals: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountToBigInt(tt.amount, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AmountToBigInt(%q, %d) expected error, got %s", tt.amount, tt.decimals, got)
				}
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("error = %v; want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AmountToBigInt(%q, %d) error = %v", tt.amount, tt.decimals, err)
			}
			if got.String() != tt.want {
				t.Errorf("AmountToBigInt(%q, %d) = %s; want %s", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestBigIntToAmount(t *testing.T) {
	atomic, err := AmountToBigInt("3.26", 6)
	if err != nil {
		t.Fatalf("AmountToBigInt() error = %v", err)
	}
	if got := BigIntToAmount(atomic, 6); got != "3.260000" {
		t.Errorf("BigIntToAmount(3260000, 6) = %s; want 3.260000", got)
	}
	if got := BigIntToAmount(nil, 6); got != "0" {
		t.Errorf("BigIntToAmount(nil, 6) = %s; want 0", got)
	}
}
