package x402

import (
	"errors"
	"testing"
)

func TestChainConfigs(t *testing.T) {
	tests := []struct {
		name   string
		config ChainConfig
	}{
		{"BaseMainnet", BaseMainnet},
		{"BaseSepolia", BaseSepolia},
		{"SolanaMainnet", SolanaMainnet},
		{"SolanaDevnet", SolanaDevnet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config.USDCAddress == "" {
				t.Error("USDCAddress should not be empty")
			}
			if tt.config.Decimals != 6 {
				t.Errorf("Decimals = %d; want 6", tt.config.Decimals)
			}
			got, err := GetChainConfig(tt.config.Network)
			if err != nil {
				t.Fatalf("GetChainConfig(%s) error = %v", tt.config.Network, err)
			}
			if got != tt.config {
				t.Errorf("GetChainConfig(%s) = %+v; want %+v", tt.config.Network, got, tt.config)
			}
		})
	}
}

func TestGetChainConfigUnknown(t *testing.T) {
	_, err := GetChainConfig("eip155:1")
	if !errors.Is(err, ErrInvalidNetwork) {
		t.Errorf("GetChainConfig(eip155:1) error = %v; want ErrInvalidNetwork", err)
	}
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		name     string
		network  string
		wantType NetworkType
		wantErr  bool
	}{
		{name: "base mainnet", network: "eip155:8453", wantType: NetworkTypeEVM},
		{name: "base sepolia", network: "eip155:84532", wantType: NetworkTypeEVM},
		{name: "solana mainnet", network: NetworkSolanaMainnet, wantType: NetworkTypeSVM},
		{name: "solana devnet", network: NetworkSolanaDevnet, wantType: NetworkTypeSVM},
		{name: "empty", network: "", wantErr: true},
		{name: "missing namespace", network: "8453", wantErr: true},
		{name: "missing reference", network: "eip155:", wantErr: true},
		{name: "non-numeric chain id", network: "eip155:base", wantErr: true},
		{name: "short solana reference", network: "solana:abc", wantErr: true},
		{name: "unknown namespace", network: "cosmos:cosmoshub-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, err := ValidateNetwork(tt.network)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateNetwork(%q) expected error", tt.network)
				}
				if !errors.Is(err, ErrInvalidNetwork) {
					t.Errorf("error = %v; want ErrInvalidNetwork", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateNetwork(%q) error = %v", tt.network, err)
			}
			if gotType != tt.wantType {
				t.Errorf("ValidateNetwork(%q) = %v; want %v", tt.network, gotType, tt.wantType)
			}
		})
	}
}
