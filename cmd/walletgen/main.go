// Command walletgen generates merchant receiving wallets: a secp256k1 key
// for EVM networks and an ed25519 keypair for Solana. Run once at merchant
// setup and paste the printed addresses into payment.networks.
//
// Private keys are printed to stdout and nowhere else. Store them in a
// secret manager; this service never needs them — it only receives.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

func main() {
	evmOnly := flag.Bool("evm", false, "generate only the EVM wallet")
	svmOnly := flag.Bool("svm", false, "generate only the Solana wallet")
	flag.Parse()

	both := !*evmOnly && !*svmOnly

	if *evmOnly || both {
		if err := generateEVM(); err != nil {
			fmt.Fprintf(os.Stderr, "EVM wallet generation failed: %v\n", err)
			os.Exit(1)
		}
	}
	if *svmOnly || both {
		if err := generateSVM(); err != nil {
			fmt.Fprintf(os.Stderr, "Solana wallet generation failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func generateEVM() error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	fmt.Println("# EVM (Base) merchant wallet")
	fmt.Printf("EVM_ADDRESS=%s\n", address.Hex())
	fmt.Printf("EVM_PRIVATE_KEY=%s\n", hex.EncodeToString(crypto.FromECDSA(key)))
	fmt.Println()
	return nil
}

func generateSVM() error {
	wallet := solana.NewWallet()

	fmt.Println("# Solana merchant wallet")
	fmt.Printf("SOLANA_ADDRESS=%s\n", wallet.PublicKey().String())
	fmt.Printf("SOLANA_PRIVATE_KEY=%s\n", wallet.PrivateKey.String())
	fmt.Println()
	fmt.Println("# Note: create the wallet's USDC associated token account before")
	fmt.Println("# accepting Solana payments, or settlement transfers will fail.")
	return nil
}
