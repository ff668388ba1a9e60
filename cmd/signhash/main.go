package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/wire"
)

func main() {
	var (
		socketPath = flag.String("socket", "/tmp/keyvaultd.sock", "Path to keyvaultd Unix socket")
		keyID      = flag.String("id", "", "Key identifier (required)")
		hashHex    = flag.String("hash", "", "32-byte message hash, hex encoded (required)")
	)
	flag.Parse()

	if *keyID == "" {
		fmt.Fprintf(os.Stderr, "Error: -id is required\n")
		os.Exit(1)
	}
	if *hashHex == "" {
		fmt.Fprintf(os.Stderr, "Error: -hash is required\n")
		os.Exit(1)
	}

	hash, err := hex.DecodeString(*hashHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -hash is not valid hex: %v\n", err)
		os.Exit(1)
	}
	if len(hash) != crypto.DigestSize {
		fmt.Fprintf(os.Stderr, "Error: -hash must be %d bytes, got %d\n", crypto.DigestSize, len(hash))
		os.Exit(1)
	}

	client, err := wire.Dial(*socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to daemon: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	result, err := client.SignMessage(*keyID, hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing message: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message signed successfully:\n")
	fmt.Printf("  Key ID:      %s\n", *keyID)
	fmt.Printf("  Signature:   %s\n", hex.EncodeToString(result.Signature[:result.SignatureLen]))
	fmt.Printf("  Recovery ID: %d\n", result.RecoveryID)
}
