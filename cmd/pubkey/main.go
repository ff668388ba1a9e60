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
	)
	flag.Parse()

	if *keyID == "" {
		fmt.Fprintf(os.Stderr, "Error: -id is required\n")
		os.Exit(1)
	}

	client, err := wire.Dial(*socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to daemon: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	result, err := client.GetPublicKey(*keyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching public key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Key ID:     %s\n", *keyID)
	fmt.Printf("Public key: %s\n", hex.EncodeToString(result.PublicKey[:result.PublicKeyLen]))
	fmt.Printf("Address:    %s\n", crypto.ChecksumAddress(result.Address))
}
