package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/crypto/keystore"
	"github.com/aastarcommunity/keyvault/wire"
)

func main() {
	var (
		socketPath = flag.String("socket", "/tmp/keyvaultd.sock", "Path to keyvaultd Unix socket")
		keyID      = flag.String("id", "", "Key identifier (defaults to a random UUID)")
	)
	flag.Parse()

	if *keyID == "" {
		*keyID = uuid.NewString()
	}

	client, err := wire.Dial(*socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to daemon: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	address, err := client.GenerateKey(*keyID, keystore.KeyTypeECDSASecp256k1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Key generated successfully:\n")
	fmt.Printf("  Key ID:  %s\n", *keyID)
	fmt.Printf("  Address: %s\n", crypto.ChecksumAddress(address))
	fmt.Printf("  Raw:     %s\n", hex.EncodeToString(address[:]))
}
