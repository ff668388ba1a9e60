package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/wire"
)

func main() {
	var (
		socketPath = flag.String("socket", "/tmp/keyvaultd.sock", "Path to keyvaultd Unix socket")
	)
	flag.Parse()

	client, err := wire.Dial(*socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to daemon: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	result, err := client.ListKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing keys: %v\n", err)
		os.Exit(1)
	}

	if len(result.Keys) == 0 {
		fmt.Println("No keys stored.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY ID\tTYPE\tSTATUS\tADDRESS\tUSES\tCREATED")
	for _, info := range result.Keys {
		created := time.Unix(int64(info.CreatedTime), 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			info.KeyID,
			info.KeyType,
			info.Status,
			crypto.ChecksumAddress(info.Address),
			info.UsageCount,
			created,
		)
	}
	w.Flush()
}
