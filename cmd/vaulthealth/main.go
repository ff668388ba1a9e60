package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aastarcommunity/keyvault/enclave"
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

	version, err := client.Version()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching version: %v\n", err)
		os.Exit(1)
	}

	health, err := client.Health()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching health: %v\n", err)
		os.Exit(1)
	}

	status := "DEGRADED"
	if health.Status == enclave.HealthOK {
		status = "OK"
	}

	fmt.Printf("Engine version:   %d.%d.%d (%s)\n", version.Major, version.Minor, version.Patch, version.BuildInfo)
	fmt.Printf("Status:           %s\n", status)
	fmt.Printf("Active sessions:  %d\n", health.ActiveSessions)
	fmt.Printf("Total operations: %d\n", health.TotalOperations)
	fmt.Printf("Storage usage:    %d bytes\n", health.StorageUsage)
	fmt.Printf("Uptime:           %s\n", (time.Duration(health.Uptime) * time.Second).String())

	if health.Status != enclave.HealthOK {
		os.Exit(1)
	}
}
