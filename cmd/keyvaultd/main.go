package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aastarcommunity/keyvault/config"
	"github.com/aastarcommunity/keyvault/enclave"
	"github.com/aastarcommunity/keyvault/wire"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to TOML configuration file (optional)")
		socketPath = flag.String("socket", "", "Unix socket to listen on (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.Socket.Path = *socketPath
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	scheme, err := cfg.AddressScheme()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := enclave.New(
		enclave.WithCapacity(cfg.Keys.Capacity),
		enclave.WithAddressScheme(scheme),
		enclave.WithRecoveryID(cfg.Keys.RecoveryID),
	)
	defer engine.Close()

	server := wire.NewServer(engine, logger)
	if err := server.Listen(cfg.Socket.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		server.Shutdown()
	}()

	logger.Info("keyvaultd listening",
		"socket", cfg.Socket.Path,
		"capacity", cfg.Keys.Capacity,
		"address_scheme", cfg.Keys.AddressScheme,
	)
	if err := server.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("keyvaultd stopped")
}

// buildLogger constructs the daemon logger from the logging config.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
