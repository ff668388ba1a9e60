// Package config handles configuration loading and validation for the
// keyvault daemon.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/wire"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Socket configures the command transport.
	Socket SocketConfig `toml:"socket"`

	// Keys configures the key store and derivation rules.
	Keys KeysConfig `toml:"keys"`

	// Logging configures daemon logging.
	Logging LoggingConfig `toml:"logging"`
}

// SocketConfig holds transport configuration.
type SocketConfig struct {
	// Path is the Unix socket the daemon listens on.
	Path string `toml:"path"`
}

// KeysConfig holds key store configuration.
type KeysConfig struct {
	// Capacity is the maximum number of live keys. It may not exceed the
	// wire contract's fixed key list size.
	Capacity int `toml:"capacity"`

	// AddressScheme selects the address derivation digest: "sha256"
	// (reference behavior, default) or "keccak256" (standard Ethereum).
	AddressScheme string `toml:"address_scheme"`

	// RecoveryID enables true ECDSA recovery-id reporting. When false the
	// daemon reports the reference placeholder of zero.
	RecoveryID bool `toml:"recovery_id"`
}

// LoggingConfig holds daemon logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: defaultSocketPath(),
		},
		Keys: KeysConfig{
			Capacity:      16,
			AddressScheme: "sha256",
			RecoveryID:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "keyvaultd.sock")
	}
	return filepath.Join(os.TempDir(), "keyvaultd.sock")
}

// Load reads a TOML configuration file, layering it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot honor.
func (c *Config) Validate() error {
	if c.Socket.Path == "" {
		return fmt.Errorf("socket.path must not be empty")
	}
	if c.Keys.Capacity < 1 || c.Keys.Capacity > wire.KeyListMaxKeys {
		return fmt.Errorf("keys.capacity must be between 1 and %d, got %d", wire.KeyListMaxKeys, c.Keys.Capacity)
	}
	if _, err := crypto.ParseAddressScheme(c.Keys.AddressScheme); err != nil {
		return fmt.Errorf("keys.address_scheme: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// AddressScheme returns the parsed address derivation scheme.
func (c *Config) AddressScheme() (crypto.AddressScheme, error) {
	return crypto.ParseAddressScheme(c.Keys.AddressScheme)
}

// LogLevel returns the parsed slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
