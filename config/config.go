// Package config handles engine configuration: defaults, a key=value
// configuration file, environment overrides, and validation.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds engine-wide settings shared by the factory, the fee
// collector, the yield vault, and the HTTP surface.
type Config struct {
	// DataDir is where the registry's bolt database lives.
	DataDir string `env:"ARC_ESCROW_DATADIR"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `env:"ARC_ESCROW_LISTEN"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `env:"ARC_ESCROW_LOGLEVEL"`

	// FeeBPS is the payer-side fee rate in basis points.
	FeeBPS uint64 `env:"ARC_ESCROW_FEE_BPS"`

	// YieldBPS is the vault's annual yield rate in basis points.
	YieldBPS uint64 `env:"ARC_ESCROW_YIELD_BPS"`

	// AutoReleaseDays is the default auto-release window for new escrows.
	AutoReleaseDays uint32 `env:"ARC_ESCROW_AUTORELEASE_DAYS"`

	// FeeAdmin is the identity allowed to change the fee rate.
	FeeAdmin string `env:"ARC_ESCROW_FEE_ADMIN"`

	// VaultAdmin is the identity allowed to change the yield rate.
	VaultAdmin string `env:"ARC_ESCROW_VAULT_ADMIN"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:         filepath.Join(home, ".arcescrow"),
		ListenAddr:      ":8080",
		LogLevel:        "info",
		FeeBPS:          100,
		YieldBPS:        380,
		AutoReleaseDays: 30,
		FeeAdmin:        "fee-admin",
		VaultAdmin:      "vault-admin",
	}
}

// ApplyEnv overlays ARC_ESCROW_* environment variables onto cfg.
// Unset variables leave the existing values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// LoadConfig reads a key=value configuration file into a copy of the
// defaults. Blank lines and lines starting with '#' are ignored. Values
// may contain '=' characters; only the first one splits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as a key=value file, creating the
// parent directory if needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "datadir=%s\n", cfg.DataDir)
	fmt.Fprintf(&b, "listen=%s\n", cfg.ListenAddr)
	fmt.Fprintf(&b, "loglevel=%s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "feebps=%d\n", cfg.FeeBPS)
	fmt.Fprintf(&b, "yieldbps=%d\n", cfg.YieldBPS)
	fmt.Fprintf(&b, "autoreleasedays=%d\n", cfg.AutoReleaseDays)
	fmt.Fprintf(&b, "feeadmin=%s\n", cfg.FeeAdmin)
	fmt.Fprintf(&b, "vaultadmin=%s\n", cfg.VaultAdmin)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// set applies a single key=value pair. Unknown keys are rejected.
func (c *Config) set(key, value string) error {
	switch strings.ToLower(key) {
	case "datadir":
		c.DataDir = value
	case "listen":
		c.ListenAddr = value
	case "loglevel":
		c.LogLevel = value
	case "feebps":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("feebps: %w", err)
		}
		c.FeeBPS = v
	case "yieldbps":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("yieldbps: %w", err)
		}
		c.YieldBPS = v
	case "autoreleasedays":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("autoreleasedays: %w", err)
		}
		c.AutoReleaseDays = uint32(v)
	case "feeadmin":
		c.FeeAdmin = value
	case "vaultadmin":
		c.VaultAdmin = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}
