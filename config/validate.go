package config

import (
	"fmt"
	"net"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// maxFeeBPS and maxYieldBPS mirror the limits enforced by the fee
// collector and the vault, so a bad configuration fails at load rather
// than at first use.
const (
	maxFeeBPS   = 1000
	maxYieldBPS = 10_000
)

// ValidateConfig checks that all configuration values are within
// acceptable ranges and returns the first error encountered, or nil if
// valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.FeeBPS > maxFeeBPS {
		return fmt.Errorf("%w: %d bps", ErrFeeOutOfRange, cfg.FeeBPS)
	}

	if cfg.YieldBPS > maxYieldBPS {
		return fmt.Errorf("%w: %d bps", ErrYieldOutOfRange, cfg.YieldBPS)
	}

	if cfg.AutoReleaseDays == 0 {
		return ErrZeroAutoRelease
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
