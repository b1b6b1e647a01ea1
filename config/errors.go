package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrFeeOutOfRange indicates a fee rate the collector would reject.
	ErrFeeOutOfRange = errors.New("config: fee rate out of range")

	// ErrYieldOutOfRange indicates a yield rate the vault would reject.
	ErrYieldOutOfRange = errors.New("config: yield rate out of range")

	// ErrZeroAutoRelease indicates a zero default auto-release window.
	ErrZeroAutoRelease = errors.New("config: auto-release days must be greater than zero")
)
