package fees

import "errors"

var (
	// ErrUnauthorized indicates the caller is not the fee admin.
	ErrUnauthorized = errors.New("fees: unauthorized")

	// ErrFeeTooHigh indicates a fee rate above MaxFeeBPS.
	ErrFeeTooHigh = errors.New("fees: fee rate too high")

	// ErrEmptyAdmin indicates the admin identity is empty.
	ErrEmptyAdmin = errors.New("fees: admin identity must not be empty")
)
