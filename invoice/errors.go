package invoice

import "errors"

var (
	// ErrInvalidID indicates a malformed invoice identifier.
	ErrInvalidID = errors.New("invoice: invalid invoice ID")

	// ErrInvalidAmount indicates a malformed amount string.
	ErrInvalidAmount = errors.New("invoice: invalid amount")

	// ErrAmountOverflow indicates the amount does not fit in 64 bits.
	ErrAmountOverflow = errors.New("invoice: amount overflow")

	// ErrTooManyDecimals indicates more than 6 fractional digits.
	ErrTooManyDecimals = errors.New("invoice: amount has more than 6 decimal places")
)
