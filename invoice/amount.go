package invoice

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MicroUnits is the number of micro-units per whole unit.
const MicroUnits = 1_000_000

// maxWhole is the largest whole-unit value that fits in a uint64 amount.
const maxWhole = math.MaxUint64 / MicroUnits

// ParseAmount converts a decimal string like "1000.50" into micro-units.
// At most 6 fractional digits are allowed; negative values are rejected.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 6 {
		return 0, fmt.Errorf("%w: %q", ErrTooManyDecimals, s)
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if w > maxWhole {
		return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
	}

	var f uint64
	if frac != "" {
		f, err = strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		// Scale "5" in "1.5" up to 500000 micro-units.
		for i := len(frac); i < 6; i++ {
			f *= 10
		}
	}

	total := w * MicroUnits
	if total > math.MaxUint64-f {
		return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
	}
	return total + f, nil
}

// FormatAmount renders micro-units as a decimal string, trimming
// trailing fractional zeros ("1000500000" -> "1000.5").
func FormatAmount(amount uint64) string {
	whole := amount / MicroUnits
	frac := amount % MicroUnits
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	return strings.TrimRight(s, "0")
}
