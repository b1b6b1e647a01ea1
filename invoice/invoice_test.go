package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCode_Deterministic(t *testing.T) {
	a := HashCode("invoice-001")
	b := HashCode("invoice-001")
	c := HashCode("invoice-002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
}

func TestHashCode_KnownVector(t *testing.T) {
	// Keccak-256 of the empty string.
	id := HashCode("")
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		id.String())
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, seen[id], "duplicate random ID")
		seen[id] = true
	}
}

func TestParseID_RoundTrip(t *testing.T) {
	original := HashCode("round-trip")

	parsed, err := ParseID(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)

	// Without the 0x prefix.
	parsed, err = ParseID(original.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", "0xzzzz"},
		{"too short", "0xdeadbeef"},
		{"too long", "0x" + string(make([]byte, 130))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseID(tt.input)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"0", 0},
		{"1", 1_000_000},
		{"1000", 1_000_000_000},
		{"1000.50", 1_000_500_000},
		{"0.000001", 1},
		{"0.5", 500_000},
		{".25", 250_000},
		{"  42  ", 42_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrInvalidAmount},
		{"negative", "-5", ErrInvalidAmount},
		{"plus sign", "+5", ErrInvalidAmount},
		{"letters", "ten", ErrInvalidAmount},
		{"seven decimals", "1.0000001", ErrTooManyDecimals},
		{"overflow", "99999999999999999999", ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount uint64
		want   string
	}{
		{0, "0"},
		{1_000_000, "1"},
		{1_000_500_000, "1000.5"},
		{1, "0.000001"},
		{250_000, "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount))
		})
	}
}

func TestAmount_RoundTrip(t *testing.T) {
	for _, amount := range []uint64{0, 1, 999_999, 1_000_000, 123_456_789_012} {
		parsed, err := ParseAmount(FormatAmount(amount))
		require.NoError(t, err)
		assert.Equal(t, amount, parsed)
	}
}
