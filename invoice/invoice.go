// Package invoice defines invoice identifiers and micro-unit amount
// handling for the escrow engine.
//
// Invoice identifiers are 32-byte values. The web application derives them
// from human-readable invoice codes via Keccak-256, so the engine never sees
// (or stores) the human code itself. Amounts are unsigned integers in
// micro-units (6 fractional decimal digits).
package invoice

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// IDSize is the length of an invoice identifier in bytes.
const IDSize = 32

// ID is a 32-byte invoice identifier.
type ID [IDSize]byte

// HashCode derives an invoice ID from a human-readable invoice code
// using Keccak-256. The same code always maps to the same ID.
func HashCode(code string) ID {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(code))
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// NewID generates a random invoice ID.
func NewID() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		// Fallback to a timestamp-based ID
		h := sha3.NewLegacyKeccak256()
		fmt.Fprintf(h, "inv-%d", time.Now().UnixNano())
		copy(id[:], h.Sum(nil))
	}
	return id
}

// ParseID decodes a hex-encoded invoice ID, with or without a 0x prefix.
func ParseID(s string) (ID, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if len(b) != IDSize {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidID, IDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the hex encoding of the ID with a 0x prefix.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the ID is all zero bytes.
func (id ID) IsZero() bool {
	return id == ID{}
}
