// Package fees implements the payer-side fee policy for escrow funding.
//
// The fee is a flat percentage of the invoice notional, expressed in basis
// points. The escrow engine does not interpret the policy: it asks the
// collector what the payer owes in total and settles the creator from the
// notional alone.
package fees

import (
	"fmt"
	"math/bits"
	"sync"
)

const (
	// DefaultFeeBPS is the default fee rate in basis points (1%).
	DefaultFeeBPS = 100

	// MaxFeeBPS is the highest fee rate the collector accepts (10%).
	MaxFeeBPS = 1000

	// bpsDenominator converts basis points to a fraction.
	bpsDenominator = 10_000
)

// Collector computes payer-side fees. Only the admin identity may change
// the fee rate.
type Collector struct {
	mu     sync.RWMutex
	admin  string
	feeBPS uint64
}

// NewCollector creates a fee collector administered by admin, charging
// feeBPS basis points per funding event.
func NewCollector(admin string, feeBPS uint64) (*Collector, error) {
	if admin == "" {
		return nil, ErrEmptyAdmin
	}
	if feeBPS > MaxFeeBPS {
		return nil, fmt.Errorf("%w: %d bps exceeds maximum %d", ErrFeeTooHigh, feeBPS, MaxFeeBPS)
	}
	return &Collector{admin: admin, feeBPS: feeBPS}, nil
}

// Fee returns the fee owed on the given notional, rounded down. The
// product notional*feeBPS exceeds 64 bits for large notionals, so the
// intermediate is computed in 128 bits.
func (c *Collector) Fee(notional uint64) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hi, lo := bits.Mul64(notional, c.feeBPS)
	q, _ := bits.Div64(hi, lo, bpsDenominator)
	return q
}

// PayerTotal returns the amount a payer must deposit to fund the given
// notional: the notional plus the fee.
func (c *Collector) PayerTotal(notional uint64) uint64 {
	return notional + c.Fee(notional)
}

// FeeRate returns the current fee rate in basis points.
func (c *Collector) FeeRate() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeBPS
}

// SetFeeRate updates the fee rate. Only the admin may call this.
func (c *Collector) SetFeeRate(caller string, feeBPS uint64) error {
	if feeBPS > MaxFeeBPS {
		return fmt.Errorf("%w: %d bps exceeds maximum %d", ErrFeeTooHigh, feeBPS, MaxFeeBPS)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.admin {
		return fmt.Errorf("%w: only the fee admin may set the rate", ErrUnauthorized)
	}
	c.feeBPS = feeBPS
	return nil
}
