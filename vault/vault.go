// Package vault implements a share-based yield vault for custodied escrow
// principal.
//
// Deposits mint shares at the current exchange rate; redemptions burn shares
// at the rate in effect at redemption time. Accrual adds simple interest to
// the total principal without minting shares, so the principal-per-share
// exchange rate only ever increases. Shares are tracked per owner, where an
// owner is an opaque identity string (in practice, an escrow instance).
package vault

import (
	"fmt"
	"math/bits"
	"sync"
	"time"
)

const (
	// DefaultYieldBPS is the default annual yield in basis points (3.8% APY).
	DefaultYieldBPS = 380

	// MaxYieldBPS is the highest yield rate the vault accepts (100% APY).
	MaxYieldBPS = 10_000

	// bpsDenominator converts basis points to a fraction.
	bpsDenominator = 10_000

	// secondsPerYear is the accrual period base (365 days).
	secondsPerYear = 365 * 24 * 60 * 60
)

// Vault holds principal on behalf of share owners and accrues yield over
// time. All operations are serialized on the vault's own lock, independent
// of any escrow instance lock.
type Vault struct {
	mu             sync.RWMutex
	admin          string
	apyBPS         uint64
	totalPrincipal uint64
	totalShares    uint64
	balances       map[string]uint64
	lastAccrual    time.Time
	now            func() time.Time
}

// NewVault creates an empty vault administered by admin with the given
// annual yield rate in basis points.
func NewVault(admin string, apyBPS uint64) (*Vault, error) {
	return NewVaultWithClock(admin, apyBPS, time.Now)
}

// NewVaultWithClock is NewVault with an injectable clock for deterministic
// accrual in tests.
func NewVaultWithClock(admin string, apyBPS uint64, now func() time.Time) (*Vault, error) {
	if admin == "" {
		return nil, ErrEmptyAdmin
	}
	if apyBPS > MaxYieldBPS {
		return nil, fmt.Errorf("%w: %d bps exceeds maximum %d", ErrYieldTooHigh, apyBPS, MaxYieldBPS)
	}
	if now == nil {
		now = time.Now
	}
	return &Vault{
		admin:       admin,
		apyBPS:      apyBPS,
		balances:    make(map[string]uint64),
		lastAccrual: now(),
		now:         now,
	}, nil
}

// Deposit converts amount into shares at the current exchange rate and
// credits them to owner. The first deposit into an empty vault mints
// shares 1:1.
func (v *Vault) Deposit(owner string, amount uint64) (uint64, error) {
	if owner == "" {
		return 0, ErrEmptyOwner
	}
	if amount == 0 {
		return 0, ErrZeroAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var shares uint64
	if v.totalShares == 0 {
		shares = amount
	} else {
		shares = mulDiv(amount, v.totalShares, v.totalPrincipal)
	}
	if shares == 0 {
		// Exchange rate has grown past the deposit; too small to mint.
		return 0, fmt.Errorf("%w: %d micro-units mints no shares", ErrZeroAmount, amount)
	}

	v.totalPrincipal += amount
	v.totalShares += shares
	v.balances[owner] += shares
	return shares, nil
}

// Redeem burns shares held by owner and returns the principal they are
// worth at the current exchange rate.
func (v *Vault) Redeem(owner string, shares uint64) (uint64, error) {
	if owner == "" {
		return 0, ErrEmptyOwner
	}
	if shares == 0 {
		return 0, ErrZeroAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	held := v.balances[owner]
	if shares > held {
		return 0, fmt.Errorf("%w: owner holds %d, requested %d", ErrInsufficientShares, held, shares)
	}
	if v.totalShares == 0 {
		// Unreachable when the funding/settlement discipline holds:
		// a held balance implies outstanding shares.
		panic("vault: redeem with zero shares outstanding")
	}

	amount := mulDiv(shares, v.totalPrincipal, v.totalShares)
	v.totalPrincipal -= amount
	v.totalShares -= shares
	if held == shares {
		delete(v.balances, owner)
	} else {
		v.balances[owner] = held - shares
	}
	return amount, nil
}

// ValueOf returns the principal value of the given share quantity at the
// current exchange rate, without mutating vault state.
func (v *Vault) ValueOf(shares uint64) uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if shares == 0 || v.totalShares == 0 {
		return 0
	}
	return mulDiv(shares, v.totalPrincipal, v.totalShares)
}

// Accrue adds simple interest for the time elapsed since the last accrual
// and returns the amount added. Calling it repeatedly within the same
// instant accrues nothing extra.
func (v *Vault) Accrue() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accrueLocked()
}

func (v *Vault) accrueLocked() uint64 {
	elapsed := v.now().Sub(v.lastAccrual)
	if elapsed < time.Second {
		// Interest is granted per whole second. lastAccrual stays put so
		// the sub-second remainder counts toward the next accrual.
		return 0
	}
	secs := uint64(elapsed / time.Second)
	v.lastAccrual = v.lastAccrual.Add(time.Duration(secs) * time.Second)

	if v.totalPrincipal == 0 || v.apyBPS == 0 {
		return 0
	}
	interest := mulDiv(v.totalPrincipal, v.apyBPS*secs, bpsDenominator*secondsPerYear)
	v.totalPrincipal += interest
	return interest
}

// SetYieldRate updates the annual yield rate. Only the admin may call this.
// Interest earned so far is accrued at the old rate first, so a rate change
// never applies retroactively.
func (v *Vault) SetYieldRate(caller string, apyBPS uint64) error {
	if apyBPS > MaxYieldBPS {
		return fmt.Errorf("%w: %d bps exceeds maximum %d", ErrYieldTooHigh, apyBPS, MaxYieldBPS)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.admin {
		return fmt.Errorf("%w: only the vault admin may set the yield rate", ErrUnauthorized)
	}
	v.accrueLocked()
	v.apyBPS = apyBPS
	return nil
}

// YieldRate returns the current annual yield rate in basis points.
func (v *Vault) YieldRate() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.apyBPS
}

// BalanceOf returns the shares held by owner.
func (v *Vault) BalanceOf(owner string) uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[owner]
}

// TotalPrincipal returns the principal held by the vault, including
// accrued interest.
func (v *Vault) TotalPrincipal() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.totalPrincipal
}

// TotalShares returns the shares outstanding.
func (v *Vault) TotalShares() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.totalShares
}

// mulDiv computes a*b/d with a 128-bit intermediate product, rounding down.
// Panics if the quotient overflows 64 bits, which cannot happen for share
// conversions (the result is bounded by the vault totals).
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}
