package escrow

import (
	"time"

	"github.com/arcpay/escrow-go/invoice"
)

// Status is a read-only snapshot of an instance, shaped for the display
// layer: total and funded amounts, funding timestamp, and whether the
// creator's auto-release window has opened.
type Status struct {
	InvoiceID    invoice.ID
	State        State
	Capabilities Capabilities

	Creator  string
	Payer    string
	SignedBy string

	TotalAmount  uint64
	FundedAmount uint64
	CurrentValue uint64
	AccruedYield uint64

	FundedAt       time.Time
	AutoRelease    time.Duration
	CanAutoRelease bool

	Deliverables []Deliverable
}

// Status returns a consistent snapshot of the instance.
func (e *Escrow) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	value := e.currentValueLocked()
	principal := e.custodiedPrincipalLocked()

	st := Status{
		InvoiceID:      e.invoiceID,
		State:          e.state,
		Capabilities:   e.caps,
		Creator:        e.creator,
		Payer:          e.payer,
		SignedBy:       e.signedBy,
		TotalAmount:    e.invoiceAmount,
		FundedAmount:   e.fundedAmountLocked(),
		CurrentValue:   value,
		AccruedYield:   saturatingSub(value, principal),
		FundedAt:       e.fundedAt,
		AutoRelease:    e.autoRelease,
		CanAutoRelease: e.state == StateActive && e.autoReleaseElapsed(),
	}
	if e.deliverables != nil {
		st.Deliverables = make([]Deliverable, len(e.deliverables))
		copy(st.Deliverables, e.deliverables)
	}
	return st
}

// CurrentValue returns the value currently in custody: the vault value of
// held shares in the yield variant, the unreleased principal otherwise.
// Zero once the instance reaches a terminal state.
func (e *Escrow) CurrentValue() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentValueLocked()
}

// AccruedYield returns the custodied value in excess of the unreleased
// principal. Always zero outside the yield variant.
func (e *Escrow) AccruedYield() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return saturatingSub(e.currentValueLocked(), e.custodiedPrincipalLocked())
}

// CanAutoRelease reports whether the creator may release unilaterally now.
func (e *Escrow) CanAutoRelease() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateActive && e.autoReleaseElapsed()
}

// State returns the current lifecycle state.
func (e *Escrow) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Creator returns the identity that receives released funds.
func (e *Escrow) Creator() string {
	return e.creator // immutable after construction
}

// Payer returns the funding identity, empty until first funding.
func (e *Escrow) Payer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payer
}

// InvoiceID returns the invoice identifier this instance is keyed by.
func (e *Escrow) InvoiceID() invoice.ID {
	return e.invoiceID // immutable after construction
}

// InvoiceAmount returns the invoice notional in micro-units.
func (e *Escrow) InvoiceAmount() uint64 {
	return e.invoiceAmount // immutable after construction
}

// OriginalPrincipal returns the principal deposited so far, net of fees.
func (e *Escrow) OriginalPrincipal() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.originalPrincipal
}

func (e *Escrow) currentValueLocked() uint64 {
	if e.state != StateActive {
		return 0
	}
	if e.caps.HasYield() {
		return e.vault.ValueOf(e.remainingShares())
	}
	return e.remainingPrincipal()
}

// custodiedPrincipalLocked is the principal backing the current custody,
// excluding yield.
func (e *Escrow) custodiedPrincipalLocked() uint64 {
	if e.state != StateActive {
		return 0
	}
	return e.remainingPrincipal()
}

// fundedAmountLocked is the principal deposited across the lifetime of the
// instance, regardless of later settlement.
func (e *Escrow) fundedAmountLocked() uint64 {
	return e.originalPrincipal
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
