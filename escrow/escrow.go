// Package escrow implements the per-invoice custody state machine.
//
// One parametrized Escrow type covers every variant the engine supports.
// Capability flags select the behavior: plain principal custody, yield-bearing
// custody through a vault, per-deliverable funding and approval, and
// terms-gated funding that requires the payer to sign first. All amounts are
// unsigned integers in micro-units.
//
// Every operation either fully applies its state change or returns an error
// with the instance byte-for-byte unchanged. Operations on one instance are
// serialized on the instance's own lock; distinct instances never block each
// other.
package escrow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcpay/escrow-go/fees"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/vault"
)

// State is the lifecycle position of an escrow instance.
type State uint8

const (
	// StateCreated is the initial state: no funds held.
	StateCreated State = iota
	// StateSigned means the payer has acknowledged the invoice terms
	// (terms-gated variant only).
	StateSigned
	// StateActive means custodied funds are held. The simple variant
	// surfaces this as "funded".
	StateActive
	// StateCompleted is the terminal state after release. Permanent marker,
	// never deleted.
	StateCompleted
	// StateRefunded is the terminal state after refund. Permanent marker,
	// never deleted.
	StateRefunded
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSigned:
		return "signed"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Terminal reports whether the state permits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateRefunded
}

// Capabilities selects the escrow variant as a bit set.
type Capabilities uint8

const (
	// CapYield routes custodied principal through a yield vault.
	CapYield Capabilities = 1 << iota
	// CapDeliverables splits the invoice into independently funded and
	// approved deliverables.
	CapDeliverables
	// CapRequireSigning requires the payer to sign before any funding.
	CapRequireSigning
)

// HasYield returns true if principal is routed through a yield vault.
func (c Capabilities) HasYield() bool { return c&CapYield != 0 }

// HasDeliverables returns true if the invoice is funded per deliverable.
func (c Capabilities) HasDeliverables() bool { return c&CapDeliverables != 0 }

// RequiresSigning returns true if funding is gated on a terms signature.
func (c Capabilities) RequiresSigning() bool { return c&CapRequireSigning != 0 }

// Params holds the construction parameters for an escrow instance.
type Params struct {
	InvoiceID    invoice.ID
	Creator      string        // receives released funds
	Amount       uint64        // invoice notional in micro-units
	AutoRelease  time.Duration // creator may release unilaterally after this
	Capabilities Capabilities

	// Percents splits the invoice into deliverables. Required when
	// CapDeliverables is set; must sum to 100.
	Percents []uint64

	// Collector computes the payer-side fee. Optional; nil means no fee.
	Collector *fees.Collector

	// Vault holds custodied principal. Required when CapYield is set.
	Vault *vault.Vault

	// Clock overrides time.Now for deterministic tests.
	Clock func() time.Time
}

// Escrow is one invoice's custody state machine.
type Escrow struct {
	mu sync.Mutex

	invoiceID invoice.ID
	creator   string
	payer     string // set on first funding, immutable after
	signedBy  string // terms-gated variant

	invoiceAmount     uint64
	autoRelease       time.Duration
	fundedAt          time.Time
	originalPrincipal uint64 // set exactly once
	vaultShares       uint64

	state        State
	caps         Capabilities
	deliverables []Deliverable

	collector *fees.Collector
	vault     *vault.Vault
	now       func() time.Time
}

// New creates an escrow instance in StateCreated.
func New(p *Params) (*Escrow, error) {
	if p == nil {
		return nil, ErrNilParams
	}
	if p.Creator == "" {
		return nil, ErrEmptyCreator
	}
	if p.Amount == 0 {
		return nil, ErrZeroAmount
	}
	if p.Capabilities.HasYield() && p.Vault == nil {
		return nil, ErrMissingVault
	}

	var deliverables []Deliverable
	if p.Capabilities.HasDeliverables() {
		if len(p.Percents) == 0 {
			return nil, ErrNoDeliverables
		}
		amounts, err := SplitByPercentage(p.Amount, p.Percents)
		if err != nil {
			return nil, err
		}
		deliverables = make([]Deliverable, len(amounts))
		for i, amount := range amounts {
			deliverables[i] = Deliverable{Amount: amount, Status: DeliverablePending}
		}
	}

	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Escrow{
		invoiceID:     p.InvoiceID,
		creator:       p.Creator,
		invoiceAmount: p.Amount,
		autoRelease:   p.AutoRelease,
		state:         StateCreated,
		caps:          p.Capabilities,
		deliverables:  deliverables,
		collector:     p.Collector,
		vault:         p.Vault,
		now:           clock,
	}, nil
}

// vaultOwner is the identity under which this instance holds vault shares.
func (e *Escrow) vaultOwner() string {
	return e.invoiceID.String()
}

// Sign records the payer's acknowledgment of the invoice terms and moves
// the instance from StateCreated to StateSigned. Only meaningful in the
// terms-gated variant; the signer becomes the only identity allowed to fund.
func (e *Escrow) Sign(caller string) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.caps.RequiresSigning() {
		return nil, fmt.Errorf("%w: invoice does not require signing", ErrInvalidState)
	}
	if e.state != StateCreated {
		return nil, fmt.Errorf("%w: cannot sign from %q", ErrInvalidState, e.state)
	}
	if caller == e.creator {
		return nil, fmt.Errorf("%w: creator cannot sign own invoice", ErrUnauthorized)
	}

	e.signedBy = caller
	e.state = StateSigned
	return e.newReceipt(ReceiptSign, 0, 0, caller, e.creator, wholeInvoice), nil
}

// Fund deposits the full invoice notional. The caller becomes the payer.
// Invoices split into deliverables are funded with FundDeliverable instead.
func (e *Escrow) Fund(caller string, amount uint64) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.caps.HasDeliverables() {
		return nil, fmt.Errorf("%w: invoice is funded per deliverable", ErrInvalidState)
	}
	if err := e.checkFundable(caller); err != nil {
		return nil, err
	}
	if amount != e.invoiceAmount {
		return nil, fmt.Errorf("%w: expected %d micro-units, got %d", ErrAmountMismatch, e.invoiceAmount, amount)
	}

	fee := e.fee(amount)
	if e.caps.HasYield() {
		shares, err := e.vault.Deposit(e.vaultOwner(), amount)
		if err != nil {
			return nil, err
		}
		e.vaultShares = shares
	}

	e.payer = caller
	e.fundedAt = e.now()
	e.originalPrincipal = amount
	e.state = StateActive
	return e.newReceipt(ReceiptFund, amount, fee, caller, "", wholeInvoice), nil
}

// Release settles the full custodied value to the creator and moves the
// instance to StateCompleted. The payer may release at any time; the
// creator may release once the auto-release window has elapsed.
func (e *Escrow) Release(caller string) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.caps.HasDeliverables() {
		return nil, fmt.Errorf("%w: invoice is released per deliverable", ErrInvalidState)
	}
	if e.state != StateActive {
		return nil, fmt.Errorf("%w: cannot release from %q", ErrInvalidState, e.state)
	}
	if caller != e.payer {
		if caller != e.creator {
			return nil, fmt.Errorf("%w: only the payer or the creator may release", ErrUnauthorized)
		}
		if !e.autoReleaseElapsed() {
			return nil, fmt.Errorf("%w: auto-release available at %s",
				ErrUnauthorized, e.fundedAt.Add(e.autoRelease).UTC().Format(time.RFC3339))
		}
	}

	value, err := e.settle(e.vaultShares, e.originalPrincipal)
	if err != nil {
		return nil, err
	}
	e.vaultShares = 0
	e.state = StateCompleted
	return e.newReceipt(ReceiptRelease, value, 0, e.payer, e.creator, wholeInvoice), nil
}

// Refund settles all not-yet-released custodied value back to the payer and
// moves the instance to StateRefunded. Only the creator may refund.
// Deliverables already approved stay released; the refund covers only the
// remaining funded value.
func (e *Escrow) Refund(caller string) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return nil, fmt.Errorf("%w: cannot refund from %q", ErrInvalidState, e.state)
	}
	if caller != e.creator {
		return nil, fmt.Errorf("%w: only the creator may refund", ErrUnauthorized)
	}

	value, err := e.settle(e.remainingShares(), e.remainingPrincipal())
	if err != nil {
		return nil, err
	}
	e.vaultShares = 0
	for i := range e.deliverables {
		if e.deliverables[i].Status == DeliverableFunded {
			e.deliverables[i].Shares = 0
		}
	}
	e.state = StateRefunded
	return e.newReceipt(ReceiptRefund, value, 0, e.creator, e.payer, wholeInvoice), nil
}

// settle converts custodied value into a settlement amount: the current
// vault value of the given shares in the yield variant, the principal
// otherwise.
func (e *Escrow) settle(shares, principal uint64) (uint64, error) {
	if !e.caps.HasYield() {
		return principal, nil
	}
	if shares == 0 {
		return 0, nil
	}
	return e.vault.Redeem(e.vaultOwner(), shares)
}

// fee returns the payer-side fee on the given notional, zero when no
// collector is configured.
func (e *Escrow) fee(notional uint64) uint64 {
	if e.collector == nil {
		return 0
	}
	return e.collector.Fee(notional)
}

// checkFundable verifies the caller and state admit a funding event.
func (e *Escrow) checkFundable(caller string) error {
	if caller == e.creator {
		return fmt.Errorf("%w: creator cannot fund own invoice", ErrUnauthorized)
	}
	switch {
	case e.caps.RequiresSigning() && e.state == StateCreated:
		return fmt.Errorf("%w: terms must be signed before funding", ErrInvalidState)
	case e.caps.RequiresSigning() && e.state == StateSigned:
		if caller != e.signedBy {
			return fmt.Errorf("%w: only the signer may fund", ErrUnauthorized)
		}
	case e.state == StateCreated:
		// fundable
	case e.state == StateActive && e.caps.HasDeliverables():
		// further deliverables fundable; same payer only
		if caller != e.payer {
			return fmt.Errorf("%w: all deliverables must be funded by the same payer", ErrUnauthorized)
		}
	default:
		return fmt.Errorf("%w: cannot fund from %q", ErrInvalidState, e.state)
	}
	return nil
}

// autoReleaseElapsed reports whether the creator's unilateral release
// window has opened. Checked lazily against the clock; no timer runs.
func (e *Escrow) autoReleaseElapsed() bool {
	if e.fundedAt.IsZero() {
		return false
	}
	return !e.now().Before(e.fundedAt.Add(e.autoRelease))
}

// remainingPrincipal is the funded principal not yet released.
func (e *Escrow) remainingPrincipal() uint64 {
	if !e.caps.HasDeliverables() {
		return e.originalPrincipal
	}
	var sum uint64
	for _, d := range e.deliverables {
		if d.Status == DeliverableFunded {
			sum += d.Amount
		}
	}
	return sum
}

// remainingShares is the vault share balance not yet redeemed.
func (e *Escrow) remainingShares() uint64 {
	if !e.caps.HasDeliverables() {
		return e.vaultShares
	}
	var sum uint64
	for _, d := range e.deliverables {
		if d.Status == DeliverableFunded {
			sum += d.Shares
		}
	}
	return sum
}

// newReceipt records a successful operation. Callers hold the lock.
func (e *Escrow) newReceipt(kind ReceiptKind, amount, fee uint64, from, to string, deliverable int) *Receipt {
	return &Receipt{
		ID:          uuid.NewString(),
		InvoiceID:   e.invoiceID,
		Kind:        kind,
		Amount:      amount,
		Fee:         fee,
		From:        from,
		To:          to,
		Deliverable: deliverable,
		OccurredAt:  e.now(),
	}
}
