package escrow

import (
	"fmt"
	"math/bits"
)

// DeliverableState is the lifecycle position of one deliverable.
type DeliverableState uint8

const (
	// DeliverablePending means the deliverable has not been funded.
	DeliverablePending DeliverableState = iota
	// DeliverableFunded means the deliverable's share is in custody.
	DeliverableFunded
	// DeliverableApproved means the deliverable's value was released to
	// the creator.
	DeliverableApproved
)

// String returns the lowercase deliverable state name.
func (s DeliverableState) String() string {
	switch s {
	case DeliverablePending:
		return "pending"
	case DeliverableFunded:
		return "funded"
	case DeliverableApproved:
		return "approved"
	default:
		return fmt.Sprintf("deliverable(%d)", uint8(s))
	}
}

// Deliverable is one entry of a multi-part invoice's sub-payment ledger.
type Deliverable struct {
	Amount uint64           // micro-units, fixed at creation
	Shares uint64           // vault shares backing this entry (yield variant)
	Status DeliverableState
	Proof  string // opaque reference, not validated by the engine
}

// wholeInvoice marks a receipt that targets the instance rather than a
// single deliverable.
const wholeInvoice = -1

// SplitByPercentage divides total into per-deliverable amounts. Each amount
// is floor(total*percent/100); the last entry absorbs the remainder so the
// split always sums to total exactly. The percentages must sum to 100.
func SplitByPercentage(total uint64, percents []uint64) ([]uint64, error) {
	if total == 0 {
		return nil, ErrZeroAmount
	}
	if len(percents) == 0 {
		return nil, ErrNoDeliverables
	}

	var sum uint64
	for _, p := range percents {
		if p == 0 {
			return nil, ErrZeroPercent
		}
		sum += p
	}
	if sum != 100 {
		return nil, fmt.Errorf("%w: got %d", ErrBadPercentSum, sum)
	}

	amounts := make([]uint64, len(percents))
	var allocated uint64
	for i, p := range percents {
		if i == len(percents)-1 {
			// Last deliverable absorbs the division remainder.
			amounts[i] = total - allocated
		} else {
			amounts[i] = mulDiv(total, p, 100)
			allocated += amounts[i]
		}
	}
	return amounts, nil
}

// mulDiv computes a*b/d with a 128-bit intermediate product, rounding down.
// The product total*percent exceeds 64 bits for large invoice amounts.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// FundDeliverable deposits the exact notional for the deliverable at index.
// Deliverables are funded in order; the first funding records the payer and
// stamps the funding timestamp, and every later funding must come from the
// same payer.
func (e *Escrow) FundDeliverable(caller string, index int, amount uint64) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.caps.HasDeliverables() {
		return nil, fmt.Errorf("%w: invoice has no deliverables", ErrInvalidState)
	}
	if index < 0 || index >= len(e.deliverables) {
		return nil, fmt.Errorf("%w: index %d of %d deliverables", ErrIndexOutOfRange, index, len(e.deliverables))
	}
	if err := e.checkFundable(caller); err != nil {
		return nil, err
	}

	d := &e.deliverables[index]
	if d.Status != DeliverablePending {
		return nil, fmt.Errorf("%w: deliverable %d already %q", ErrInvalidState, index, d.Status)
	}
	if index != e.nextPendingIndex() {
		return nil, fmt.Errorf("%w: deliverable %d must be funded before %d", ErrInvalidState, e.nextPendingIndex(), index)
	}
	if amount != d.Amount {
		return nil, fmt.Errorf("%w: deliverable %d expects %d micro-units, got %d", ErrAmountMismatch, index, d.Amount, amount)
	}

	fee := e.fee(amount)
	if e.caps.HasYield() {
		shares, err := e.vault.Deposit(e.vaultOwner(), amount)
		if err != nil {
			return nil, err
		}
		d.Shares = shares
	}

	if e.payer == "" {
		e.payer = caller
		e.fundedAt = e.now()
	}
	e.originalPrincipal += amount
	d.Status = DeliverableFunded
	e.state = StateActive
	return e.newReceipt(ReceiptFund, amount, fee, caller, "", index), nil
}

// ApproveDeliverable releases the deliverable's value to the creator and
// marks it approved. Only the creator may approve, and only a funded (not
// yet approved) deliverable. Approving the last deliverable completes the
// instance.
func (e *Escrow) ApproveDeliverable(caller string, index int) (*Receipt, error) {
	if caller == "" {
		return nil, ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.caps.HasDeliverables() {
		return nil, fmt.Errorf("%w: invoice has no deliverables", ErrInvalidState)
	}
	if index < 0 || index >= len(e.deliverables) {
		return nil, fmt.Errorf("%w: index %d of %d deliverables", ErrIndexOutOfRange, index, len(e.deliverables))
	}
	if caller != e.creator {
		return nil, fmt.Errorf("%w: only the creator may approve deliverables", ErrUnauthorized)
	}
	if e.state != StateActive {
		return nil, fmt.Errorf("%w: cannot approve from %q", ErrInvalidState, e.state)
	}

	d := &e.deliverables[index]
	if d.Status != DeliverableFunded {
		return nil, fmt.Errorf("%w: deliverable %d is %q", ErrInvalidState, index, d.Status)
	}

	value, err := e.settle(d.Shares, d.Amount)
	if err != nil {
		return nil, err
	}
	d.Shares = 0
	d.Status = DeliverableApproved

	if e.allApproved() {
		e.state = StateCompleted
	}
	return e.newReceipt(ReceiptApprove, value, 0, e.payer, e.creator, index), nil
}

// SubmitProof attaches an opaque deliverable proof reference. Only the
// creator may submit, at any time before the deliverable is approved. The
// reference is informational; it changes no funding or approval state.
func (e *Escrow) SubmitProof(caller string, index int, reference string) error {
	if caller == "" {
		return ErrEmptyIdentity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.caps.HasDeliverables() {
		return fmt.Errorf("%w: invoice has no deliverables", ErrInvalidState)
	}
	if index < 0 || index >= len(e.deliverables) {
		return fmt.Errorf("%w: index %d of %d deliverables", ErrIndexOutOfRange, index, len(e.deliverables))
	}
	if caller != e.creator {
		return fmt.Errorf("%w: only the creator may submit proof", ErrUnauthorized)
	}

	d := &e.deliverables[index]
	if d.Status == DeliverableApproved {
		return fmt.Errorf("%w: deliverable %d already approved", ErrInvalidState, index)
	}

	d.Proof = reference
	return nil
}

// nextPendingIndex returns the lowest index still pending, or the ledger
// length when everything is funded. Callers hold the lock.
func (e *Escrow) nextPendingIndex() int {
	for i := range e.deliverables {
		if e.deliverables[i].Status == DeliverablePending {
			return i
		}
	}
	return len(e.deliverables)
}

// allApproved reports whether every deliverable has been approved.
// Callers hold the lock.
func (e *Escrow) allApproved() bool {
	for i := range e.deliverables {
		if e.deliverables[i].Status != DeliverableApproved {
			return false
		}
	}
	return true
}
