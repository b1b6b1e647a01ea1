// Package registry implements the escrow factory: it creates escrow
// instances keyed by invoice identifier, enforces uniqueness, supports
// enumeration, and owns the instances' whole lifecycle. No instance is
// reachable except through the factory.
//
// The factory is also the engine's operation surface: state-changing calls
// go through it so every successful mutation is mirrored to the snapshot
// store and its receipt appended to the journal. Mutations on one invoice
// are serialized with a per-invoice lock; operations on distinct invoices
// never block each other.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/arcpay/escrow-go/escrow"
	"github.com/arcpay/escrow-go/fees"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/vault"
)

// Deps holds the collaborators shared by every escrow the factory creates.
type Deps struct {
	// Collector computes payer-side fees. Optional.
	Collector *fees.Collector

	// Vault backs yield-bearing escrows. Required before creating any
	// escrow with the yield capability.
	Vault *vault.Vault

	// Store mirrors escrow snapshots. Optional.
	Store Store

	// Journal records settlement receipts. Optional.
	Journal Journal

	// Clock overrides time.Now for deterministic tests.
	Clock func() time.Time
}

// entry pairs a live instance with its single-writer lock.
type entry struct {
	esc  *escrow.Escrow
	opMu sync.Mutex
}

// Factory creates and indexes escrow instances by invoice ID.
type Factory struct {
	mu    sync.RWMutex
	byID  map[invoice.ID]*entry
	order []invoice.ID
	deps  Deps
}

// NewFactory creates an empty factory.
func NewFactory(deps Deps) *Factory {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Factory{
		byID: make(map[invoice.ID]*entry),
		deps: deps,
	}
}

// LoadFactory rebuilds a factory from a snapshot store, re-attaching the
// given collaborators to every restored instance.
func LoadFactory(deps Deps) (*Factory, error) {
	f := NewFactory(deps)
	if deps.Store == nil {
		return f, nil
	}

	snaps, err := deps.Store.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("registry: load snapshots: %w", err)
	}
	for _, snap := range snaps {
		e, err := escrow.Restore(snap, deps.Collector, deps.Vault, deps.Clock)
		if err != nil {
			return nil, fmt.Errorf("registry: restore %s: %w", snap.InvoiceID, err)
		}
		f.byID[snap.InvoiceID] = &entry{esc: e}
		f.order = append(f.order, snap.InvoiceID)
	}
	return f, nil
}

// CreateParams holds per-invoice creation parameters.
type CreateParams struct {
	InvoiceID       invoice.ID
	Amount          uint64 // micro-units
	AutoReleaseDays uint32
	Capabilities    escrow.Capabilities
	Percents        []uint64 // deliverable split, when CapDeliverables
}

// CreateEscrow instantiates a new escrow owned by the caller as creator
// and registers it under its invoice ID.
func (f *Factory) CreateEscrow(creator string, p CreateParams) (*escrow.Escrow, error) {
	e, err := escrow.New(&escrow.Params{
		InvoiceID:    p.InvoiceID,
		Creator:      creator,
		Amount:       p.Amount,
		AutoRelease:  time.Duration(p.AutoReleaseDays) * 24 * time.Hour,
		Capabilities: p.Capabilities,
		Percents:     p.Percents,
		Collector:    f.deps.Collector,
		Vault:        f.deps.Vault,
		Clock:        f.deps.Clock,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if _, exists := f.byID[p.InvoiceID]; exists {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, p.InvoiceID)
	}
	f.byID[p.InvoiceID] = &entry{esc: e}
	f.order = append(f.order, p.InvoiceID)
	f.mu.Unlock()

	if err := f.mirror(e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEscrow returns the escrow for the invoice ID, or nil when absent.
func (f *Factory) GetEscrow(id invoice.ID) *escrow.Escrow {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ent, ok := f.byID[id]
	if !ok {
		return nil
	}
	return ent.esc
}

// GetEscrowByIndex returns the i-th escrow in creation order.
func (f *Factory) GetEscrowByIndex(i int) (*escrow.Escrow, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if i < 0 || i >= len(f.order) {
		return nil, fmt.Errorf("%w: index %d of %d escrows", ErrIndexOutOfRange, i, len(f.order))
	}
	return f.byID[f.order[i]].esc, nil
}

// GetEscrowCount returns the number of registered escrows.
func (f *Factory) GetEscrowCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// Status returns the current snapshot of the invoice's escrow.
func (f *Factory) Status(id invoice.ID) (escrow.Status, error) {
	ent, err := f.lookup(id)
	if err != nil {
		return escrow.Status{}, err
	}
	return ent.esc.Status(), nil
}

// Receipts returns the invoice's settlement audit trail.
func (f *Factory) Receipts(id invoice.ID) ([]*escrow.Receipt, error) {
	if _, err := f.lookup(id); err != nil {
		return nil, err
	}
	if f.deps.Journal == nil {
		return nil, nil
	}
	return f.deps.Journal.List(id)
}

// Sign acknowledges the invoice terms on behalf of the caller.
func (f *Factory) Sign(caller string, id invoice.ID) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.Sign(caller)
	})
}

// Fund deposits the full invoice notional.
func (f *Factory) Fund(caller string, id invoice.ID, amount uint64) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.Fund(caller, amount)
	})
}

// FundDeliverable deposits one deliverable's notional.
func (f *Factory) FundDeliverable(caller string, id invoice.ID, index int, amount uint64) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.FundDeliverable(caller, index, amount)
	})
}

// Release settles the full custodied value to the creator.
func (f *Factory) Release(caller string, id invoice.ID) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.Release(caller)
	})
}

// Refund settles the remaining custodied value back to the payer.
func (f *Factory) Refund(caller string, id invoice.ID) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.Refund(caller)
	})
}

// ApproveDeliverable releases one deliverable's value to the creator.
func (f *Factory) ApproveDeliverable(caller string, id invoice.ID, index int) (*escrow.Receipt, error) {
	return f.apply(id, func(e *escrow.Escrow) (*escrow.Receipt, error) {
		return e.ApproveDeliverable(caller, index)
	})
}

// SubmitProof attaches a deliverable proof reference.
func (f *Factory) SubmitProof(caller string, id invoice.ID, index int, reference string) error {
	ent, err := f.lookup(id)
	if err != nil {
		return err
	}

	ent.opMu.Lock()
	defer ent.opMu.Unlock()

	if err := ent.esc.SubmitProof(caller, index, reference); err != nil {
		return err
	}
	if err := f.mirror(ent.esc); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

// apply runs one state-changing operation under the invoice's single-writer
// lock, then mirrors the snapshot and journals the receipt. If the operation
// succeeds but persistence fails, the in-memory state has already changed:
// the receipt is returned together with an ErrNotPersisted error so callers
// can tell "applied but not mirrored" apart from "rejected".
func (f *Factory) apply(id invoice.ID, op func(*escrow.Escrow) (*escrow.Receipt, error)) (*escrow.Receipt, error) {
	ent, err := f.lookup(id)
	if err != nil {
		return nil, err
	}

	ent.opMu.Lock()
	defer ent.opMu.Unlock()

	rcpt, err := op(ent.esc)
	if err != nil {
		return nil, err
	}
	if err := f.mirror(ent.esc); err != nil {
		return rcpt, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	if f.deps.Journal != nil {
		if err := f.deps.Journal.Append(rcpt); err != nil {
			return rcpt, fmt.Errorf("%w: journal receipt: %w", ErrNotPersisted, err)
		}
	}
	return rcpt, nil
}

func (f *Factory) lookup(id invoice.ID) (*entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ent, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ent, nil
}

func (f *Factory) mirror(e *escrow.Escrow) error {
	if f.deps.Store == nil {
		return nil
	}
	if err := f.deps.Store.PutSnapshot(e.Snapshot()); err != nil {
		return fmt.Errorf("registry: mirror snapshot: %w", err)
	}
	return nil
}
