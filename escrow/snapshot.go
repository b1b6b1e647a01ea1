package escrow

import (
	"time"

	"github.com/arcpay/escrow-go/fees"
	"github.com/arcpay/escrow-go/invoice"
	"github.com/arcpay/escrow-go/vault"
)

// Snapshot is the persistable state of an escrow instance. It carries every
// field needed to rebuild the instance after a restart; collaborators
// (vault, fee collector, clock) are re-attached by the registry.
type Snapshot struct {
	InvoiceID    invoice.ID
	Creator      string
	Payer        string
	SignedBy     string
	State        State
	Capabilities Capabilities

	InvoiceAmount     uint64
	OriginalPrincipal uint64
	VaultShares       uint64

	AutoRelease time.Duration
	FundedAt    time.Time

	Deliverables []Deliverable
}

// Snapshot returns a consistent copy of the instance's persistable state.
func (e *Escrow) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &Snapshot{
		InvoiceID:         e.invoiceID,
		Creator:           e.creator,
		Payer:             e.payer,
		SignedBy:          e.signedBy,
		State:             e.state,
		Capabilities:      e.caps,
		InvoiceAmount:     e.invoiceAmount,
		OriginalPrincipal: e.originalPrincipal,
		VaultShares:       e.vaultShares,
		AutoRelease:       e.autoRelease,
		FundedAt:          e.fundedAt,
	}
	if e.deliverables != nil {
		s.Deliverables = make([]Deliverable, len(e.deliverables))
		copy(s.Deliverables, e.deliverables)
	}
	return s
}

// Restore rebuilds an instance from a snapshot, re-attaching the given
// collaborators. A nil clock restores with time.Now.
func Restore(s *Snapshot, collector *fees.Collector, v *vault.Vault, clock func() time.Time) (*Escrow, error) {
	if s == nil {
		return nil, ErrNilParams
	}
	if s.Creator == "" {
		return nil, ErrEmptyCreator
	}
	if s.InvoiceAmount == 0 {
		return nil, ErrZeroAmount
	}
	if s.Capabilities.HasYield() && v == nil {
		return nil, ErrMissingVault
	}
	if clock == nil {
		clock = time.Now
	}

	e := &Escrow{
		invoiceID:         s.InvoiceID,
		creator:           s.Creator,
		payer:             s.Payer,
		signedBy:          s.SignedBy,
		state:             s.State,
		caps:              s.Capabilities,
		invoiceAmount:     s.InvoiceAmount,
		originalPrincipal: s.OriginalPrincipal,
		vaultShares:       s.VaultShares,
		autoRelease:       s.AutoRelease,
		fundedAt:          s.FundedAt,
		collector:         collector,
		vault:             v,
		now:               clock,
	}
	if s.Deliverables != nil {
		e.deliverables = make([]Deliverable, len(s.Deliverables))
		copy(e.deliverables, s.Deliverables)
	}
	return e, nil
}
