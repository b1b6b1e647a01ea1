package registry

import (
	"sync"

	"github.com/arcpay/escrow-go/escrow"
	"github.com/arcpay/escrow-go/invoice"
)

// Store persists escrow snapshots keyed by invoice ID. Puts are upserts:
// the factory mirrors every successful mutation so a restart can rebuild
// the registry from the store.
type Store interface {
	// PutSnapshot stores or replaces the snapshot for its invoice ID.
	PutSnapshot(s *escrow.Snapshot) error

	// GetSnapshot retrieves a snapshot by invoice ID.
	GetSnapshot(id invoice.ID) (*escrow.Snapshot, error)

	// ListSnapshots returns all snapshots in insertion order.
	ListSnapshots() ([]*escrow.Snapshot, error)
}

// Journal is the append-only settlement audit trail. Receipts are never
// updated or deleted.
type Journal interface {
	// Append records a receipt.
	Append(r *escrow.Receipt) error

	// List returns all receipts for an invoice in append order.
	List(id invoice.ID) ([]*escrow.Receipt, error)
}

// MemStore is an in-memory implementation of Store for testing.
type MemStore struct {
	mu    sync.RWMutex
	byID  map[invoice.ID]*escrow.Snapshot
	order []invoice.ID
}

// NewMemStore creates an empty in-memory snapshot store.
func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[invoice.ID]*escrow.Snapshot)}
}

// PutSnapshot stores or replaces the snapshot for its invoice ID.
func (s *MemStore) PutSnapshot(snap *escrow.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[snap.InvoiceID]; !exists {
		s.order = append(s.order, snap.InvoiceID)
	}
	s.byID[snap.InvoiceID] = snap
	return nil
}

// GetSnapshot retrieves a snapshot by invoice ID.
func (s *MemStore) GetSnapshot(id invoice.ID) (*escrow.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// ListSnapshots returns all snapshots in insertion order.
func (s *MemStore) ListSnapshots() ([]*escrow.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*escrow.Snapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// MemJournal is an in-memory implementation of Journal for testing.
type MemJournal struct {
	mu   sync.RWMutex
	byID map[invoice.ID][]*escrow.Receipt
}

// NewMemJournal creates an empty in-memory journal.
func NewMemJournal() *MemJournal {
	return &MemJournal{byID: make(map[invoice.ID][]*escrow.Receipt)}
}

// Append records a receipt.
func (j *MemJournal) Append(r *escrow.Receipt) error {
	if r == nil {
		return ErrNilReceipt
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.byID[r.InvoiceID] = append(j.byID[r.InvoiceID], r)
	return nil
}

// List returns all receipts for an invoice in append order.
func (j *MemJournal) List(id invoice.ID) ([]*escrow.Receipt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	receipts := j.byID[id]
	out := make([]*escrow.Receipt, len(receipts))
	copy(out, receipts)
	return out, nil
}
