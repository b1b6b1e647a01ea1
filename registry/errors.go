package registry

import "errors"

var (
	// ErrAlreadyExists indicates an escrow already exists for the invoice ID.
	ErrAlreadyExists = errors.New("registry: escrow already exists for invoice")

	// ErrNotFound indicates no escrow is registered for the invoice ID.
	ErrNotFound = errors.New("registry: escrow not found")

	// ErrIndexOutOfRange indicates an enumeration index past the end.
	ErrIndexOutOfRange = errors.New("registry: index out of range")

	// ErrNilSnapshot indicates a nil snapshot was passed to a store.
	ErrNilSnapshot = errors.New("registry: nil snapshot")

	// ErrNilReceipt indicates a nil receipt was passed to a journal.
	ErrNilReceipt = errors.New("registry: nil receipt")

	// ErrNotPersisted indicates an operation changed the escrow but its
	// snapshot mirror or receipt journaling failed afterwards. The receipt
	// is still returned alongside the error.
	ErrNotPersisted = errors.New("registry: operation applied but not persisted")
)
