package escrow

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the role the operation requires.
	ErrUnauthorized = errors.New("escrow: unauthorized")

	// ErrInvalidState indicates the operation is not permitted in the current
	// state, including double funding and double settlement.
	ErrInvalidState = errors.New("escrow: invalid state")

	// ErrAmountMismatch indicates the funding amount does not equal the
	// expected notional for the target.
	ErrAmountMismatch = errors.New("escrow: amount mismatch")

	// ErrNilParams indicates a nil parameter struct.
	ErrNilParams = errors.New("escrow: nil params")

	// ErrEmptyCreator indicates the creator identity is empty.
	ErrEmptyCreator = errors.New("escrow: creator identity must not be empty")

	// ErrEmptyIdentity indicates an empty caller identity.
	ErrEmptyIdentity = errors.New("escrow: caller identity must not be empty")

	// ErrZeroAmount indicates a zero invoice amount.
	ErrZeroAmount = errors.New("escrow: invoice amount must be greater than zero")

	// ErrMissingVault indicates the yield capability was requested without a vault.
	ErrMissingVault = errors.New("escrow: yield capability requires a vault")

	// ErrNoDeliverables indicates the deliverables capability was requested
	// without a deliverable split.
	ErrNoDeliverables = errors.New("escrow: deliverables capability requires a split")

	// ErrBadPercentSum indicates deliverable percentages that do not sum to 100.
	ErrBadPercentSum = errors.New("escrow: deliverable percentages must sum to 100")

	// ErrZeroPercent indicates a deliverable with a zero percentage.
	ErrZeroPercent = errors.New("escrow: deliverable percentage must be greater than zero")

	// ErrIndexOutOfRange indicates a deliverable index outside the ledger.
	ErrIndexOutOfRange = errors.New("escrow: deliverable index out of range")
)
