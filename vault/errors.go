package vault

import "errors"

var (
	// ErrUnauthorized indicates the caller is not the vault admin.
	ErrUnauthorized = errors.New("vault: unauthorized")

	// ErrZeroAmount indicates a zero deposit or redemption quantity.
	ErrZeroAmount = errors.New("vault: amount must be greater than zero")

	// ErrInsufficientShares indicates the owner holds fewer shares than requested.
	ErrInsufficientShares = errors.New("vault: insufficient shares")

	// ErrYieldTooHigh indicates a yield rate above MaxYieldBPS.
	ErrYieldTooHigh = errors.New("vault: yield rate too high")

	// ErrEmptyAdmin indicates the admin identity is empty.
	ErrEmptyAdmin = errors.New("vault: admin identity must not be empty")

	// ErrEmptyOwner indicates the share owner identity is empty.
	ErrEmptyOwner = errors.New("vault: owner identity must not be empty")
)
