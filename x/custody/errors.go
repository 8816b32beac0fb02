package custody

import (
	"github.com/iov-one/guardvault/errors"
)

var (
	// ErrAssetMismatch is returned when funds are moved between accounts of
	// different assets.
	ErrAssetMismatch = errors.Register(130, "asset mismatch")

	// ErrNotCustody is returned when an account is not a custody account.
	ErrNotCustody = errors.Register(131, "not a custody account")

	// ErrInsufficientFunds is returned when the source balance is too low.
	ErrInsufficientFunds = errors.Register(132, "insufficient funds")
)
