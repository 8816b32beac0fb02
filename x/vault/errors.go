package vault

import (
	"github.com/iov-one/guardvault/errors"
)

var (
	ErrAlreadyInitialized         = errors.Register(1000, "vault already initialized")
	ErrNotInitialized             = errors.Register(1001, "vault not initialized")
	ErrMissingSignature           = errors.Register(1002, "missing signature")
	ErrInvalidAuthorityDerivation = errors.Register(1003, "invalid authority derivation")
	ErrAccountMismatch            = errors.Register(1004, "account mismatch")
	ErrNotRentExempt              = errors.Register(1005, "not rent exempt")
	ErrInvalidInstruction         = errors.Register(1006, "invalid instruction encoding")
	ErrInsufficientGuardians      = errors.Register(1007, "insufficient guardians")
	ErrProposalAlreadyPending     = errors.Register(1008, "proposal already pending")
	ErrNoPendingProposal          = errors.Register(1009, "no pending proposal")
	ErrDuplicateConfirmation      = errors.Register(1010, "duplicate confirmation")
	ErrUnauthorized               = errors.Register(1011, "neither owner nor guardian")
	ErrVaultFrozen                = errors.Register(1012, "vault frozen")
	ErrWithdrawalLimitExceeded    = errors.Register(1013, "withdrawal limit exceeded")

	// ErrEncodingCapacityExceeded is returned when a record would not fit in
	// its fixed size storage. It is the codec capacity error so that failures
	// reported by the codec itself match as well.
	ErrEncodingCapacityExceeded = errors.ErrCapacity
)
