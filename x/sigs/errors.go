package sigs

import (
	"github.com/iov-one/guardvault/errors"
)

var (
	// ErrInvalidSequence is returned when a signature carries a sequence
	// other than the next expected one.
	ErrInvalidSequence = errors.Register(120, "invalid sequence number")
)
