package app

import "github.com/iov-one/guardvault/errors"

var (
	// ErrNoSuchProgram is returned when an instruction targets a program
	// that is not registered.
	ErrNoSuchProgram = errors.Register(140, "no such program")

	// ErrNoGenesis is returned when transactions are delivered before the
	// chain was initialized.
	ErrNoGenesis = errors.Register(141, "genesis not loaded")
)
