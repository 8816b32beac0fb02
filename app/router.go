package app

import (
	"fmt"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
)

// Program processes the instructions addressed to it. Accounts are resolved
// by the runtime, so a program can trust the signer and writable flags.
type Program interface {
	Process(ctx guardvault.Context, db guardvault.KVStore, accounts []accounts.AccountMeta, data []byte) error
}

// Router maps program ids to programs.
type Router struct {
	programs map[guardvault.Address]Program
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{programs: make(map[guardvault.Address]Program)}
}

// Register adds a program. It panics if the id is zero or already taken, as
// this is a programming error.
func (r *Router) Register(id guardvault.Address, p Program) {
	if id.IsZero() {
		panic("program id must not be zero")
	}
	if _, ok := r.programs[id]; ok {
		panic(fmt.Sprintf("program %s already registered", id))
	}
	r.programs[id] = p
}

// Program returns the program registered under given id.
func (r *Router) Program(id guardvault.Address) (Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchProgram, "%s", id)
	}
	return p, nil
}
