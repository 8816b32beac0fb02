package sigs

import (
	"context"

	"github.com/iov-one/guardvault"
)

//------------------- Context --------
// Add context information specific to this package

type contextKey int // local to the auth module

const (
	contextKeySigners contextKey = iota
)

// WithSigners attaches the verified signers to the context. Only the runtime,
// after successful signature verification, should call this.
func WithSigners(ctx guardvault.Context, signers []guardvault.Address) guardvault.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// GetSigners returns who signed the current Context.
// May be empty
func GetSigners(ctx guardvault.Context) []guardvault.Address {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]guardvault.Address)
	return val
}

// HasSigner returns true if given address signed the current Context.
func HasSigner(ctx guardvault.Context, addr guardvault.Address) bool {
	return guardvault.Addresses(GetSigners(ctx)).Contains(addr)
}
