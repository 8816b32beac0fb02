package app

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/custody"
	"github.com/iov-one/guardvault/x/rent"
	"github.com/iov-one/guardvault/x/vault"
)

// DefaultRouter returns a router with the custody program and the vault program
// registered. vaultProgramID must match the program id of the vault
// configuration installed at genesis.
func DefaultRouter(vaultProgramID guardvault.Address) *Router {
	keeper := custody.NewKeeper()
	r := NewRouter()
	r.Register(keeper.ProgramID(), custody.NewProgram(keeper))
	r.Register(vaultProgramID, vault.NewProcessor(keeper))
	return r
}

// Initializers returns the genesis initializers of all extensions.
func Initializers() guardvault.Initializer {
	return guardvault.ChainInitializers(
		rent.Initializer{},
		vault.Initializer{},
		accounts.Initializer{},
		&custody.Initializer{Keeper: custody.NewKeeper()},
	)
}
