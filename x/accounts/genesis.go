package accounts

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// GenesisAccount describes an account created at genesis.
type GenesisAccount struct {
	Address  guardvault.Address `json:"address"`
	Lamports uint64             `json:"lamports"`
	Space    int                `json:"space"`
	Owner    guardvault.Address `json:"owner"`
}

// Initializer fulfils the guardvault.Initializer interface to load accounts
// from the genesis file.
type Initializer struct{}

var _ guardvault.Initializer = Initializer{}

// FromGenesis creates every account listed under the "accounts" key.
func (Initializer) FromGenesis(opts guardvault.Options, db guardvault.KVStore) error {
	var accs []GenesisAccount
	if err := opts.ReadOptions("accounts", &accs); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	for _, a := range accs {
		if _, err := Create(db, a.Address, a.Lamports, a.Space, a.Owner); err != nil {
			return errors.Wrapf(err, "account %s", a.Address)
		}
	}
	return nil
}
