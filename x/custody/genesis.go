package custody

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// GenesisAccount describes a custody account created at genesis.
type GenesisAccount struct {
	Address   guardvault.Address `json:"address"`
	Lamports  uint64             `json:"lamports"`
	Asset     guardvault.Address `json:"asset"`
	Authority guardvault.Address `json:"authority"`
	Balance   uint64             `json:"balance"`
}

// Initializer fulfils the guardvault.Initializer interface to load custody
// accounts from the genesis file.
type Initializer struct {
	Keeper Keeper
}

var _ guardvault.Initializer = (*Initializer)(nil)

// FromGenesis creates, initializes and funds every custody account listed
// under the "custody" key.
func (i *Initializer) FromGenesis(opts guardvault.Options, db guardvault.KVStore) error {
	var accs []GenesisAccount
	if err := opts.ReadOptions("custody", &accs); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	for n, a := range accs {
		if err := i.Keeper.CreateAccount(db, a.Address, a.Lamports); err != nil {
			return errors.Wrapf(err, "custody account %d", n)
		}
		if err := i.Keeper.Initialize(db, a.Address, a.Asset, a.Authority); err != nil {
			return errors.Wrapf(err, "custody account %d", n)
		}
		if err := i.Keeper.Mint(db, a.Address, a.Balance); err != nil {
			return errors.Wrapf(err, "custody account %d", n)
		}
	}
	return nil
}
