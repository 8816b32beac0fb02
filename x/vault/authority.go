package vault

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// Deriver computes addresses deterministically from a set of seeds.
type Deriver interface {
	// DeriveAuthority returns the derived address and false if no valid
	// address exists for given seeds.
	DeriveAuthority(seeds ...[]byte) (guardvault.Address, bool)
}

// ProgramDeriver derives program addresses: addresses with no private key,
// namespaced by the program ID.
type ProgramDeriver struct {
	ProgramID guardvault.Address
}

var _ Deriver = ProgramDeriver{}

// DeriveAuthority implements Deriver.
func (d ProgramDeriver) DeriveAuthority(seeds ...[]byte) (guardvault.Address, bool) {
	addr, _, err := solana.FindProgramAddress(seeds, d.ProgramID.PublicKey())
	if err != nil {
		return guardvault.Address{}, false
	}
	return guardvault.Address(addr), true
}

// CustodyAuthority returns the authority that controls the custody account
// of a vault owned by owner.
func CustodyAuthority(d Deriver, owner, custody guardvault.Address) (guardvault.Address, error) {
	addr, ok := d.DeriveAuthority(owner.Bytes(), custody.Bytes())
	if !ok {
		return guardvault.Address{}, errors.Wrapf(ErrInvalidAuthorityDerivation, "no authority for owner %s and custody %s", owner, custody)
	}
	return addr, nil
}
