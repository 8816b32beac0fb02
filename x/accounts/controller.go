package accounts

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

func accountKey(addr guardvault.Address) []byte {
	return append([]byte(BucketName+":"), addr[:]...)
}

// Get loads the account stored under given address.
func Get(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (*Account, error) {
	raw, err := db.Get(accountKey(addr))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "account %s", addr)
	}
	var a Account
	if err := guardvault.Decode(raw, &a); err != nil {
		return nil, errors.Wrapf(err, "account %s", addr)
	}
	return &a, nil
}

// Exists returns true if an account is stored under given address.
func Exists(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (bool, error) {
	ok, err := db.Has(accountKey(addr))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Create allocates a new account with a zeroed data buffer of given size.
func Create(db guardvault.KVStore, addr guardvault.Address, lamports uint64, space int, owner guardvault.Address) (*Account, error) {
	if space < 0 || space > MaxDataSize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid space %d", space)
	}
	switch ok, err := Exists(db, addr); {
	case err != nil:
		return nil, err
	case ok:
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %s", addr)
	}
	a := &Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	}
	if err := put(db, addr, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Save writes an updated account. The data buffer size of an account can never
// change once it was created.
func Save(db guardvault.KVStore, addr guardvault.Address, a *Account) error {
	prev, err := Get(db, addr)
	if err != nil {
		return err
	}
	if len(prev.Data) != len(a.Data) {
		return errors.Wrapf(errors.ErrState, "account data cannot be resized from %d to %d bytes", len(prev.Data), len(a.Data))
	}
	return put(db, addr, a)
}

func put(db guardvault.KVStore, addr guardvault.Address, a *Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	raw, err := guardvault.Encode(a)
	if err != nil {
		return err
	}
	if err := db.Set(accountKey(addr), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// TransferLamports moves lamports between two existing accounts. Either both
// balances are updated or none is.
func TransferLamports(db guardvault.KVStore, from, to guardvault.Address, amount uint64) error {
	if from.Equals(to) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same")
	}
	src, err := Get(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dst, err := Get(db, to)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if src.Lamports < amount {
		return errors.Wrapf(errors.ErrAmount, "insufficient lamports: have %d, need %d", src.Lamports, amount)
	}
	if dst.Lamports+amount < dst.Lamports {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}
	src.Lamports -= amount
	dst.Lamports += amount
	if err := put(db, from, src); err != nil {
		return err
	}
	return put(db, to, dst)
}
