package custody

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
)

// Keeper gives access to custody accounts of a single custody program.
type Keeper struct {
	programID guardvault.Address
}

// NewKeeper returns a keeper of custody accounts owned by ProgramID.
func NewKeeper() Keeper {
	return Keeper{programID: ProgramID}
}

// ProgramID returns the address of the program owning the custody accounts.
func (k Keeper) ProgramID() guardvault.Address {
	return k.programID
}

// CreateAccount allocates a new, uninitialized custody account.
func (k Keeper) CreateAccount(db guardvault.KVStore, addr guardvault.Address, lamports uint64) error {
	_, err := accounts.Create(db, addr, lamports, LEN, k.programID)
	return err
}

// Load returns the custody state stored in given account. The account must
// exist and be owned by the custody program.
func (k Keeper) Load(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (*State, error) {
	acc, err := accounts.Get(db, addr)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(k.programID) {
		return nil, errors.Wrapf(ErrNotCustody, "account %s is owned by %s", addr, acc.Owner)
	}
	var s State
	if err := guardvault.Unpack(acc.Data, &s); err != nil {
		return nil, errors.Wrapf(ErrNotCustody, "account %s: %s", addr, err)
	}
	return &s, nil
}

// LoadInitialized returns the custody state of an initialized account.
func (k Keeper) LoadInitialized(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (*State, error) {
	s, err := k.Load(db, addr)
	if err != nil {
		return nil, err
	}
	if !s.Initialized {
		return nil, errors.Wrapf(errors.ErrState, "custody account %s is not initialized", addr)
	}
	return s, nil
}

func (k Keeper) save(db guardvault.KVStore, addr guardvault.Address, s *State) error {
	acc, err := accounts.Get(db, addr)
	if err != nil {
		return err
	}
	if err := guardvault.PackInto(acc.Data, s); err != nil {
		return err
	}
	return accounts.Save(db, addr, acc)
}

// Initialize sets the asset and the authority of a fresh custody account.
func (k Keeper) Initialize(db guardvault.KVStore, custody, asset, authority guardvault.Address) error {
	s, err := k.Load(db, custody)
	if err != nil {
		return err
	}
	if s.Initialized {
		return errors.Wrapf(errors.ErrState, "custody account %s already initialized", custody)
	}
	s.Initialized = true
	s.Asset = asset
	s.Authority = authority
	return k.save(db, custody, s)
}

// Transfer moves amount from source to destination. authority must be the
// authority of the source account.
func (k Keeper) Transfer(db guardvault.KVStore, source, destination, authority guardvault.Address, amount uint64) error {
	if source.Equals(destination) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same")
	}
	src, err := k.LoadInitialized(db, source)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dst, err := k.LoadInitialized(db, destination)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !src.Authority.Equals(authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the authority of %s", authority, source)
	}
	if !src.Asset.Equals(dst.Asset) {
		return errors.Wrapf(ErrAssetMismatch, "%s to %s", src.Asset, dst.Asset)
	}
	if src.Balance < amount {
		return errors.Wrapf(ErrInsufficientFunds, "have %d, need %d", src.Balance, amount)
	}
	if dst.Balance+amount < dst.Balance {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}
	src.Balance -= amount
	dst.Balance += amount
	if err := k.save(db, source, src); err != nil {
		return err
	}
	return k.save(db, destination, dst)
}

// SetAuthority hands control over a custody account from current to next.
func (k Keeper) SetAuthority(db guardvault.KVStore, custody, current, next guardvault.Address) error {
	s, err := k.LoadInitialized(db, custody)
	if err != nil {
		return err
	}
	if !s.Authority.Equals(current) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the authority of %s", current, custody)
	}
	s.Authority = next
	return k.save(db, custody, s)
}

// Mint credits an initialized custody account with new funds. It is only
// used when loading the genesis and in tests.
func (k Keeper) Mint(db guardvault.KVStore, custody guardvault.Address, amount uint64) error {
	s, err := k.LoadInitialized(db, custody)
	if err != nil {
		return err
	}
	if s.Balance+amount < s.Balance {
		return errors.Wrap(errors.ErrOverflow, "balance")
	}
	s.Balance += amount
	return k.save(db, custody, s)
}
