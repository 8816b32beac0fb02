package sigs

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/crypto"
	"github.com/iov-one/guardvault/errors"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue is limited by the client. The greatest supported
// nonce value at client side is
//   Number.MAX_SAFE_INTEGER = 9007199254740991 = 2^53 - 1
const maxSequenceValue = (1 << 53) - 1

// UserData stores the replay protection state of a single key.
type UserData struct {
	Pubkey   crypto.PublicKey
	Sequence uint64
}

var _ guardvault.Packable = (*UserData)(nil)

// PackedLen returns the size of the stored record.
func (UserData) PackedLen() int {
	return guardvault.AddressLength + 8
}

// MarshalWithEncoder writes the record.
func (u UserData) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := u.Pubkey.MarshalWithEncoder(enc); err != nil {
		return err
	}
	return enc.WriteUint64(u.Sequence, bin.LE)
}

// UnmarshalWithDecoder reads the record.
func (u *UserData) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := u.Pubkey.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	seq, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	u.Sequence = seq
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
// Before incrementing the sequence, this function is testing for a value
// overflow.
func (u *UserData) CheckAndIncrementSequence(expected uint64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

func userKey(addr guardvault.Address) []byte {
	return append([]byte(BucketName+":"), addr[:]...)
}

// GetOrCreate loads the user data of given key, or returns a fresh record
// if that key never signed anything.
func GetOrCreate(db guardvault.ReadOnlyKVStore, pubkey crypto.PublicKey) (*UserData, error) {
	raw, err := db.Get(userKey(pubkey.Address()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return &UserData{Pubkey: pubkey}, nil
	}
	var u UserData
	if err := guardvault.Unpack(raw, &u); err != nil {
		return nil, errors.Wrap(err, "user data")
	}
	return &u, nil
}

// Save writes the user data.
func Save(db guardvault.KVStore, u *UserData) error {
	raw, err := guardvault.Pack(u)
	if err != nil {
		return err
	}
	return db.Set(userKey(u.Pubkey.Address()), raw)
}
