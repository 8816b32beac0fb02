package accounts

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// MaxDataSize is the largest data buffer an account can be created with.
const MaxDataSize = 10 * 1024 * 1024

// BucketName is the key prefix of all accounts.
const BucketName = "acct"

// Account is the state of a single runtime account.
type Account struct {
	Lamports uint64
	Owner    guardvault.Address
	Data     []byte
}

// Validate ensures the account is well formed.
func (a *Account) Validate() error {
	if len(a.Data) > MaxDataSize {
		return errors.Wrapf(errors.ErrCapacity, "data of %d bytes", len(a.Data))
	}
	return nil
}

// MarshalWithEncoder writes the account.
func (a Account) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(a.Lamports, bin.LE); err != nil {
		return err
	}
	if err := a.Owner.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := guardvault.WriteLength(enc, len(a.Data)); err != nil {
		return err
	}
	return enc.WriteBytes(a.Data, false)
}

// UnmarshalWithDecoder reads the account.
func (a *Account) UnmarshalWithDecoder(dec *bin.Decoder) error {
	lamports, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	var owner guardvault.Address
	if err := owner.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	n, err := guardvault.ReadLength(dec, MaxDataSize)
	if err != nil {
		return err
	}
	data, err := dec.ReadNBytes(n)
	if err != nil {
		return errors.Wrap(errors.ErrDecoding, "data")
	}
	a.Lamports = lamports
	a.Owner = owner
	a.Data = append([]byte{}, data...)
	return nil
}

// AccountMeta is the resolved identity of a single account passed to a
// program invocation.
type AccountMeta struct {
	Address    guardvault.Address
	IsSigner   bool
	IsWritable bool
}

// Signer returns a meta of a writable account that signed the transaction.
func Signer(addr guardvault.Address) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: true, IsWritable: true}
}

// Writable returns a meta of a writable account.
func Writable(addr guardvault.Address) AccountMeta {
	return AccountMeta{Address: addr, IsWritable: true}
}

// ReadOnly returns a meta of an account that can only be read.
func ReadOnly(addr guardvault.Address) AccountMeta {
	return AccountMeta{Address: addr}
}
