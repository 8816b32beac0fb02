package guardvault

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/guardvault/errors"
	"github.com/mr-tron/base58"
)

// AddressLength is the length of all addresses.
const AddressLength = 32

// Address is a 32 byte identity. Owners, guardians, custody accounts, assets
// and programs are all referenced by an Address.
type Address [AddressLength]byte

// NewAddress returns an address holding a copy of given bytes. It fails
// unless exactly AddressLength bytes are provided.
func NewAddress(raw []byte) (Address, error) {
	var a Address
	if len(raw) != AddressLength {
		return a, errors.Wrapf(errors.ErrInput, "address must be %d bytes, got %d", AddressLength, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// ParseAddress decodes a human readable address representation. Base58 is the
// default format. Other formats must be declared with a prefix, for example
// "hex:0a1b...".
func ParseAddress(enc string) (Address, error) {
	chunks := strings.SplitN(enc, ":", 2)
	format := "base58"
	if len(chunks) == 2 {
		format, enc = chunks[0], chunks[1]
	}

	var (
		raw []byte
		err error
	)
	switch format {
	case "base58":
		raw, err = base58.Decode(enc)
	case "hex":
		raw, err = hex.DecodeString(enc)
	default:
		return Address{}, errors.Wrapf(errors.ErrType, "unknown format %q", format)
	}
	if err != nil {
		return Address{}, errors.Wrapf(errors.ErrInput, "cannot decode %s: %s", format, err)
	}
	return NewAddress(raw)
}

// Equals checks if two addresses are the same.
func (a Address) Equals(b Address) bool {
	return a == b
}

// IsZero returns true if this address was never set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// PublicKey returns the address as a solana public key, so that it can be
// used in program address derivation.
func (a Address) PublicKey() solana.PublicKey {
	return solana.PublicKey(a)
}

// String returns the base58 representation of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalJSON serializes the address using its base58 representation.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any of the formats supported by ParseAddress.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Set updates the address from its textual form. Together with String it
// implements flag.Value.
func (a *Address) Set(enc string) error {
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// MarshalWithEncoder writes exactly AddressLength bytes.
func (a Address) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteBytes(a[:], false)
}

// UnmarshalWithDecoder reads exactly AddressLength bytes.
func (a *Address) UnmarshalWithDecoder(dec *bin.Decoder) error {
	raw, err := dec.ReadNBytes(AddressLength)
	if err != nil {
		return errors.Wrap(errors.ErrDecoding, "address")
	}
	copy(a[:], raw)
	return nil
}

// Addresses is an ordered collection of addresses.
type Addresses []Address

// Contains returns true if given address is part of the collection.
func (as Addresses) Contains(a Address) bool {
	return as.Index(a) >= 0
}

// Index returns the position of given address or -1.
func (as Addresses) Index(a Address) int {
	for i, x := range as {
		if x == a {
			return i
		}
	}
	return -1
}

// Remove returns a copy of the collection without given address. Order of
// the remaining elements is preserved.
func (as Addresses) Remove(a Address) Addresses {
	out := make(Addresses, 0, len(as))
	for _, x := range as {
		if x != a {
			out = append(out, x)
		}
	}
	return out
}
