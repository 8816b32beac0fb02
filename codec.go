package guardvault

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault/errors"
)

// Marshaler is implemented by records with a fixed-layout binary form.
//
// PackedLen must return the worst case size of the encoded record: fixed
// width fields contribute their width, variable width sequences contribute a
// 4 byte length prefix plus their maximum capacity times the element width and
// optional values contribute one presence byte plus the payload width.
type Marshaler interface {
	PackedLen() int
	MarshalWithEncoder(*bin.Encoder) error
}

// Unmarshaler is implemented by records that can be loaded from their
// fixed-layout binary form.
type Unmarshaler interface {
	PackedLen() int
	UnmarshalWithDecoder(*bin.Decoder) error
}

// Packable records can be both packed and unpacked.
type Packable interface {
	Marshaler
	Unmarshaler
}

// Pack returns the encoded record, zero padded to exactly PackedLen bytes.
// Encoding is done into a scratch buffer and the size is checked before
// anything is returned, so an oversized record never reaches storage.
func Pack(m Marshaler) ([]byte, error) {
	raw, err := encode(m)
	if err != nil {
		return nil, err
	}
	out := make([]byte, m.PackedLen())
	copy(out, raw)
	return out, nil
}

// PackInto encodes the record into dst, which must be exactly PackedLen bytes
// long. dst is not modified unless encoding succeeds.
func PackInto(dst []byte, m Marshaler) error {
	if len(dst) != m.PackedLen() {
		return errors.Wrapf(errors.ErrCapacity, "storage is %d bytes, record requires %d", len(dst), m.PackedLen())
	}
	raw, err := encode(m)
	if err != nil {
		return err
	}
	n := copy(dst, raw)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func encode(m Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	if buf.Len() > m.PackedLen() {
		return nil, errors.Wrapf(errors.ErrCapacity, "encoded %d bytes, limit is %d", buf.Len(), m.PackedLen())
	}
	return buf.Bytes(), nil
}

// Unpack decodes a record from a buffer of exactly PackedLen bytes. Bytes
// following the encoded record must be zero padding. On failure the
// destination must be considered garbage and discarded.
func Unpack(data []byte, u Unmarshaler) error {
	if len(data) != u.PackedLen() {
		return errors.Wrapf(errors.ErrDecoding, "want %d bytes, got %d", u.PackedLen(), len(data))
	}
	dec := bin.NewBorshDecoder(data)
	if err := u.UnmarshalWithDecoder(dec); err != nil {
		return errors.Wrap(err, "decode")
	}
	if n := dec.Remaining(); n > 0 {
		rest, err := dec.ReadNBytes(n)
		if err != nil {
			return errors.Wrap(errors.ErrDecoding, "padding")
		}
		for _, b := range rest {
			if b != 0 {
				return errors.Wrap(errors.ErrDecoding, "non zero padding")
			}
		}
	}
	return nil
}

// Decode reads a record from a buffer that must be consumed entirely. It is
// used for variable sized payloads such as instructions and transactions.
func Decode(data []byte, u interface {
	UnmarshalWithDecoder(*bin.Decoder) error
}) error {
	dec := bin.NewBorshDecoder(data)
	if err := u.UnmarshalWithDecoder(dec); err != nil {
		return errors.Wrap(err, "decode")
	}
	if dec.Remaining() != 0 {
		return errors.Wrapf(errors.ErrDecoding, "%d trailing bytes", dec.Remaining())
	}
	return nil
}

// Encode serializes a record with no size limit.
func Encode(m interface {
	MarshalWithEncoder(*bin.Encoder) error
}) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	return buf.Bytes(), nil
}

// ReadBool reads a single byte flag. Any value other than 0 or 1 is rejected
// so that every record has exactly one valid encoding.
func ReadBool(dec *bin.Decoder) (bool, error) {
	b, err := dec.ReadUint8()
	if err != nil {
		return false, errors.Wrap(errors.ErrDecoding, "bool")
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(errors.ErrDecoding, "invalid bool value %d", b)
	}
}

// WriteBool writes a single byte flag.
func WriteBool(enc *bin.Encoder, v bool) error {
	if v {
		return enc.WriteUint8(1)
	}
	return enc.WriteUint8(0)
}

// ReadLength reads a 4 byte little endian sequence length and ensures it does
// not exceed max.
func ReadLength(dec *bin.Decoder, max int) (int, error) {
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDecoding, "length prefix")
	}
	if int64(n) > int64(max) {
		return 0, errors.Wrapf(errors.ErrDecoding, "length %d exceeds capacity %d", n, max)
	}
	return int(n), nil
}

// WriteLength writes a 4 byte little endian sequence length.
func WriteLength(enc *bin.Encoder, n int) error {
	return enc.WriteUint32(uint32(n), bin.LE)
}

// ReadUint64 reads a little endian unsigned integer.
func ReadUint64(dec *bin.Decoder) (uint64, error) {
	v, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDecoding, "uint64")
	}
	return v, nil
}

// ReadUint8 reads a single byte.
func ReadUint8(dec *bin.Decoder) (uint8, error) {
	v, err := dec.ReadUint8()
	if err != nil {
		return 0, errors.Wrap(errors.ErrDecoding, "uint8")
	}
	return v, nil
}

// LengthPrefixSize is the width of a sequence length prefix.
const LengthPrefixSize = 4

// OptionSize is the width of an optional value presence flag.
const OptionSize = 1
