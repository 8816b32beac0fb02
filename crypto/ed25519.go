package crypto

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"golang.org/x/crypto/ed25519"
)

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Signature is a raw ed25519 signature.
type Signature [SignatureSize]byte

// MarshalWithEncoder writes the signature bytes.
func (s Signature) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteBytes(s[:], false)
}

// UnmarshalWithDecoder reads exactly SignatureSize bytes.
func (s *Signature) UnmarshalWithDecoder(dec *bin.Decoder) error {
	raw, err := dec.ReadNBytes(SignatureSize)
	if err != nil {
		return errors.Wrap(errors.ErrDecoding, "signature")
	}
	copy(s[:], raw)
	return nil
}

// PublicKey is an ed25519 public key. Its bytes are used directly as the
// Address of the key holder.
type PublicKey [ed25519.PublicKeySize]byte

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(p[:]), message, sig[:])
}

// Address returns the identity controlled by this key.
func (p PublicKey) Address() guardvault.Address {
	return guardvault.Address(p)
}

// MarshalWithEncoder writes the key bytes.
func (p PublicKey) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteBytes(p[:], false)
}

// UnmarshalWithDecoder reads exactly the key length.
func (p *PublicKey) UnmarshalWithDecoder(dec *bin.Decoder) error {
	raw, err := dec.ReadNBytes(ed25519.PublicKeySize)
	if err != nil {
		return errors.Wrap(errors.ErrDecoding, "public key")
	}
	copy(p[:], raw)
	return nil
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (Signature, error)
	PublicKey() PublicKey
}

// PrivateKey holds an ed25519 private key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (Signature, error) {
	var sig Signature
	if len(p.key) != ed25519.PrivateKeySize {
		return sig, errors.Wrap(errors.ErrState, "private key not set")
	}
	copy(sig[:], ed25519.Sign(p.key, message))
	return sig, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() PublicKey {
	var pub PublicKey
	copy(pub[:], p.key.Public().(ed25519.PublicKey))
	return pub
}

// Seed returns the seed this key was generated from.
func (p *PrivateKey) Seed() []byte {
	return p.key.Seed()
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{key: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(errors.ErrInput, "seed must be %d bytes", ed25519.SeedSize)
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}
