package sigs

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/crypto"
	"github.com/iov-one/guardvault/errors"
)

// SignedTx is a transaction carrying the signatures of its signers.
type SignedTx interface {
	// GetSignBytes returns the canonical encoding of the signed content.
	// Signatures are not part of it.
	GetSignBytes() ([]byte, error)
	GetSignatures() []*StdSignature
}

// StdSignature is a signature of a transaction with the signer key and the
// sequence number used.
type StdSignature struct {
	Pubkey    crypto.PublicKey
	Sequence  uint64
	Signature crypto.Signature
}

// MarshalWithEncoder writes the signature in its fixed binary form.
func (s StdSignature) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := s.Pubkey.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := enc.WriteUint64(s.Sequence, bin.LE); err != nil {
		return err
	}
	return s.Signature.MarshalWithEncoder(enc)
}

// UnmarshalWithDecoder reads a signature.
func (s *StdSignature) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := s.Pubkey.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	seq, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	s.Sequence = seq
	return s.Signature.UnmarshalWithDecoder(dec)
}

// Validate ensures the signature is well formed. It does not verify it.
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	if s.Pubkey == (crypto.PublicKey{}) {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Sequence > maxSequenceValue {
		return errors.Wrap(ErrInvalidSequence, "out of range")
	}
	return nil
}

// Signer returns the address of the signing key.
func (s *StdSignature) Signer() guardvault.Address {
	return s.Pubkey.Address()
}
