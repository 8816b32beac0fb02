/*
Package sigs provides basic authentication: it verifies the signatures of a
transaction and maintains per key sequence numbers for replay protection.
*/
package sigs

import (
	"bytes"
	"crypto/sha512"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/crypto"
	"github.com/iov-one/guardvault/errors"
)

// SignCodeV1 prefixes the signed content of every signature.
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures verifies every signature of the transaction and
// increments the sequence of each signer. It returns the signer addresses in
// signature order.
func VerifyTxSignatures(db guardvault.KVStore, tx SignedTx, chainID string) ([]guardvault.Address, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()

	signers := make([]guardvault.Address, 0, len(sigs))
	for _, sig := range sigs {
		signer, err := VerifySignature(db, sig, bz, chainID)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature verifies a single signature and consumes its sequence.
func VerifySignature(db guardvault.KVStore, sig *StdSignature, signBytes []byte, chainID string) (guardvault.Address, error) {
	if err := sig.Validate(); err != nil {
		return guardvault.Address{}, err
	}

	user, err := GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return guardvault.Address{}, err
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return guardvault.Address{}, err
	}
	if !user.Pubkey.Verify(toSign, sig.Signature) {
		return guardvault.Address{}, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}

	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return guardvault.Address{}, err
	}
	if err := Save(db, user); err != nil {
		return guardvault.Address{}, err
	}
	return user.Pubkey.Address(), nil
}

// BuildSignBytes returns the digest that is signed for given content:
//
//   version | len(chainID) | chainID | sequence (big endian u64) | content
//
// hashed with sha512, so that the signed message has a constant length.
func BuildSignBytes(signBytes []byte, chainID string, seq uint64) ([]byte, error) {
	if seq > maxSequenceValue {
		return nil, errors.Wrap(ErrInvalidSequence, "out of range")
	}
	if !guardvault.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	if err := enc.WriteBytes(SignCodeV1, false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(uint8(len(chainID))); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(chainID), false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(seq, bin.BE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(signBytes, false); err != nil {
		return nil, err
	}
	hashed := sha512.Sum512(buf.Bytes())
	return hashed[:], nil
}

// BuildSignBytesTx returns the digest a signer of tx must sign.
func BuildSignBytesTx(tx SignedTx, chainID string, seq uint64) ([]byte, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(signBytes, chainID, seq)
}

// SignTx signs tx with given sequence.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq uint64) (*StdSignature, error) {
	signBytes, err := BuildSignBytesTx(tx, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(signBytes)
	if err != nil {
		return nil, err
	}
	return &StdSignature{
		Pubkey:    signer.PublicKey(),
		Signature: sig,
		Sequence:  seq,
	}, nil
}

// NextSequence returns the sequence the next signature of given key must
// carry.
func NextSequence(db guardvault.KVStore, pubkey crypto.PublicKey) (uint64, error) {
	user, err := GetOrCreate(db, pubkey)
	if err != nil {
		return 0, err
	}
	return user.Sequence, nil
}
