package app

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/crypto"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/sigs"
)

const (
	// MaxInstructions is the largest number of instructions in a single
	// transaction.
	MaxInstructions = 16
	// MaxInstructionAccounts is the largest number of accounts a single
	// instruction can reference.
	MaxInstructionAccounts = 64
	// MaxInstructionData is the largest instruction payload.
	MaxInstructionData = 1024
	// MaxSignatures is the largest number of signatures of a transaction.
	MaxSignatures = 16
)

// AccountRef references an account used by an instruction. Whether the
// account signed is not declared by the sender but derived from the
// verified signatures.
type AccountRef struct {
	Address  guardvault.Address
	Writable bool
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID guardvault.Address
	Accounts  []AccountRef
	Data      []byte
}

// NewInstruction builds an instruction from the account list a program
// client prepared.
func NewInstruction(programID guardvault.Address, metas []accounts.AccountMeta, data []byte) Instruction {
	refs := make([]AccountRef, len(metas))
	for i, m := range metas {
		refs[i] = AccountRef{Address: m.Address, Writable: m.IsWritable}
	}
	return Instruction{ProgramID: programID, Accounts: refs, Data: data}
}

// Validate ensures the instruction fits the limits.
func (ix *Instruction) Validate() error {
	if ix.ProgramID.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "program id")
	}
	if len(ix.Accounts) > MaxInstructionAccounts {
		return errors.Wrapf(errors.ErrInput, "%d accounts, limit is %d", len(ix.Accounts), MaxInstructionAccounts)
	}
	if len(ix.Data) > MaxInstructionData {
		return errors.Wrapf(errors.ErrInput, "%d bytes of data, limit is %d", len(ix.Data), MaxInstructionData)
	}
	return nil
}

func (ix Instruction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := ix.ProgramID.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := guardvault.WriteLength(enc, len(ix.Accounts)); err != nil {
		return err
	}
	for _, a := range ix.Accounts {
		if err := a.Address.MarshalWithEncoder(enc); err != nil {
			return err
		}
		if err := guardvault.WriteBool(enc, a.Writable); err != nil {
			return err
		}
	}
	if err := guardvault.WriteLength(enc, len(ix.Data)); err != nil {
		return err
	}
	return enc.WriteBytes(ix.Data, false)
}

func (ix *Instruction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := ix.ProgramID.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	n, err := guardvault.ReadLength(dec, MaxInstructionAccounts)
	if err != nil {
		return err
	}
	ix.Accounts = make([]AccountRef, n)
	for i := range ix.Accounts {
		if err := ix.Accounts[i].Address.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
		if ix.Accounts[i].Writable, err = guardvault.ReadBool(dec); err != nil {
			return err
		}
	}
	n, err = guardvault.ReadLength(dec, MaxInstructionData)
	if err != nil {
		return err
	}
	data, err := dec.ReadNBytes(n)
	if err != nil {
		return errors.Wrap(errors.ErrDecoding, "instruction data")
	}
	ix.Data = append([]byte{}, data...)
	return nil
}

// Tx is a signed list of instructions.
type Tx struct {
	Instructions []Instruction
	Signatures   []*sigs.StdSignature
}

var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction.
func NewTx(instructions ...Instruction) *Tx {
	return &Tx{Instructions: instructions}
}

// Validate ensures the transaction fits the limits.
func (tx *Tx) Validate() error {
	if len(tx.Instructions) == 0 {
		return errors.Wrap(errors.ErrEmpty, "instructions")
	}
	if len(tx.Instructions) > MaxInstructions {
		return errors.Wrapf(errors.ErrInput, "%d instructions, limit is %d", len(tx.Instructions), MaxInstructions)
	}
	if len(tx.Signatures) > MaxSignatures {
		return errors.Wrapf(errors.ErrInput, "%d signatures, limit is %d", len(tx.Signatures), MaxSignatures)
	}
	for i := range tx.Instructions {
		if err := tx.Instructions[i].Validate(); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

// GetSignBytes returns the encoded instructions. Signatures are not part of
// the signed content.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	return guardvault.Encode(message{tx.Instructions})
}

// GetSignatures returns all signatures of the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// Sign appends a signature of given key.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq uint64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := (message{tx.Instructions}).MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := guardvault.WriteLength(enc, len(tx.Signatures)); err != nil {
		return err
	}
	for i, s := range tx.Signatures {
		if s == nil {
			return errors.Wrapf(errors.ErrEmpty, "signature %d", i)
		}
		if err := s.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var m message
	if err := m.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	n, err := guardvault.ReadLength(dec, MaxSignatures)
	if err != nil {
		return err
	}
	signatures := make([]*sigs.StdSignature, n)
	for i := range signatures {
		var s sigs.StdSignature
		if err := s.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
		signatures[i] = &s
	}
	tx.Instructions = m.instructions
	tx.Signatures = signatures
	return nil
}

// Marshal returns the wire representation of the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	return guardvault.Encode(tx)
}

// DecodeTx parses and validates a transaction.
func DecodeTx(raw []byte) (*Tx, error) {
	var tx Tx
	if err := guardvault.Decode(raw, &tx); err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// message is the signed part of a transaction.
type message struct {
	instructions []Instruction
}

func (m message) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := guardvault.WriteLength(enc, len(m.instructions)); err != nil {
		return err
	}
	for _, ix := range m.instructions {
		if err := ix.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return nil
}

func (m *message) UnmarshalWithDecoder(dec *bin.Decoder) error {
	n, err := guardvault.ReadLength(dec, MaxInstructions)
	if err != nil {
		return err
	}
	m.instructions = make([]Instruction, n)
	for i := range m.instructions {
		if err := m.instructions[i].UnmarshalWithDecoder(dec); err != nil {
			return err
		}
	}
	return nil
}
