package custody

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/guardvault"
)

// ProgramID is the address of the custody program. Custody accounts must be
// owned by it.
var ProgramID = guardvault.Address(solana.TokenProgramID)

// LEN is the size of the custody account data.
const LEN = 1 + guardvault.AddressLength + guardvault.AddressLength + 8

// State is the content of a custody account.
type State struct {
	Initialized bool
	Asset       guardvault.Address
	Authority   guardvault.Address
	Balance     uint64
}

var _ guardvault.Packable = (*State)(nil)

// PackedLen returns LEN.
func (State) PackedLen() int { return LEN }

// MarshalWithEncoder writes the state.
func (s State) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := guardvault.WriteBool(enc, s.Initialized); err != nil {
		return err
	}
	if err := s.Asset.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := s.Authority.MarshalWithEncoder(enc); err != nil {
		return err
	}
	return enc.WriteUint64(s.Balance, bin.LE)
}

// UnmarshalWithDecoder reads the state.
func (s *State) UnmarshalWithDecoder(dec *bin.Decoder) error {
	initialized, err := guardvault.ReadBool(dec)
	if err != nil {
		return err
	}
	if err := s.Asset.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if err := s.Authority.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	balance, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	s.Initialized = initialized
	s.Balance = balance
	return nil
}
