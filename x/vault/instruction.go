package vault

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// InstructionKind is the leading discriminant of an encoded instruction.
type InstructionKind uint8

const (
	KindInitVault InstructionKind = iota
	KindProposeAction
	KindConfirmAction
	KindExecuteWithdrawal
	KindAddGuardian
	KindRemoveGuardian
	KindWithdrawProposal
)

func (k InstructionKind) String() string {
	switch k {
	case KindInitVault:
		return "init_vault"
	case KindProposeAction:
		return "propose_action"
	case KindConfirmAction:
		return "confirm_action"
	case KindExecuteWithdrawal:
		return "execute_withdrawal"
	case KindAddGuardian:
		return "add_guardian"
	case KindRemoveGuardian:
		return "remove_guardian"
	case KindWithdrawProposal:
		return "withdraw_proposal"
	default:
		return fmt.Sprintf("instruction(%d)", uint8(k))
	}
}

// Instruction is one of the vault program commands.
type Instruction interface {
	Kind() InstructionKind
	isInstruction()
}

// InitVaultFixedAccounts is the number of accounts InitVault expects before
// the guardian list.
//
//   0. [signer] owner
//   1. [writable] vault state account
//   2. [writable] source custody account, funded by the owner
//   3. [writable] vault custody account
//   4. custody authority claimed by the caller
//   5... guardians
const InitVaultFixedAccounts = 5

// InitVault creates a vault and deposits Amount into its custody account.
type InitVault struct {
	Amount     uint64
	Thresholds GuardianThresholds
	// Guardians are not part of the payload. They are read from the
	// account list, following the fixed accounts.
	Guardians guardvault.Addresses
}

// ProposeAction raises a governed action.
//
//   0. [signer] owner or guardian
//   1. [writable] vault state account
//   2. [writable] vault custody account
type ProposeAction struct {
	Action Action
}

// ConfirmAction adds a guardian confirmation to the pending proposal.
//
//   0. [signer] guardian
//   1. [writable] vault state account
//   2. [writable] vault custody account
type ConfirmAction struct {
	ProposalID uint64
}

// ExecuteWithdrawal moves funds out of the vault custody account.
//
//   0. [signer] owner
//   1. vault state account
//   2. [writable] vault custody account
//   3. [writable] destination custody account
type ExecuteWithdrawal struct {
	Asset  guardvault.Address
	Amount uint64
}

// AddGuardian appends a guardian to the roster.
//
//   0. [signer] owner
//   1. [writable] vault state account
//   2. guardian
type AddGuardian struct{}

// RemoveGuardian removes a guardian from the roster.
//
//   0. [signer] owner
//   1. [writable] vault state account
//   2. guardian
type RemoveGuardian struct{}

// WithdrawProposal abandons the pending proposal.
//
//   0. [signer] owner or the guardian that raised the proposal, while it
//      is still a guardian
//   1. [writable] vault state account
type WithdrawProposal struct {
	ProposalID uint64
}

func (InitVault) Kind() InstructionKind         { return KindInitVault }
func (ProposeAction) Kind() InstructionKind     { return KindProposeAction }
func (ConfirmAction) Kind() InstructionKind     { return KindConfirmAction }
func (ExecuteWithdrawal) Kind() InstructionKind { return KindExecuteWithdrawal }
func (AddGuardian) Kind() InstructionKind       { return KindAddGuardian }
func (RemoveGuardian) Kind() InstructionKind    { return KindRemoveGuardian }
func (WithdrawProposal) Kind() InstructionKind  { return KindWithdrawProposal }

func (InitVault) isInstruction()         {}
func (ProposeAction) isInstruction()     {}
func (ConfirmAction) isInstruction()     {}
func (ExecuteWithdrawal) isInstruction() {}
func (AddGuardian) isInstruction()       {}
func (RemoveGuardian) isInstruction()    {}
func (WithdrawProposal) isInstruction()  {}

// DecodeInstruction parses an encoded instruction. The account list is only
// consulted by InitVault, which reads its guardians from it. Decoding does
// not check any authority.
func DecodeInstruction(data []byte, accounts []guardvault.Address) (Instruction, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidInstruction, "empty instruction")
	}
	dec := bin.NewBorshDecoder(data)
	kind, err := dec.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInstruction, "discriminant")
	}

	var ix Instruction
	switch InstructionKind(kind) {
	case KindInitVault:
		ix, err = decodeInitVault(dec, accounts)
	case KindProposeAction:
		var action Action
		action, err = readAction(dec)
		ix = ProposeAction{Action: action}
	case KindConfirmAction:
		var id uint64
		id, err = guardvault.ReadUint64(dec)
		ix = ConfirmAction{ProposalID: id}
	case KindExecuteWithdrawal:
		var w ExecuteWithdrawal
		if err = w.Asset.UnmarshalWithDecoder(dec); err == nil {
			w.Amount, err = guardvault.ReadUint64(dec)
		}
		ix = w
	case KindAddGuardian:
		ix = AddGuardian{}
	case KindRemoveGuardian:
		ix = RemoveGuardian{}
	case KindWithdrawProposal:
		var id uint64
		id, err = guardvault.ReadUint64(dec)
		ix = WithdrawProposal{ProposalID: id}
	default:
		return nil, errors.Wrapf(ErrInvalidInstruction, "unknown discriminant %d", kind)
	}
	if err != nil {
		if ErrInsufficientGuardians.Is(err) || ErrEncodingCapacityExceeded.Is(err) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrInvalidInstruction, "%s: %s", InstructionKind(kind), err)
	}
	if n := dec.Remaining(); n != 0 {
		return nil, errors.Wrapf(ErrInvalidInstruction, "%s: %d trailing bytes", InstructionKind(kind), n)
	}
	return ix, nil
}

func decodeInitVault(dec *bin.Decoder, accounts []guardvault.Address) (Instruction, error) {
	var ix InitVault
	var err error
	if ix.Amount, err = guardvault.ReadUint64(dec); err != nil {
		return nil, err
	}
	if err := ix.Thresholds.UnmarshalWithDecoder(dec); err != nil {
		return nil, err
	}
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDecoding, "guardian count")
	}
	if n > MaxGuardians {
		return nil, errors.Wrapf(ErrEncodingCapacityExceeded, "%d guardians, capacity is %d", n, MaxGuardians)
	}
	count := int(n)
	if len(accounts) < InitVaultFixedAccounts {
		return nil, errors.Wrapf(errors.ErrInput, "want at least %d accounts, got %d", InitVaultFixedAccounts, len(accounts))
	}
	suffix := accounts[InitVaultFixedAccounts:]
	if len(suffix) != count {
		return nil, errors.Wrapf(errors.ErrInput, "declared %d guardians, got %d guardian accounts", count, len(suffix))
	}
	if count < MinGuardians {
		return nil, errors.Wrapf(ErrInsufficientGuardians, "%d guardians, need at least %d", count, MinGuardians)
	}
	ix.Guardians = append(guardvault.Addresses{}, suffix...)
	return ix, nil
}

// EncodeInstruction serializes an instruction. The guardians of InitVault
// are not part of the result and must be passed as accounts.
func EncodeInstruction(ix Instruction) ([]byte, error) {
	return guardvault.Encode(instructionEncoder{ix})
}

type instructionEncoder struct {
	ix Instruction
}

func (e instructionEncoder) MarshalWithEncoder(enc *bin.Encoder) error {
	if e.ix == nil {
		return errors.Wrap(errors.ErrEmpty, "instruction")
	}
	if err := enc.WriteUint8(uint8(e.ix.Kind())); err != nil {
		return err
	}
	switch ix := e.ix.(type) {
	case InitVault:
		if err := enc.WriteUint64(ix.Amount, bin.LE); err != nil {
			return err
		}
		if err := ix.Thresholds.MarshalWithEncoder(enc); err != nil {
			return err
		}
		return guardvault.WriteLength(enc, len(ix.Guardians))
	case ProposeAction:
		return writeAction(enc, ix.Action)
	case ConfirmAction:
		return enc.WriteUint64(ix.ProposalID, bin.LE)
	case ExecuteWithdrawal:
		if err := ix.Asset.MarshalWithEncoder(enc); err != nil {
			return err
		}
		return enc.WriteUint64(ix.Amount, bin.LE)
	case AddGuardian, RemoveGuardian:
		return nil
	case WithdrawProposal:
		return enc.WriteUint64(ix.ProposalID, bin.LE)
	default:
		return errors.Wrapf(errors.ErrType, "unknown instruction %T", ix)
	}
}
