package custody

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
)

// Instruction discriminants of the custody program.
const (
	InstructionInitialize uint8 = iota
	InstructionTransfer
	InstructionSetAuthority
)

// Instruction is a decoded custody program call.
type Instruction struct {
	Kind      uint8
	Asset     guardvault.Address // Initialize
	Authority guardvault.Address // Initialize, SetAuthority (new authority)
	Amount    uint64             // Transfer
}

// MarshalWithEncoder writes the instruction.
func (i Instruction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(i.Kind); err != nil {
		return err
	}
	switch i.Kind {
	case InstructionInitialize:
		if err := i.Asset.MarshalWithEncoder(enc); err != nil {
			return err
		}
		return i.Authority.MarshalWithEncoder(enc)
	case InstructionTransfer:
		return enc.WriteUint64(i.Amount, bin.LE)
	case InstructionSetAuthority:
		return i.Authority.MarshalWithEncoder(enc)
	default:
		return errors.Wrapf(errors.ErrMsg, "unknown instruction %d", i.Kind)
	}
}

// UnmarshalWithDecoder reads the instruction.
func (i *Instruction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	kind, err := guardvault.ReadUint8(dec)
	if err != nil {
		return err
	}
	i.Kind = kind
	switch kind {
	case InstructionInitialize:
		if err := i.Asset.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
		return i.Authority.UnmarshalWithDecoder(dec)
	case InstructionTransfer:
		i.Amount, err = guardvault.ReadUint64(dec)
		return err
	case InstructionSetAuthority:
		return i.Authority.UnmarshalWithDecoder(dec)
	default:
		return errors.Wrapf(errors.ErrDecoding, "unknown instruction %d", kind)
	}
}

// Program exposes the keeper operations to transactions.
type Program struct {
	keeper Keeper
}

// NewProgram returns the custody program.
func NewProgram(k Keeper) Program {
	return Program{keeper: k}
}

// Process executes a single custody instruction.
//
// Accounts expected by each instruction:
//   Initialize:   0 [writable] custody account
//   Transfer:     0 [writable] source, 1 [writable] destination, 2 [signer] authority
//   SetAuthority: 0 [writable] custody account, 1 [signer] current authority
func (p Program) Process(ctx guardvault.Context, db guardvault.KVStore, metas []accounts.AccountMeta, data []byte) error {
	var ix Instruction
	if err := guardvault.Decode(data, &ix); err != nil {
		return errors.Wrap(errors.ErrMsg, err.Error())
	}
	switch ix.Kind {
	case InstructionInitialize:
		if err := requireAccounts(metas, 1); err != nil {
			return err
		}
		if !metas[0].IsWritable {
			return errors.Wrap(errors.ErrUnauthorized, "custody account is not writable")
		}
		return p.keeper.Initialize(db, metas[0].Address, ix.Asset, ix.Authority)
	case InstructionTransfer:
		if err := requireAccounts(metas, 3); err != nil {
			return err
		}
		if !metas[0].IsWritable || !metas[1].IsWritable {
			return errors.Wrap(errors.ErrUnauthorized, "transfer accounts must be writable")
		}
		if !metas[2].IsSigner {
			return errors.Wrap(errors.ErrUnauthorized, "missing authority signature")
		}
		return p.keeper.Transfer(db, metas[0].Address, metas[1].Address, metas[2].Address, ix.Amount)
	case InstructionSetAuthority:
		if err := requireAccounts(metas, 2); err != nil {
			return err
		}
		if !metas[0].IsWritable {
			return errors.Wrap(errors.ErrUnauthorized, "custody account is not writable")
		}
		if !metas[1].IsSigner {
			return errors.Wrap(errors.ErrUnauthorized, "missing authority signature")
		}
		return p.keeper.SetAuthority(db, metas[0].Address, metas[1].Address, ix.Authority)
	}
	return errors.Wrapf(errors.ErrMsg, "unknown instruction %d", ix.Kind)
}

func requireAccounts(metas []accounts.AccountMeta, n int) error {
	if len(metas) < n {
		return errors.Wrapf(errors.ErrInput, "want %d accounts, got %d", n, len(metas))
	}
	return nil
}
