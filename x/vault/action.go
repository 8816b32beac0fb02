package vault

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"lukechampine.com/uint128"
)

// ActionKind identifies a governed action. Values are the binary
// discriminants.
type ActionKind uint8

const (
	ActionFreeze ActionKind = iota
	ActionUnfreeze
	ActionChangeOwnerKey
	ActionAdjustWithdrawalLimit
)

func (k ActionKind) String() string {
	switch k {
	case ActionFreeze:
		return "freeze"
	case ActionUnfreeze:
		return "unfreeze"
	case ActionChangeOwnerKey:
		return "change_owner_key"
	case ActionAdjustWithdrawalLimit:
		return "adjust_withdrawal_limit"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// Action is one of the governed actions: Freeze, Unfreeze, ChangeOwnerKey or
// AdjustWithdrawalLimit.
type Action interface {
	Kind() ActionKind
	isAction()
}

// Freeze stops all asset movements out of the vault.
type Freeze struct{}

// Unfreeze lifts a freeze.
type Unfreeze struct{}

// ChangeOwnerKey hands the vault, and control over its custody account, to a
// new owner.
type ChangeOwnerKey struct {
	NewOwner guardvault.Address
}

// AdjustWithdrawalLimit sets the per withdrawal limit of an asset. A nil
// limit removes the restriction.
type AdjustWithdrawalLimit struct {
	Asset    guardvault.Address
	NewLimit *uint128.Uint128
}

func (Freeze) Kind() ActionKind                { return ActionFreeze }
func (Unfreeze) Kind() ActionKind              { return ActionUnfreeze }
func (ChangeOwnerKey) Kind() ActionKind        { return ActionChangeOwnerKey }
func (AdjustWithdrawalLimit) Kind() ActionKind { return ActionAdjustWithdrawalLimit }

func (Freeze) isAction()                {}
func (Unfreeze) isAction()              {}
func (ChangeOwnerKey) isAction()        {}
func (AdjustWithdrawalLimit) isAction() {}

// u128Size is the width of an encoded unsigned 128 bit integer.
const u128Size = 16

// limitSize is the width of an optional limit.
const limitSize = guardvault.OptionSize + u128Size

// actionSize is the width of the largest action: a discriminant followed by
// the AdjustWithdrawalLimit payload.
const actionSize = 1 + guardvault.AddressLength + limitSize

func writeAction(enc *bin.Encoder, a Action) error {
	if a == nil {
		return errors.Wrap(errors.ErrEmpty, "action")
	}
	if err := enc.WriteUint8(uint8(a.Kind())); err != nil {
		return err
	}
	switch a := a.(type) {
	case Freeze, Unfreeze:
		return nil
	case ChangeOwnerKey:
		return a.NewOwner.MarshalWithEncoder(enc)
	case AdjustWithdrawalLimit:
		if err := a.Asset.MarshalWithEncoder(enc); err != nil {
			return err
		}
		return writeLimit(enc, a.NewLimit)
	default:
		return errors.Wrapf(errors.ErrType, "unknown action %T", a)
	}
}

func readAction(dec *bin.Decoder) (Action, error) {
	kind, err := guardvault.ReadUint8(dec)
	if err != nil {
		return nil, err
	}
	switch ActionKind(kind) {
	case ActionFreeze:
		return Freeze{}, nil
	case ActionUnfreeze:
		return Unfreeze{}, nil
	case ActionChangeOwnerKey:
		var a ChangeOwnerKey
		if err := a.NewOwner.UnmarshalWithDecoder(dec); err != nil {
			return nil, err
		}
		return a, nil
	case ActionAdjustWithdrawalLimit:
		var a AdjustWithdrawalLimit
		if err := a.Asset.UnmarshalWithDecoder(dec); err != nil {
			return nil, err
		}
		if a.NewLimit, err = readLimit(dec); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, errors.Wrapf(errors.ErrDecoding, "unknown action discriminant %d", kind)
	}
}

func writeLimit(enc *bin.Encoder, limit *uint128.Uint128) error {
	if limit == nil {
		return guardvault.WriteBool(enc, false)
	}
	if err := guardvault.WriteBool(enc, true); err != nil {
		return err
	}
	var raw [u128Size]byte
	limit.PutBytes(raw[:])
	return enc.WriteBytes(raw[:], false)
}

func readLimit(dec *bin.Decoder) (*uint128.Uint128, error) {
	present, err := guardvault.ReadBool(dec)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	raw, err := dec.ReadNBytes(u128Size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDecoding, "limit")
	}
	limit := uint128.FromBytes(raw)
	return &limit, nil
}

// NewLimit returns a limit pointer usable in AdjustWithdrawalLimit and
// AssetLimit.
func NewLimit(v uint64) *uint128.Uint128 {
	l := uint128.From64(v)
	return &l
}
