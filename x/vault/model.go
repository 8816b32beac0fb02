package vault

import (
	"encoding/json"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"lukechampine.com/uint128"
)

const (
	// MinGuardians is the smallest roster a vault can have.
	MinGuardians = 4
	// MaxGuardians is the guardian roster capacity.
	MaxGuardians = 20
	// MaxAssetLimits is the asset limit list capacity.
	MaxAssetLimits = 30
)

// GuardianThresholds holds the number of guardian confirmations required by
// each governed action.
type GuardianThresholds struct {
	Freeze                uint8 `json:"freeze"`
	Unfreeze              uint8 `json:"unfreeze"`
	ChangeOwnerKey        uint8 `json:"change_owner_key"`
	AdjustWithdrawalLimit uint8 `json:"adjust_withdrawal_limit"`
}

const thresholdsSize = 4

// For returns the threshold of given action kind.
func (t GuardianThresholds) For(kind ActionKind) uint8 {
	switch kind {
	case ActionFreeze:
		return t.Freeze
	case ActionUnfreeze:
		return t.Unfreeze
	case ActionChangeOwnerKey:
		return t.ChangeOwnerKey
	case ActionAdjustWithdrawalLimit:
		return t.AdjustWithdrawalLimit
	}
	return 0
}

// Max returns the largest threshold.
func (t GuardianThresholds) Max() uint8 {
	max := t.Freeze
	for _, v := range []uint8{t.Unfreeze, t.ChangeOwnerKey, t.AdjustWithdrawalLimit} {
		if v > max {
			max = v
		}
	}
	return max
}

// Validate ensures every threshold can be reached by a roster of given size.
func (t GuardianThresholds) Validate(guardians int) error {
	for _, kind := range []ActionKind{ActionFreeze, ActionUnfreeze, ActionChangeOwnerKey, ActionAdjustWithdrawalLimit} {
		v := t.For(kind)
		if v == 0 {
			return errors.Wrapf(ErrInsufficientGuardians, "%s threshold is zero", kind)
		}
		if int(v) > guardians {
			return errors.Wrapf(ErrInsufficientGuardians, "%s threshold %d exceeds %d guardians", kind, v, guardians)
		}
	}
	return nil
}

func (t GuardianThresholds) MarshalWithEncoder(enc *bin.Encoder) error {
	for _, v := range []uint8{t.Freeze, t.Unfreeze, t.ChangeOwnerKey, t.AdjustWithdrawalLimit} {
		if err := enc.WriteUint8(v); err != nil {
			return err
		}
	}
	return nil
}

func (t *GuardianThresholds) UnmarshalWithDecoder(dec *bin.Decoder) error {
	for _, dst := range []*uint8{&t.Freeze, &t.Unfreeze, &t.ChangeOwnerKey, &t.AdjustWithdrawalLimit} {
		v, err := guardvault.ReadUint8(dec)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// AssetLimit restricts withdrawals of a single asset. A nil limit means
// withdrawals are unrestricted.
type AssetLimit struct {
	Asset                guardvault.Address
	DailyWithdrawalLimit *uint128.Uint128
}

const assetLimitSize = guardvault.AddressLength + limitSize

// Proposal is a governed action waiting for guardian confirmations.
type Proposal struct {
	ID          uint64
	Proposer    guardvault.Address
	Action      Action
	ConfirmedBy guardvault.Addresses
}

const proposalSize = 8 + guardvault.AddressLength + actionSize +
	guardvault.LengthPrefixSize + MaxGuardians*guardvault.AddressLength

// HasConfirmed returns true if given guardian already confirmed.
func (p *Proposal) HasConfirmed(guardian guardvault.Address) bool {
	return p.ConfirmedBy.Contains(guardian)
}

// Vault is the persisted vault record.
type Vault struct {
	Initialized bool
	Owner       guardvault.Address
	Custody     guardvault.Address
	Guardians   guardvault.Addresses
	Thresholds  GuardianThresholds
	Frozen      bool
	AssetLimits []AssetLimit
	// ProposalSeq is the ID of the most recently created proposal.
	ProposalSeq uint64
	Pending     *Proposal
}

// LEN is the size of the storage a vault record requires.
const LEN = 1 + // initialized
	guardvault.AddressLength + // owner
	guardvault.AddressLength + // custody
	guardvault.LengthPrefixSize + MaxGuardians*guardvault.AddressLength + // guardians
	thresholdsSize +
	1 + // frozen
	guardvault.LengthPrefixSize + MaxAssetLimits*assetLimitSize + // asset limits
	8 + // proposal sequence
	guardvault.OptionSize + proposalSize // pending proposal

var _ guardvault.Packable = (*Vault)(nil)

// PackedLen returns LEN.
func (*Vault) PackedLen() int { return LEN }

// IsGuardian returns true if given address belongs to the roster.
func (v *Vault) IsGuardian(addr guardvault.Address) bool {
	return v.Guardians.Contains(addr)
}

// Limit returns the withdrawal limit of given asset or nil if withdrawals
// are not restricted.
func (v *Vault) Limit(asset guardvault.Address) *uint128.Uint128 {
	for _, l := range v.AssetLimits {
		if l.Asset.Equals(asset) {
			return l.DailyWithdrawalLimit
		}
	}
	return nil
}

// CanSetLimit returns an error if setting the limit of given asset would
// exceed the asset limit capacity.
func (v *Vault) CanSetLimit(asset guardvault.Address, limit *uint128.Uint128) error {
	if limit == nil {
		return nil
	}
	for _, l := range v.AssetLimits {
		if l.Asset.Equals(asset) {
			return nil
		}
	}
	if len(v.AssetLimits) >= MaxAssetLimits {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "cannot track more than %d asset limits", MaxAssetLimits)
	}
	return nil
}

// SetLimit updates the withdrawal limit of an asset. A nil limit removes the
// asset from the list.
func (v *Vault) SetLimit(asset guardvault.Address, limit *uint128.Uint128) error {
	if err := v.CanSetLimit(asset, limit); err != nil {
		return err
	}
	for i, l := range v.AssetLimits {
		if !l.Asset.Equals(asset) {
			continue
		}
		if limit == nil {
			v.AssetLimits = append(v.AssetLimits[:i:i], v.AssetLimits[i+1:]...)
			if len(v.AssetLimits) == 0 {
				v.AssetLimits = nil
			}
		} else {
			v.AssetLimits[i].DailyWithdrawalLimit = limit
		}
		return nil
	}
	if limit != nil {
		v.AssetLimits = append(v.AssetLimits, AssetLimit{Asset: asset, DailyWithdrawalLimit: limit})
	}
	return nil
}

// Validate ensures the invariants of an initialized vault hold.
func (v *Vault) Validate() error {
	if !v.Initialized {
		return errors.Wrap(ErrNotInitialized, "vault")
	}
	if len(v.Guardians) > MaxGuardians {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d guardians", len(v.Guardians))
	}
	if len(v.AssetLimits) > MaxAssetLimits {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d asset limits", len(v.AssetLimits))
	}
	if len(v.Guardians) < MinGuardians {
		return errors.Wrapf(ErrInsufficientGuardians, "%d guardians, need at least %d", len(v.Guardians), MinGuardians)
	}
	for i, g := range v.Guardians {
		if g.IsZero() {
			return errors.Wrapf(errors.ErrInput, "guardian %d is the zero address", i)
		}
		if g.Equals(v.Owner) {
			return errors.Wrap(errors.ErrInput, "owner cannot be a guardian")
		}
		if v.Guardians[:i].Contains(g) {
			return errors.Wrapf(errors.ErrDuplicate, "guardian %s", g)
		}
	}
	if err := v.Thresholds.Validate(len(v.Guardians)); err != nil {
		return err
	}
	if p := v.Pending; p != nil {
		if p.Action == nil {
			return errors.Wrap(errors.ErrEmpty, "pending action")
		}
		if p.ID == 0 || p.ID > v.ProposalSeq {
			return errors.Wrapf(errors.ErrState, "pending proposal id %d", p.ID)
		}
		for i, c := range p.ConfirmedBy {
			if !v.IsGuardian(c) {
				return errors.Wrapf(errors.ErrState, "confirmation of non guardian %s", c)
			}
			if p.ConfirmedBy[:i].Contains(c) {
				return errors.Wrapf(errors.ErrDuplicate, "confirmation of %s", c)
			}
		}
	}
	return nil
}

// MarshalWithEncoder writes the vault. Collections over their capacity are
// rejected before anything is written.
func (v *Vault) MarshalWithEncoder(enc *bin.Encoder) error {
	if len(v.Guardians) > MaxGuardians {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d guardians, capacity is %d", len(v.Guardians), MaxGuardians)
	}
	if len(v.AssetLimits) > MaxAssetLimits {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d asset limits, capacity is %d", len(v.AssetLimits), MaxAssetLimits)
	}
	if v.Pending != nil && len(v.Pending.ConfirmedBy) > MaxGuardians {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d confirmations", len(v.Pending.ConfirmedBy))
	}

	if err := guardvault.WriteBool(enc, v.Initialized); err != nil {
		return err
	}
	if err := v.Owner.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := v.Custody.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := writeAddresses(enc, v.Guardians); err != nil {
		return err
	}
	if err := v.Thresholds.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := guardvault.WriteBool(enc, v.Frozen); err != nil {
		return err
	}
	if err := guardvault.WriteLength(enc, len(v.AssetLimits)); err != nil {
		return err
	}
	for _, l := range v.AssetLimits {
		if err := l.Asset.MarshalWithEncoder(enc); err != nil {
			return err
		}
		if err := writeLimit(enc, l.DailyWithdrawalLimit); err != nil {
			return err
		}
	}
	if err := enc.WriteUint64(v.ProposalSeq, bin.LE); err != nil {
		return err
	}
	if v.Pending == nil {
		return guardvault.WriteBool(enc, false)
	}
	if err := guardvault.WriteBool(enc, true); err != nil {
		return err
	}
	if err := enc.WriteUint64(v.Pending.ID, bin.LE); err != nil {
		return err
	}
	if err := v.Pending.Proposer.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := writeAction(enc, v.Pending.Action); err != nil {
		return err
	}
	return writeAddresses(enc, v.Pending.ConfirmedBy)
}

// UnmarshalWithDecoder reads the vault. The receiver is only modified when
// the whole record was read successfully.
func (v *Vault) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var out Vault
	var err error
	if out.Initialized, err = guardvault.ReadBool(dec); err != nil {
		return err
	}
	if err := out.Owner.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if err := out.Custody.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if out.Guardians, err = readAddresses(dec, MaxGuardians); err != nil {
		return err
	}
	if err := out.Thresholds.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if out.Frozen, err = guardvault.ReadBool(dec); err != nil {
		return err
	}
	n, err := guardvault.ReadLength(dec, MaxAssetLimits)
	if err != nil {
		return err
	}
	if n > 0 {
		out.AssetLimits = make([]AssetLimit, n)
	}
	for i := range out.AssetLimits {
		if err := out.AssetLimits[i].Asset.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
		if out.AssetLimits[i].DailyWithdrawalLimit, err = readLimit(dec); err != nil {
			return err
		}
	}
	if out.ProposalSeq, err = guardvault.ReadUint64(dec); err != nil {
		return err
	}
	pending, err := guardvault.ReadBool(dec)
	if err != nil {
		return err
	}
	if pending {
		var p Proposal
		if p.ID, err = guardvault.ReadUint64(dec); err != nil {
			return err
		}
		if err := p.Proposer.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
		if p.Action, err = readAction(dec); err != nil {
			return err
		}
		if p.ConfirmedBy, err = readAddresses(dec, MaxGuardians); err != nil {
			return err
		}
		out.Pending = &p
	}
	*v = out
	return nil
}

func writeAddresses(enc *bin.Encoder, addrs guardvault.Addresses) error {
	if err := guardvault.WriteLength(enc, len(addrs)); err != nil {
		return err
	}
	for _, a := range addrs {
		if err := a.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return nil
}

func readAddresses(dec *bin.Decoder, max int) (guardvault.Addresses, error) {
	n, err := guardvault.ReadLength(dec, max)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	addrs := make(guardvault.Addresses, n)
	for i := range addrs {
		if err := addrs[i].UnmarshalWithDecoder(dec); err != nil {
			return nil, err
		}
	}
	return addrs, nil
}

// MarshalJSON returns a human readable representation of the vault.
func (v *Vault) MarshalJSON() ([]byte, error) {
	type limitView struct {
		Asset                guardvault.Address `json:"asset"`
		DailyWithdrawalLimit *string            `json:"daily_withdrawal_limit"`
	}
	type proposalView struct {
		ID          uint64               `json:"id"`
		Proposer    guardvault.Address   `json:"proposer"`
		Action      json.RawMessage      `json:"action"`
		ConfirmedBy guardvault.Addresses `json:"confirmed_by"`
	}
	view := struct {
		Initialized bool                 `json:"initialized"`
		Owner       guardvault.Address   `json:"owner"`
		Custody     guardvault.Address   `json:"custody_account"`
		Guardians   guardvault.Addresses `json:"guardians"`
		Thresholds  GuardianThresholds   `json:"thresholds"`
		Frozen      bool                 `json:"frozen"`
		AssetLimits []limitView          `json:"asset_limits"`
		ProposalSeq uint64               `json:"proposal_seq"`
		Pending     *proposalView        `json:"pending_proposal"`
	}{
		Initialized: v.Initialized,
		Owner:       v.Owner,
		Custody:     v.Custody,
		Guardians:   v.Guardians,
		Thresholds:  v.Thresholds,
		Frozen:      v.Frozen,
		AssetLimits: []limitView{},
		ProposalSeq: v.ProposalSeq,
	}
	for _, l := range v.AssetLimits {
		view.AssetLimits = append(view.AssetLimits, limitView{Asset: l.Asset, DailyWithdrawalLimit: limitString(l.DailyWithdrawalLimit)})
	}
	if p := v.Pending; p != nil {
		action, err := MarshalActionJSON(p.Action)
		if err != nil {
			return nil, err
		}
		view.Pending = &proposalView{ID: p.ID, Proposer: p.Proposer, Action: action, ConfirmedBy: p.ConfirmedBy}
	}
	return json.Marshal(view)
}

// MarshalActionJSON returns a human readable representation of an action.
func MarshalActionJSON(a Action) ([]byte, error) {
	view := struct {
		Kind     string              `json:"kind"`
		NewOwner *guardvault.Address `json:"new_owner,omitempty"`
		Asset    *guardvault.Address `json:"asset,omitempty"`
		NewLimit *string             `json:"new_limit,omitempty"`
	}{}
	switch a := a.(type) {
	case Freeze, Unfreeze:
	case ChangeOwnerKey:
		view.NewOwner = &a.NewOwner
	case AdjustWithdrawalLimit:
		view.Asset = &a.Asset
		view.NewLimit = limitString(a.NewLimit)
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown action %T", a)
	}
	view.Kind = a.Kind().String()
	return json.Marshal(view)
}

func limitString(l *uint128.Uint128) *string {
	if l == nil {
		return nil
	}
	s := l.String()
	return &s
}
