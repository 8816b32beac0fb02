package vault

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/custody"
	"github.com/iov-one/guardvault/x/rent"
)

// Custody is the asset holding collaborator. All operations must either
// succeed or leave the storage unchanged.
type Custody interface {
	Load(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (*custody.State, error)
	Initialize(db guardvault.KVStore, custody, asset, authority guardvault.Address) error
	Transfer(db guardvault.KVStore, source, destination, authority guardvault.Address, amount uint64) error
	SetAuthority(db guardvault.KVStore, custody, current, next guardvault.Address) error
}

var _ Custody = custody.Keeper{}

// Processor executes vault instructions.
type Processor struct {
	custody Custody
}

// NewProcessor returns a processor that moves funds using given custody.
func NewProcessor(c Custody) Processor {
	return Processor{custody: c}
}

// Process decodes and executes a single instruction. When the store can be
// cache wrapped, all writes are committed only if the whole instruction
// succeeds. Otherwise every failure the collaborators can report is checked
// before the first write.
func (p Processor) Process(ctx guardvault.Context, db guardvault.KVStore, metas []accounts.AccountMeta, data []byte) error {
	addrs := make([]guardvault.Address, len(metas))
	for i, m := range metas {
		addrs[i] = m.Address
	}
	ix, err := DecodeInstruction(data, addrs)
	if err != nil {
		guardvault.GetLogger(ctx).Debug("vault instruction rejected", "err", err)
		return err
	}
	ctx = guardvault.WithLogInfo(ctx, "instruction", ix.Kind().String())

	cdb, ok := db.(guardvault.CacheableKVStore)
	if !ok {
		return p.run(ctx, db, metas, ix)
	}
	cache := cdb.CacheWrap()
	if err := p.run(ctx, cache, metas, ix); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

func (p Processor) run(ctx guardvault.Context, db guardvault.KVStore, metas []accounts.AccountMeta, ix Instruction) error {
	conf, err := LoadConfig(db)
	if err != nil {
		return err
	}
	op := operation{
		Processor: p,
		conf:      conf,
		deriver:   ProgramDeriver{ProgramID: conf.ProgramID},
		metas:     metas,
	}
	switch ix := ix.(type) {
	case InitVault:
		err = op.initVault(ctx, db, ix)
	case ProposeAction:
		err = op.proposeAction(ctx, db, ix)
	case ConfirmAction:
		err = op.confirmAction(ctx, db, ix)
	case ExecuteWithdrawal:
		err = op.executeWithdrawal(ctx, db, ix)
	case AddGuardian:
		err = op.addGuardian(ctx, db)
	case RemoveGuardian:
		err = op.removeGuardian(ctx, db)
	case WithdrawProposal:
		err = op.withdrawProposal(ctx, db, ix)
	default:
		err = errors.Wrapf(ErrInvalidInstruction, "unsupported instruction %T", ix)
	}
	if err != nil {
		guardvault.GetLogger(ctx).Debug("vault instruction rejected", "err", err)
	}
	return err
}

// operation holds the state of a single instruction execution.
type operation struct {
	Processor
	conf    Config
	deriver Deriver
	metas   []accounts.AccountMeta
}

func (op *operation) requireAccounts(n int) error {
	if len(op.metas) < n {
		return errors.Wrapf(ErrInvalidInstruction, "want %d accounts, got %d", n, len(op.metas))
	}
	return nil
}

func requireSigner(m accounts.AccountMeta) error {
	if !m.IsSigner {
		return errors.Wrapf(ErrMissingSignature, "%s", m.Address)
	}
	return nil
}

// loadVault reads the vault stored in the account at given position. The
// account must be owned by the vault program and be exactly LEN bytes.
func (op *operation) loadVault(db guardvault.ReadOnlyKVStore, pos int, writable bool) (*accounts.Account, *Vault, error) {
	m := op.metas[pos]
	if writable && !m.IsWritable {
		return nil, nil, errors.Wrapf(ErrAccountMismatch, "vault account %s is not writable", m.Address)
	}
	acc, err := accounts.Get(db, m.Address)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrAccountMismatch, "vault account: %s", err)
	}
	if !acc.Owner.Equals(op.conf.ProgramID) {
		return nil, nil, errors.Wrapf(ErrAccountMismatch, "vault account %s is owned by %s", m.Address, acc.Owner)
	}
	if len(acc.Data) != LEN {
		return nil, nil, errors.Wrapf(ErrAccountMismatch, "vault account is %d bytes, want %d", len(acc.Data), LEN)
	}
	var v Vault
	if err := guardvault.Unpack(acc.Data, &v); err != nil {
		return nil, nil, err
	}
	return acc, &v, nil
}

func (op *operation) loadInitialized(db guardvault.ReadOnlyKVStore, pos int, writable bool) (*accounts.Account, *Vault, error) {
	acc, v, err := op.loadVault(db, pos, writable)
	if err != nil {
		return nil, nil, err
	}
	if !v.Initialized {
		return nil, nil, errors.Wrapf(ErrNotInitialized, "%s", op.metas[pos].Address)
	}
	return acc, v, nil
}

// encodeVault validates and packs the vault into a copy of the account
// data. Nothing is written.
func encodeVault(acc *accounts.Account, v *Vault) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, len(acc.Data))
	if err := guardvault.PackInto(raw, v); err != nil {
		return nil, err
	}
	return raw, nil
}

func writeVault(db guardvault.KVStore, addr guardvault.Address, acc *accounts.Account, raw []byte) error {
	acc.Data = raw
	return accounts.Save(db, addr, acc)
}

// custodyAccount returns the address of the vault custody account passed at
// given position after making sure it is the one the vault references.
func (op *operation) custodyAccount(v *Vault, pos int) (guardvault.Address, error) {
	m := op.metas[pos]
	if !m.Address.Equals(v.Custody) {
		return guardvault.Address{}, errors.Wrapf(ErrAccountMismatch, "custody account %s, vault uses %s", m.Address, v.Custody)
	}
	if !m.IsWritable {
		return guardvault.Address{}, errors.Wrapf(ErrAccountMismatch, "custody account %s is not writable", m.Address)
	}
	return m.Address, nil
}

func (op *operation) initVault(ctx guardvault.Context, db guardvault.KVStore, ix InitVault) error {
	if err := op.requireAccounts(InitVaultFixedAccounts + len(ix.Guardians)); err != nil {
		return err
	}
	acc, existing, err := op.loadVault(db, 1, true)
	if err != nil {
		return err
	}
	if existing.Initialized {
		return errors.Wrapf(ErrAlreadyInitialized, "%s", op.metas[1].Address)
	}

	ownerMeta := op.metas[0]
	if err := requireSigner(ownerMeta); err != nil {
		return err
	}
	owner := ownerMeta.Address

	if len(ix.Guardians) > MaxGuardians {
		return errors.Wrapf(ErrEncodingCapacityExceeded, "%d guardians, capacity is %d", len(ix.Guardians), MaxGuardians)
	}

	source, vaultCustody := op.metas[2], op.metas[3]
	if !source.IsWritable || !vaultCustody.IsWritable {
		return errors.Wrap(ErrAccountMismatch, "custody accounts must be writable")
	}
	if source.Address.Equals(vaultCustody.Address) {
		return errors.Wrap(ErrAccountMismatch, "source and vault custody are the same account")
	}

	// The authority passed by the caller is never used, only compared.
	authority, err := CustodyAuthority(op.deriver, owner, vaultCustody.Address)
	if err != nil {
		return err
	}
	if claimed := op.metas[4].Address; !claimed.Equals(authority) {
		return errors.Wrapf(ErrInvalidAuthorityDerivation, "got %s, derived %s", claimed, authority)
	}

	rentConf, err := rent.Load(db)
	if err != nil {
		return err
	}
	if !rentConf.IsExempt(acc.Lamports, len(acc.Data)) {
		return errors.Wrapf(ErrNotRentExempt, "balance %d, minimum %d", acc.Lamports, rentConf.MinimumBalance(len(acc.Data)))
	}

	src, err := op.custody.Load(db, source.Address)
	if err != nil {
		return errors.Wrapf(ErrAccountMismatch, "source custody: %s", err)
	}
	if !src.Initialized || !src.Asset.Equals(op.conf.Asset) {
		return errors.Wrapf(ErrAccountMismatch, "source custody holds %s, want %s", src.Asset, op.conf.Asset)
	}
	if !src.Authority.Equals(owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owner is not the authority of source custody %s", source.Address)
	}
	if src.Balance < ix.Amount {
		return errors.Wrapf(custody.ErrInsufficientFunds, "source custody has %d, need %d", src.Balance, ix.Amount)
	}
	dst, err := op.custody.Load(db, vaultCustody.Address)
	if err != nil {
		return errors.Wrapf(ErrAccountMismatch, "vault custody: %s", err)
	}
	if dst.Initialized {
		return errors.Wrapf(ErrAccountMismatch, "vault custody %s is already in use", vaultCustody.Address)
	}

	v := &Vault{
		Initialized: true,
		Owner:       owner,
		Custody:     vaultCustody.Address,
		Guardians:   ix.Guardians,
		Thresholds:  ix.Thresholds,
	}
	raw, err := encodeVault(acc, v)
	if err != nil {
		return err
	}

	if err := op.custody.Initialize(db, vaultCustody.Address, op.conf.Asset, authority); err != nil {
		return err
	}
	if err := op.custody.Transfer(db, source.Address, vaultCustody.Address, owner, ix.Amount); err != nil {
		return err
	}
	if err := writeVault(db, op.metas[1].Address, acc, raw); err != nil {
		return err
	}

	guardvault.GetLogger(ctx).Info("vault initialized",
		"vault", op.metas[1].Address,
		"owner", owner,
		"guardians", len(v.Guardians),
		"amount", ix.Amount)
	return nil
}

func (op *operation) proposeAction(ctx guardvault.Context, db guardvault.KVStore, ix ProposeAction) error {
	if err := op.requireAccounts(3); err != nil {
		return err
	}
	acc, v, err := op.loadInitialized(db, 1, true)
	if err != nil {
		return err
	}
	if v.Pending != nil {
		return errors.Wrapf(ErrProposalAlreadyPending, "proposal %d", v.Pending.ID)
	}
	caller := op.metas[0]
	if err := requireSigner(caller); err != nil {
		return err
	}
	isGuardian := v.IsGuardian(caller.Address)
	if !isGuardian && !caller.Address.Equals(v.Owner) {
		return errors.Wrapf(ErrUnauthorized, "%s", caller.Address)
	}
	if err := checkProposable(v, ix.Action); err != nil {
		return err
	}

	v.ProposalSeq++
	v.Pending = &Proposal{
		ID:       v.ProposalSeq,
		Proposer: caller.Address,
		Action:   ix.Action,
	}
	if isGuardian {
		v.Pending.ConfirmedBy = guardvault.Addresses{caller.Address}
	}
	if err := op.settle(ctx, db, acc, v); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("proposal raised",
		"vault", op.metas[1].Address,
		"proposal", v.ProposalSeq,
		"action", ix.Action.Kind().String(),
		"proposer", caller.Address)
	return nil
}

// checkProposable ensures given action can be raised against the current
// vault state.
func checkProposable(v *Vault, a Action) error {
	switch a := a.(type) {
	case Freeze:
		if v.Frozen {
			return errors.Wrap(ErrVaultFrozen, "already frozen")
		}
	case Unfreeze:
		if !v.Frozen {
			return errors.Wrap(errors.ErrState, "vault is not frozen")
		}
	case ChangeOwnerKey:
		if v.Frozen {
			return errors.Wrap(ErrVaultFrozen, "only unfreeze can be proposed")
		}
		if err := checkNewOwner(v, a.NewOwner); err != nil {
			return err
		}
	case AdjustWithdrawalLimit:
		if v.Frozen {
			return errors.Wrap(ErrVaultFrozen, "only unfreeze can be proposed")
		}
		if err := v.CanSetLimit(a.Asset, a.NewLimit); err != nil {
			return err
		}
	default:
		return errors.Wrapf(ErrInvalidInstruction, "unknown action %T", a)
	}
	return nil
}

func checkNewOwner(v *Vault, owner guardvault.Address) error {
	switch {
	case owner.IsZero():
		return errors.Wrap(errors.ErrInput, "new owner is the zero address")
	case owner.Equals(v.Owner):
		return errors.Wrap(errors.ErrInput, "new owner is the current owner")
	case v.IsGuardian(owner):
		return errors.Wrap(errors.ErrInput, "a guardian cannot become the owner")
	}
	return nil
}

func (op *operation) confirmAction(ctx guardvault.Context, db guardvault.KVStore, ix ConfirmAction) error {
	if err := op.requireAccounts(3); err != nil {
		return err
	}
	acc, v, err := op.loadInitialized(db, 1, true)
	if err != nil {
		return err
	}
	if v.Pending == nil {
		return errors.Wrap(ErrNoPendingProposal, "nothing to confirm")
	}
	if v.Pending.ID != ix.ProposalID {
		return errors.Wrapf(ErrNoPendingProposal, "proposal %d is not pending, %d is", ix.ProposalID, v.Pending.ID)
	}
	caller := op.metas[0]
	if err := requireSigner(caller); err != nil {
		return err
	}
	if !v.IsGuardian(caller.Address) {
		return errors.Wrapf(ErrUnauthorized, "%s is not a guardian", caller.Address)
	}
	if v.Pending.HasConfirmed(caller.Address) {
		return errors.Wrapf(ErrDuplicateConfirmation, "%s", caller.Address)
	}
	if v.Frozen && v.Pending.Action.Kind() != ActionUnfreeze {
		return errors.Wrap(ErrVaultFrozen, "only unfreeze can be confirmed")
	}

	v.Pending.ConfirmedBy = append(v.Pending.ConfirmedBy, caller.Address)
	confirmations := len(v.Pending.ConfirmedBy)
	if err := op.settle(ctx, db, acc, v); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("proposal confirmed",
		"vault", op.metas[1].Address,
		"proposal", ix.ProposalID,
		"guardian", caller.Address,
		"confirmations", confirmations)
	return nil
}

// settle executes the pending proposal if it gathered enough confirmations
// and writes the vault.
func (op *operation) settle(ctx guardvault.Context, db guardvault.KVStore, acc *accounts.Account, v *Vault) error {
	p := v.Pending
	var effect func() error
	if len(p.ConfirmedBy) >= int(v.Thresholds.For(p.Action.Kind())) {
		var err error
		if effect, err = op.apply(db, v, p.Action); err != nil {
			return err
		}
		v.Pending = nil
	}

	raw, err := encodeVault(acc, v)
	if err != nil {
		return err
	}
	if effect != nil {
		if err := effect(); err != nil {
			return err
		}
	}
	if err := writeVault(db, op.metas[1].Address, acc, raw); err != nil {
		return err
	}
	if v.Pending == nil {
		guardvault.GetLogger(ctx).Info("governed action executed",
			"vault", op.metas[1].Address,
			"proposal", p.ID,
			"action", p.Action.Kind().String(),
			"frozen", v.Frozen)
	}
	return nil
}

// apply executes an action on the in memory vault. Changes outside of the
// vault record are returned as an effect, to be run once the new record is
// known to be valid.
func (op *operation) apply(db guardvault.KVStore, v *Vault, action Action) (func() error, error) {
	switch a := action.(type) {
	case Freeze:
		v.Frozen = true
	case Unfreeze:
		v.Frozen = false
	case ChangeOwnerKey:
		if err := checkNewOwner(v, a.NewOwner); err != nil {
			return nil, err
		}
		custodyAddr, err := op.custodyAccount(v, 2)
		if err != nil {
			return nil, err
		}
		current, err := CustodyAuthority(op.deriver, v.Owner, custodyAddr)
		if err != nil {
			return nil, err
		}
		next, err := CustodyAuthority(op.deriver, a.NewOwner, custodyAddr)
		if err != nil {
			return nil, err
		}
		v.Owner = a.NewOwner
		return func() error {
			return op.custody.SetAuthority(db, custodyAddr, current, next)
		}, nil
	case AdjustWithdrawalLimit:
		if err := v.SetLimit(a.Asset, a.NewLimit); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown action %T", a)
	}
	return nil, nil
}

func (op *operation) executeWithdrawal(ctx guardvault.Context, db guardvault.KVStore, ix ExecuteWithdrawal) error {
	if err := op.requireAccounts(4); err != nil {
		return err
	}
	_, v, err := op.loadInitialized(db, 1, false)
	if err != nil {
		return err
	}
	if v.Frozen {
		return errors.Wrap(ErrVaultFrozen, "withdrawals are disabled")
	}
	caller := op.metas[0]
	if err := requireSigner(caller); err != nil {
		return err
	}
	if !caller.Address.Equals(v.Owner) {
		return errors.Wrapf(ErrUnauthorized, "%s is not the owner", caller.Address)
	}
	if ix.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero withdrawal")
	}
	custodyAddr, err := op.custodyAccount(v, 2)
	if err != nil {
		return err
	}
	if !op.metas[3].IsWritable {
		return errors.Wrap(ErrAccountMismatch, "destination is not writable")
	}
	state, err := op.custody.Load(db, custodyAddr)
	if err != nil {
		return errors.Wrapf(ErrAccountMismatch, "vault custody: %s", err)
	}
	if !state.Asset.Equals(ix.Asset) {
		return errors.Wrapf(ErrAccountMismatch, "custody holds %s, not %s", state.Asset, ix.Asset)
	}
	if limit := v.Limit(ix.Asset); limit != nil && limit.Cmp64(ix.Amount) < 0 {
		return errors.Wrapf(ErrWithdrawalLimitExceeded, "amount %d, limit %s", ix.Amount, limit)
	}
	authority, err := CustodyAuthority(op.deriver, v.Owner, custodyAddr)
	if err != nil {
		return err
	}
	if err := op.custody.Transfer(db, custodyAddr, op.metas[3].Address, authority, ix.Amount); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("withdrawal executed",
		"vault", op.metas[1].Address,
		"destination", op.metas[3].Address,
		"amount", ix.Amount)
	return nil
}

// loadForOwner loads the vault for an administrative action of the owner.
func (op *operation) loadForOwner(db guardvault.KVStore) (*accounts.Account, *Vault, error) {
	if err := op.requireAccounts(3); err != nil {
		return nil, nil, err
	}
	acc, v, err := op.loadInitialized(db, 1, true)
	if err != nil {
		return nil, nil, err
	}
	caller := op.metas[0]
	if err := requireSigner(caller); err != nil {
		return nil, nil, err
	}
	if !caller.Address.Equals(v.Owner) {
		return nil, nil, errors.Wrapf(ErrUnauthorized, "%s is not the owner", caller.Address)
	}
	if v.Frozen {
		return nil, nil, errors.Wrap(ErrVaultFrozen, "roster changes are disabled")
	}
	return acc, v, nil
}

func (op *operation) addGuardian(ctx guardvault.Context, db guardvault.KVStore) error {
	acc, v, err := op.loadForOwner(db)
	if err != nil {
		return err
	}
	guardian := op.metas[2].Address
	switch {
	case guardian.IsZero():
		return errors.Wrap(errors.ErrInput, "guardian is the zero address")
	case guardian.Equals(v.Owner):
		return errors.Wrap(errors.ErrInput, "owner cannot be a guardian")
	case v.IsGuardian(guardian):
		return errors.Wrapf(errors.ErrDuplicate, "guardian %s", guardian)
	case len(v.Guardians) >= MaxGuardians:
		return errors.Wrapf(ErrEncodingCapacityExceeded, "roster is full with %d guardians", MaxGuardians)
	}
	v.Guardians = append(v.Guardians, guardian)

	raw, err := encodeVault(acc, v)
	if err != nil {
		return err
	}
	if err := writeVault(db, op.metas[1].Address, acc, raw); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("guardian added",
		"vault", op.metas[1].Address,
		"guardian", guardian,
		"guardians", len(v.Guardians))
	return nil
}

func (op *operation) removeGuardian(ctx guardvault.Context, db guardvault.KVStore) error {
	acc, v, err := op.loadForOwner(db)
	if err != nil {
		return err
	}
	guardian := op.metas[2].Address
	if !v.IsGuardian(guardian) {
		return errors.Wrapf(errors.ErrNotFound, "guardian %s", guardian)
	}
	remaining := len(v.Guardians) - 1
	if remaining < MinGuardians {
		return errors.Wrapf(ErrInsufficientGuardians, "%d guardians would remain, need at least %d", remaining, MinGuardians)
	}
	if max := int(v.Thresholds.Max()); remaining < max {
		return errors.Wrapf(ErrInsufficientGuardians, "%d guardians would remain, threshold is %d", remaining, max)
	}

	v.Guardians = v.Guardians.Remove(guardian)
	if p := v.Pending; p != nil && p.HasConfirmed(guardian) {
		p.ConfirmedBy = p.ConfirmedBy.Remove(guardian)
		if len(p.ConfirmedBy) == 0 {
			p.ConfirmedBy = nil
		}
	}

	raw, err := encodeVault(acc, v)
	if err != nil {
		return err
	}
	if err := writeVault(db, op.metas[1].Address, acc, raw); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("guardian removed",
		"vault", op.metas[1].Address,
		"guardian", guardian,
		"guardians", len(v.Guardians))
	return nil
}

func (op *operation) withdrawProposal(ctx guardvault.Context, db guardvault.KVStore, ix WithdrawProposal) error {
	if err := op.requireAccounts(2); err != nil {
		return err
	}
	acc, v, err := op.loadInitialized(db, 1, true)
	if err != nil {
		return err
	}
	if v.Pending == nil {
		return errors.Wrap(ErrNoPendingProposal, "nothing to withdraw")
	}
	if v.Pending.ID != ix.ProposalID {
		return errors.Wrapf(ErrNoPendingProposal, "proposal %d is not pending, %d is", ix.ProposalID, v.Pending.ID)
	}
	caller := op.metas[0]
	if err := requireSigner(caller); err != nil {
		return err
	}
	// A proposer removed from the roster loses its authority over the
	// proposal.
	isProposer := caller.Address.Equals(v.Pending.Proposer) && v.IsGuardian(caller.Address)
	if !caller.Address.Equals(v.Owner) && !isProposer {
		return errors.Wrapf(ErrUnauthorized, "%s is neither the owner nor the guardian that proposed", caller.Address)
	}
	v.Pending = nil

	raw, err := encodeVault(acc, v)
	if err != nil {
		return err
	}
	if err := writeVault(db, op.metas[1].Address, acc, raw); err != nil {
		return err
	}
	guardvault.GetLogger(ctx).Info("proposal withdrawn",
		"vault", op.metas[1].Address,
		"proposal", ix.ProposalID,
		"by", caller.Address)
	return nil
}

// LoadVault returns the vault stored in given account.
func LoadVault(db guardvault.ReadOnlyKVStore, addr guardvault.Address) (*Vault, error) {
	acc, err := accounts.Get(db, addr)
	if err != nil {
		return nil, err
	}
	var v Vault
	if err := guardvault.Unpack(acc.Data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
