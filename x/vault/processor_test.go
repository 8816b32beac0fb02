package vault_test

import (
	"context"
	"testing"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/vaulttest"
	"github.com/iov-one/guardvault/vaulttest/assert"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/custody"
	"github.com/iov-one/guardvault/x/vault"
	"github.com/stretchr/testify/require"
)

var thresholds = vault.GuardianThresholds{
	Freeze:                3,
	Unfreeze:              3,
	ChangeOwnerKey:        3,
	AdjustWithdrawalLimit: 2,
}

func propose(t testing.TB, env *vaulttest.Env, f *vaulttest.Fixture, caller guardvault.Address, action vault.Action) error {
	t.Helper()
	call, err := vault.ProposeActionCall(caller, f.Vault, f.Custody, action)
	require.NoError(t, err)
	return env.Run(call)
}

func confirm(t testing.TB, env *vaulttest.Env, f *vaulttest.Fixture, guardian guardvault.Address, id uint64) error {
	t.Helper()
	call, err := vault.ConfirmActionCall(guardian, f.Vault, f.Custody, id)
	require.NoError(t, err)
	return env.Run(call)
}

func withdraw(t testing.TB, env *vaulttest.Env, f *vaulttest.Fixture, caller, destination guardvault.Address, amount uint64) error {
	t.Helper()
	call, err := vault.ExecuteWithdrawalCall(caller, f.Vault, f.Custody, destination, env.Conf.Asset, amount)
	require.NoError(t, err)
	return env.Run(call)
}

// requireRejected runs fn and ensures it fails with the expected error
// without modifying any of the given accounts.
func requireRejected(t testing.TB, env *vaulttest.Env, wantErr *errors.Error, fn func() error, addrs ...guardvault.Address) {
	t.Helper()
	before := env.Snapshot(t, addrs...)
	err := fn()
	if !wantErr.Is(err) {
		t.Fatalf("want %q error, got %+v", wantErr, err)
	}
	assert.Unchanged(t, before, env.Snapshot(t, addrs...))
}

func TestInitVault(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 5, thresholds, 1000, 400)

	v := env.Vault(t, f.Vault)
	require.True(t, v.Initialized)
	require.False(t, v.Frozen)
	require.Equal(t, f.Owner, v.Owner)
	require.Equal(t, f.Custody, v.Custody)
	require.Equal(t, f.Guardians, v.Guardians)
	require.Equal(t, thresholds, v.Thresholds)
	require.Nil(t, v.Pending)
	require.Nil(t, v.AssetLimits)

	// Decoding the stored record and encoding it again gives the same bytes.
	raw := env.Snapshot(t, f.Vault)[0]
	var acc accounts.Account
	require.NoError(t, guardvault.Decode(raw, &acc))
	repacked, err := guardvault.Pack(v)
	require.NoError(t, err)
	require.Equal(t, acc.Data, repacked)

	require.Equal(t, uint64(600), env.Balance(t, f.Source))
	require.Equal(t, uint64(400), env.Balance(t, f.Custody))

	state, err := env.Keeper.Load(env.DB, f.Custody)
	require.NoError(t, err)
	authority, err := vault.CustodyAuthority(env.Deriver(), f.Owner, f.Custody)
	require.NoError(t, err)
	require.Equal(t, authority, state.Authority)
	require.Equal(t, env.Conf.Asset, state.Asset)
}

func TestInitVaultRejected(t *testing.T) {
	type setup struct {
		owner      guardvault.Address
		guardians  guardvault.Addresses
		vaultAcc   guardvault.Address
		source     guardvault.Address
		custody    guardvault.Address
		amount     uint64
		thresholds vault.GuardianThresholds
	}

	cases := map[string]struct {
		prepare func(t *testing.T, env *vaulttest.Env, s *setup)
		modify  func(t *testing.T, env *vaulttest.Env, s *setup, c *vault.Call)
		wantErr *errors.Error
	}{
		"missing owner signature": {
			modify: func(_ *testing.T, _ *vaulttest.Env, _ *setup, c *vault.Call) {
				c.Accounts[0].IsSigner = false
			},
			wantErr: vault.ErrMissingSignature,
		},
		"claimed authority is a random address": {
			modify: func(_ *testing.T, _ *vaulttest.Env, _ *setup, c *vault.Call) {
				c.Accounts[4] = accounts.ReadOnly(vaulttest.NewAddress())
			},
			wantErr: vault.ErrInvalidAuthorityDerivation,
		},
		"claimed authority derived for another owner": {
			modify: func(t *testing.T, env *vaulttest.Env, s *setup, c *vault.Call) {
				other, err := vault.CustodyAuthority(env.Deriver(), vaulttest.NewAddress(), s.custody)
				require.NoError(t, err)
				c.Accounts[4] = accounts.ReadOnly(other)
			},
			wantErr: vault.ErrInvalidAuthorityDerivation,
		},
		"vault account not rent exempt": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.vaultAcc = env.VaultAccount(t, env.ExemptLamports()-1)
			},
			wantErr: vault.ErrNotRentExempt,
		},
		"vault account owned by another program": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.vaultAcc = vaulttest.NewAddress()
				_, err := accounts.Create(env.DB, s.vaultAcc, env.ExemptLamports(), vault.LEN, vaulttest.NewAddress())
				require.NoError(t, err)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"vault account too small": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.vaultAcc = vaulttest.NewAddress()
				_, err := accounts.Create(env.DB, s.vaultAcc, env.ExemptLamports(), vault.LEN-1, env.Conf.ProgramID)
				require.NoError(t, err)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"vault account read only": {
			modify: func(_ *testing.T, _ *vaulttest.Env, _ *setup, c *vault.Call) {
				c.Accounts[1].IsWritable = false
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"vault custody read only": {
			modify: func(_ *testing.T, _ *vaulttest.Env, _ *setup, c *vault.Call) {
				c.Accounts[3].IsWritable = false
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"source holds another asset": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.source = env.Custody(t, vaulttest.NewAddress(), s.owner, 1000)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"vault custody already in use": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.custody = env.Custody(t, env.Conf.Asset, vaulttest.NewAddress(), 0)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"source is the vault custody": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.custody = s.source
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"source cannot cover the deposit": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.amount = 1001
			},
			wantErr: custody.ErrInsufficientFunds,
		},
		"three guardians": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.guardians = vaulttest.NewAddresses(3)
				s.thresholds = vault.GuardianThresholds{1, 1, 1, 1}
			},
			wantErr: vault.ErrInsufficientGuardians,
		},
		"guardian roster over capacity": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.guardians = vaulttest.NewAddresses(vault.MaxGuardians + 1)
			},
			wantErr: vault.ErrEncodingCapacityExceeded,
		},
		"threshold exceeds roster": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.thresholds.Unfreeze = 6
			},
			wantErr: vault.ErrInsufficientGuardians,
		},
		"zero threshold": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.thresholds.Freeze = 0
			},
			wantErr: vault.ErrInsufficientGuardians,
		},
		"duplicated guardian": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.guardians[4] = s.guardians[1]
			},
			wantErr: errors.ErrDuplicate,
		},
		"owner is a guardian": {
			prepare: func(t *testing.T, env *vaulttest.Env, s *setup) {
				s.guardians[2] = s.owner
			},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			env := vaulttest.NewEnv(t)
			s := &setup{
				owner:      vaulttest.NewAddress(),
				guardians:  vaulttest.NewAddresses(5),
				vaultAcc:   env.VaultAccount(t, env.ExemptLamports()),
				custody:    env.EmptyCustody(t),
				amount:     400,
				thresholds: thresholds,
			}
			s.source = env.Custody(t, env.Conf.Asset, s.owner, 1000)
			if tc.prepare != nil {
				tc.prepare(t, env, s)
			}

			call, err := vault.InitVaultCall(env.Deriver(), s.owner, s.vaultAcc, s.source, s.custody, s.guardians, s.amount, s.thresholds)
			require.NoError(t, err)
			if tc.modify != nil {
				tc.modify(t, env, s, &call)
			}

			requireRejected(t, env, tc.wantErr, func() error { return env.Run(call) },
				s.vaultAcc, s.source, s.custody)
		})
	}
}

// plainStore hides the cache wrap support of the underlying store.
type plainStore struct {
	guardvault.KVStore
}

func TestInitVaultWithoutCacheWrap(t *testing.T) {
	cases := map[string]struct {
		sourceAuthority func(owner guardvault.Address) guardvault.Address
		amount          uint64
		wantErr         *errors.Error
	}{
		"insufficient funds": {
			sourceAuthority: func(owner guardvault.Address) guardvault.Address { return owner },
			amount:          5000,
			wantErr:         custody.ErrInsufficientFunds,
		},
		"source controlled by another key": {
			sourceAuthority: func(guardvault.Address) guardvault.Address { return vaulttest.NewAddress() },
			amount:          400,
			wantErr:         errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			env := vaulttest.NewEnv(t)
			owner := vaulttest.NewAddress()
			vaultAcc := env.VaultAccount(t, env.ExemptLamports())
			vaultCustody := env.EmptyCustody(t)
			source := env.Custody(t, env.Conf.Asset, tc.sourceAuthority(owner), 1000)

			call, err := vault.InitVaultCall(env.Deriver(), owner, vaultAcc, source, vaultCustody, vaulttest.NewAddresses(5), tc.amount, thresholds)
			require.NoError(t, err)

			requireRejected(t, env, tc.wantErr, func() error {
				return env.Processor.Process(context.Background(), plainStore{env.DB}, call.Accounts, call.Data)
			}, vaultAcc, source, vaultCustody)
		})
	}
}

func TestInitVaultTwice(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 400)

	// Another owner trying to take over the vault account.
	owner := vaulttest.NewAddress()
	source := env.Custody(t, env.Conf.Asset, owner, 1000)
	custodyAcc := env.EmptyCustody(t)
	call, err := vault.InitVaultCall(env.Deriver(), owner, f.Vault, source, custodyAcc, vaulttest.NewAddresses(4), 10, thresholds)
	require.NoError(t, err)
	requireRejected(t, env, vault.ErrAlreadyInitialized, func() error { return env.Run(call) },
		f.Vault, f.Custody, source, custodyAcc)

	// Same owner, same accounts.
	call, err = vault.InitVaultCall(env.Deriver(), f.Owner, f.Vault, f.Source, f.Custody, f.Guardians, 10, thresholds)
	require.NoError(t, err)
	requireRejected(t, env, vault.ErrAlreadyInitialized, func() error { return env.Run(call) },
		f.Vault, f.Custody, f.Source)
}

func TestNotInitialized(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := &vaulttest.Fixture{
		Owner:     vaulttest.NewAddress(),
		Guardians: vaulttest.NewAddresses(4),
		Vault:     env.VaultAccount(t, env.ExemptLamports()),
		Custody:   env.EmptyCustody(t),
	}
	requireRejected(t, env, vault.ErrNotInitialized, func() error {
		return propose(t, env, f, f.Guardians[0], vault.Freeze{})
	}, f.Vault)
	requireRejected(t, env, vault.ErrNotInitialized, func() error {
		return confirm(t, env, f, f.Guardians[0], 1)
	}, f.Vault)
	requireRejected(t, env, vault.ErrNotInitialized, func() error {
		return withdraw(t, env, f, f.Owner, vaulttest.NewAddress(), 1)
	}, f.Vault)
}

func TestFreezeQuorum(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)
	a, b, c, d := f.Guardians[0], f.Guardians[1], f.Guardians[2], f.Guardians[3]

	require.NoError(t, propose(t, env, f, a, vault.Freeze{}))
	v := env.Vault(t, f.Vault)
	require.False(t, v.Frozen)
	require.NotNil(t, v.Pending)
	require.Equal(t, uint64(1), v.Pending.ID)
	require.Equal(t, a, v.Pending.Proposer)
	require.Equal(t, guardvault.Addresses{a}, v.Pending.ConfirmedBy)

	require.NoError(t, confirm(t, env, f, b, 1))
	v = env.Vault(t, f.Vault)
	require.False(t, v.Frozen)
	require.Equal(t, guardvault.Addresses{a, b}, v.Pending.ConfirmedBy)

	require.NoError(t, confirm(t, env, f, c, 1))
	v = env.Vault(t, f.Vault)
	require.True(t, v.Frozen)
	require.Nil(t, v.Pending)
	require.Equal(t, uint64(1), v.ProposalSeq)

	// The proposal is gone, late confirmations are rejected.
	requireRejected(t, env, vault.ErrNoPendingProposal, func() error {
		return confirm(t, env, f, d, 1)
	}, f.Vault)
}

func TestOwnerProposalIsNotConfirmed(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)

	require.NoError(t, propose(t, env, f, f.Owner, vault.Freeze{}))
	v := env.Vault(t, f.Vault)
	require.Equal(t, f.Owner, v.Pending.Proposer)
	require.Empty(t, v.Pending.ConfirmedBy)

	for i, g := range f.Guardians[:3] {
		require.False(t, env.Vault(t, f.Vault).Frozen, "frozen after %d confirmations", i)
		require.NoError(t, confirm(t, env, f, g, 1))
	}
	require.True(t, env.Vault(t, f.Vault).Frozen)

	// The owner is not a guardian and cannot confirm.
	require.NoError(t, propose(t, env, f, f.Guardians[0], vault.Unfreeze{}))
	requireRejected(t, env, vault.ErrUnauthorized, func() error {
		return confirm(t, env, f, f.Owner, 2)
	}, f.Vault)
}

func TestSingleConfirmationThreshold(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, vault.GuardianThresholds{Freeze: 1, Unfreeze: 1, ChangeOwnerKey: 4, AdjustWithdrawalLimit: 4}, 10, 10)

	require.NoError(t, propose(t, env, f, f.Guardians[2], vault.Freeze{}))
	v := env.Vault(t, f.Vault)
	require.True(t, v.Frozen)
	require.Nil(t, v.Pending)

	require.NoError(t, propose(t, env, f, f.Guardians[3], vault.Unfreeze{}))
	v = env.Vault(t, f.Vault)
	require.False(t, v.Frozen)
	require.Equal(t, uint64(2), v.ProposalSeq)
}

func TestDuplicateConfirmation(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)
	a, b := f.Guardians[0], f.Guardians[1]

	require.NoError(t, propose(t, env, f, a, vault.Freeze{}))
	require.NoError(t, confirm(t, env, f, b, 1))

	requireRejected(t, env, vault.ErrDuplicateConfirmation, func() error {
		return confirm(t, env, f, b, 1)
	}, f.Vault)
	// The proposer confirmed when raising the proposal.
	requireRejected(t, env, vault.ErrDuplicateConfirmation, func() error {
		return confirm(t, env, f, a, 1)
	}, f.Vault)

	v := env.Vault(t, f.Vault)
	require.Len(t, v.Pending.ConfirmedBy, 2)
	require.False(t, v.Frozen)
}

func TestProposalAlreadyPending(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)
	require.NoError(t, propose(t, env, f, f.Guardians[0], vault.Freeze{}))

	callers := map[string]guardvault.Address{
		"owner":    f.Owner,
		"proposer": f.Guardians[0],
		"guardian": f.Guardians[1],
		"stranger": vaulttest.NewAddress(),
	}
	for name, caller := range callers {
		t.Run(name, func(t *testing.T) {
			requireRejected(t, env, vault.ErrProposalAlreadyPending, func() error {
				return propose(t, env, f, caller, vault.AdjustWithdrawalLimit{Asset: env.Conf.Asset, NewLimit: vault.NewLimit(1)})
			}, f.Vault)
		})
	}
}

func TestProposeRejected(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)

	cases := map[string]struct {
		caller  guardvault.Address
		action  vault.Action
		wantErr *errors.Error
	}{
		"stranger": {
			caller:  vaulttest.NewAddress(),
			action:  vault.Freeze{},
			wantErr: vault.ErrUnauthorized,
		},
		"unfreeze an active vault": {
			caller:  f.Guardians[0],
			action:  vault.Unfreeze{},
			wantErr: errors.ErrState,
		},
		"guardian as new owner": {
			caller:  f.Owner,
			action:  vault.ChangeOwnerKey{NewOwner: f.Guardians[1]},
			wantErr: errors.ErrInput,
		},
		"current owner as new owner": {
			caller:  f.Guardians[0],
			action:  vault.ChangeOwnerKey{NewOwner: f.Owner},
			wantErr: errors.ErrInput,
		},
		"zero address as new owner": {
			caller:  f.Guardians[0],
			action:  vault.ChangeOwnerKey{},
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			requireRejected(t, env, tc.wantErr, func() error {
				return propose(t, env, f, tc.caller, tc.action)
			}, f.Vault)
		})
	}

	t.Run("missing signature", func(t *testing.T) {
		call, err := vault.ProposeActionCall(f.Guardians[0], f.Vault, f.Custody, vault.Freeze{})
		require.NoError(t, err)
		call.Accounts[0].IsSigner = false
		requireRejected(t, env, vault.ErrMissingSignature, func() error { return env.Run(call) }, f.Vault)
	})
}

func TestFrozenVault(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, vault.GuardianThresholds{Freeze: 1, Unfreeze: 2, ChangeOwnerKey: 2, AdjustWithdrawalLimit: 2}, 1000, 1000)
	destination := env.Custody(t, env.Conf.Asset, vaulttest.NewAddress(), 0)

	require.NoError(t, propose(t, env, f, f.Guardians[0], vault.Freeze{}))
	require.True(t, env.Vault(t, f.Vault).Frozen)

	requireRejected(t, env, vault.ErrVaultFrozen, func() error {
		return withdraw(t, env, f, f.Owner, destination, 1)
	}, f.Vault, f.Custody, destination)
	// Withdrawals are rejected for frozen vaults before looking at the caller.
	requireRejected(t, env, vault.ErrVaultFrozen, func() error {
		return withdraw(t, env, f, vaulttest.NewAddress(), destination, 1)
	}, f.Vault, f.Custody, destination)

	blocked := map[string]vault.Action{
		"freeze":       vault.Freeze{},
		"change owner": vault.ChangeOwnerKey{NewOwner: vaulttest.NewAddress()},
		"adjust limit": vault.AdjustWithdrawalLimit{Asset: env.Conf.Asset, NewLimit: vault.NewLimit(5)},
	}
	for name, action := range blocked {
		t.Run(name, func(t *testing.T) {
			requireRejected(t, env, vault.ErrVaultFrozen, func() error {
				return propose(t, env, f, f.Guardians[1], action)
			}, f.Vault)
		})
	}

	addCall, err := vault.AddGuardianCall(f.Owner, f.Vault, vaulttest.NewAddress())
	require.NoError(t, err)
	requireRejected(t, env, vault.ErrVaultFrozen, func() error { return env.Run(addCall) }, f.Vault)

	require.NoError(t, propose(t, env, f, f.Guardians[1], vault.Unfreeze{}))
	require.True(t, env.Vault(t, f.Vault).Frozen)
	require.NoError(t, confirm(t, env, f, f.Guardians[2], 2))
	require.False(t, env.Vault(t, f.Vault).Frozen)

	require.NoError(t, withdraw(t, env, f, f.Owner, destination, 10))
	require.Equal(t, uint64(10), env.Balance(t, destination))
}

func TestWithdrawalLimits(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)
	destination := env.Custody(t, env.Conf.Asset, vaulttest.NewAddress(), 0)
	asset := env.Conf.Asset

	// Without a limit any amount can be withdrawn.
	require.NoError(t, withdraw(t, env, f, f.Owner, destination, 600))
	require.Equal(t, uint64(400), env.Balance(t, f.Custody))
	require.Equal(t, uint64(600), env.Balance(t, destination))

	require.NoError(t, propose(t, env, f, f.Guardians[0], vault.AdjustWithdrawalLimit{Asset: asset, NewLimit: vault.NewLimit(100)}))
	require.NoError(t, confirm(t, env, f, f.Guardians[1], 1))
	require.Equal(t, vault.NewLimit(100), env.Vault(t, f.Vault).Limit(asset))

	requireRejected(t, env, vault.ErrWithdrawalLimitExceeded, func() error {
		return withdraw(t, env, f, f.Owner, destination, 101)
	}, f.Vault, f.Custody, destination)
	require.NoError(t, withdraw(t, env, f, f.Owner, destination, 100))
	require.Equal(t, uint64(300), env.Balance(t, f.Custody))

	// Removing the limit lifts the restriction.
	require.NoError(t, propose(t, env, f, f.Owner, vault.AdjustWithdrawalLimit{Asset: asset}))
	require.NoError(t, confirm(t, env, f, f.Guardians[2], 2))
	require.NoError(t, confirm(t, env, f, f.Guardians[3], 2))
	v := env.Vault(t, f.Vault)
	require.Nil(t, v.Limit(asset))
	require.Nil(t, v.AssetLimits)
	require.NoError(t, withdraw(t, env, f, f.Owner, destination, 300))
	require.Equal(t, uint64(0), env.Balance(t, f.Custody))
	require.Equal(t, uint64(1000), env.Balance(t, destination))
}

func TestWithdrawalRejected(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 500)
	destination := env.Custody(t, env.Conf.Asset, vaulttest.NewAddress(), 0)

	cases := map[string]struct {
		call    func() (vault.Call, error)
		wantErr *errors.Error
	}{
		"guardian": {
			call: func() (vault.Call, error) {
				return vault.ExecuteWithdrawalCall(f.Guardians[0], f.Vault, f.Custody, destination, env.Conf.Asset, 1)
			},
			wantErr: vault.ErrUnauthorized,
		},
		"missing signature": {
			call: func() (vault.Call, error) {
				c, err := vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Custody, destination, env.Conf.Asset, 1)
				c.Accounts[0].IsSigner = false
				return c, err
			},
			wantErr: vault.ErrMissingSignature,
		},
		"zero amount": {
			call: func() (vault.Call, error) {
				return vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Custody, destination, env.Conf.Asset, 0)
			},
			wantErr: errors.ErrAmount,
		},
		"more than deposited": {
			call: func() (vault.Call, error) {
				return vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Custody, destination, env.Conf.Asset, 501)
			},
			wantErr: custody.ErrInsufficientFunds,
		},
		"foreign custody account": {
			call: func() (vault.Call, error) {
				return vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Source, destination, env.Conf.Asset, 1)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"another asset": {
			call: func() (vault.Call, error) {
				return vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Custody, destination, vaulttest.NewAddress(), 1)
			},
			wantErr: vault.ErrAccountMismatch,
		},
		"destination of another asset": {
			call: func() (vault.Call, error) {
				other := env.Custody(t, vaulttest.NewAddress(), f.Owner, 0)
				return vault.ExecuteWithdrawalCall(f.Owner, f.Vault, f.Custody, other, env.Conf.Asset, 1)
			},
			wantErr: custody.ErrAssetMismatch,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			call, err := tc.call()
			require.NoError(t, err)
			requireRejected(t, env, tc.wantErr, func() error { return env.Run(call) },
				f.Vault, f.Custody, f.Source, destination)
		})
	}
}

func TestChangeOwnerKey(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 1000, 1000)
	destination := env.Custody(t, env.Conf.Asset, vaulttest.NewAddress(), 0)
	newOwner := vaulttest.NewAddress()

	require.NoError(t, propose(t, env, f, f.Guardians[0], vault.ChangeOwnerKey{NewOwner: newOwner}))
	require.NoError(t, confirm(t, env, f, f.Guardians[1], 1))
	require.Equal(t, f.Owner, env.Vault(t, f.Vault).Owner)
	require.NoError(t, confirm(t, env, f, f.Guardians[2], 1))
	require.Equal(t, newOwner, env.Vault(t, f.Vault).Owner)

	// The custody authority follows the owner.
	state, err := env.Keeper.Load(env.DB, f.Custody)
	require.NoError(t, err)
	authority, err := vault.CustodyAuthority(env.Deriver(), newOwner, f.Custody)
	require.NoError(t, err)
	require.Equal(t, authority, state.Authority)

	requireRejected(t, env, vault.ErrUnauthorized, func() error {
		return withdraw(t, env, f, f.Owner, destination, 1)
	}, f.Vault, f.Custody, destination)
	require.NoError(t, withdraw(t, env, f, newOwner, destination, 250))
	require.Equal(t, uint64(250), env.Balance(t, destination))
}

func TestAddGuardian(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 10, 10)

	add := func(caller, guardian guardvault.Address) error {
		call, err := vault.AddGuardianCall(caller, f.Vault, guardian)
		require.NoError(t, err)
		return env.Run(call)
	}

	g := vaulttest.NewAddress()
	require.NoError(t, add(f.Owner, g))
	v := env.Vault(t, f.Vault)
	require.Len(t, v.Guardians, 5)
	require.True(t, v.IsGuardian(g))

	cases := map[string]struct {
		caller   guardvault.Address
		guardian guardvault.Address
		wantErr  *errors.Error
	}{
		"duplicate": {caller: f.Owner, guardian: g, wantErr: errors.ErrDuplicate},
		"owner":     {caller: f.Owner, guardian: f.Owner, wantErr: errors.ErrInput},
		"guardian":  {caller: f.Guardians[0], guardian: vaulttest.NewAddress(), wantErr: vault.ErrUnauthorized},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			requireRejected(t, env, tc.wantErr, func() error { return add(tc.caller, tc.guardian) }, f.Vault)
		})
	}

	for len(env.Vault(t, f.Vault).Guardians) < vault.MaxGuardians {
		require.NoError(t, add(f.Owner, vaulttest.NewAddress()))
	}
	requireRejected(t, env, vault.ErrEncodingCapacityExceeded, func() error {
		return add(f.Owner, vaulttest.NewAddress())
	}, f.Vault)
}

func TestRemoveGuardian(t *testing.T) {
	remove := func(t *testing.T, env *vaulttest.Env, f *vaulttest.Fixture, caller, guardian guardvault.Address) error {
		call, err := vault.RemoveGuardianCall(caller, f.Vault, guardian)
		require.NoError(t, err)
		return env.Run(call)
	}

	t.Run("roster minimum", func(t *testing.T) {
		env := vaulttest.NewEnv(t)
		f := env.NewVault(t, 4, thresholds, 10, 10)
		requireRejected(t, env, vault.ErrInsufficientGuardians, func() error {
			return remove(t, env, f, f.Owner, f.Guardians[0])
		}, f.Vault)
	})

	t.Run("largest threshold", func(t *testing.T) {
		env := vaulttest.NewEnv(t)
		f := env.NewVault(t, 5, vault.GuardianThresholds{Freeze: 1, Unfreeze: 5, ChangeOwnerKey: 1, AdjustWithdrawalLimit: 1}, 10, 10)
		requireRejected(t, env, vault.ErrInsufficientGuardians, func() error {
			return remove(t, env, f, f.Owner, f.Guardians[0])
		}, f.Vault)
	})

	t.Run("unknown guardian", func(t *testing.T) {
		env := vaulttest.NewEnv(t)
		f := env.NewVault(t, 5, thresholds, 10, 10)
		requireRejected(t, env, errors.ErrNotFound, func() error {
			return remove(t, env, f, f.Owner, vaulttest.NewAddress())
		}, f.Vault)
	})

	t.Run("not the owner", func(t *testing.T) {
		env := vaulttest.NewEnv(t)
		f := env.NewVault(t, 5, thresholds, 10, 10)
		requireRejected(t, env, vault.ErrUnauthorized, func() error {
			return remove(t, env, f, f.Guardians[0], f.Guardians[1])
		}, f.Vault)
	})

	t.Run("confirmations are pruned", func(t *testing.T) {
		env := vaulttest.NewEnv(t)
		f := env.NewVault(t, 5, thresholds, 10, 10)
		a, b := f.Guardians[0], f.Guardians[1]

		require.NoError(t, propose(t, env, f, a, vault.Freeze{}))
		require.NoError(t, confirm(t, env, f, b, 1))
		require.NoError(t, remove(t, env, f, f.Owner, b))

		v := env.Vault(t, f.Vault)
		require.Len(t, v.Guardians, 4)
		require.False(t, v.IsGuardian(b))
		require.Equal(t, guardvault.Addresses{a}, v.Pending.ConfirmedBy)

		requireRejected(t, env, vault.ErrInsufficientGuardians, func() error {
			return remove(t, env, f, f.Owner, a)
		}, f.Vault)
	})
}

func TestWithdrawProposal(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 10, 10)
	a, b, c := f.Guardians[0], f.Guardians[1], f.Guardians[2]

	withdrawProposal := func(caller guardvault.Address, id uint64) error {
		call, err := vault.WithdrawProposalCall(caller, f.Vault, id)
		require.NoError(t, err)
		return env.Run(call)
	}

	requireRejected(t, env, vault.ErrNoPendingProposal, func() error {
		return withdrawProposal(f.Owner, 1)
	}, f.Vault)

	require.NoError(t, propose(t, env, f, a, vault.Freeze{}))
	requireRejected(t, env, vault.ErrUnauthorized, func() error {
		return withdrawProposal(c, 1)
	}, f.Vault)
	requireRejected(t, env, vault.ErrNoPendingProposal, func() error {
		return withdrawProposal(f.Owner, 2)
	}, f.Vault)
	require.NoError(t, withdrawProposal(f.Owner, 1))
	require.Nil(t, env.Vault(t, f.Vault).Pending)

	// Confirmations of the withdrawn proposal do not count toward a new one.
	require.NoError(t, propose(t, env, f, b, vault.Freeze{}))
	requireRejected(t, env, vault.ErrNoPendingProposal, func() error {
		return confirm(t, env, f, c, 1)
	}, f.Vault)
	v := env.Vault(t, f.Vault)
	require.Equal(t, uint64(2), v.Pending.ID)
	require.Equal(t, guardvault.Addresses{b}, v.Pending.ConfirmedBy)

	// The proposer can withdraw their own proposal.
	require.NoError(t, withdrawProposal(b, 2))
	v = env.Vault(t, f.Vault)
	require.Nil(t, v.Pending)
	require.False(t, v.Frozen)
	require.Equal(t, uint64(2), v.ProposalSeq)
}

func TestWithdrawProposalByRemovedProposer(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 5, thresholds, 10, 10)
	a := f.Guardians[0]

	require.NoError(t, propose(t, env, f, a, vault.Freeze{}))

	call, err := vault.RemoveGuardianCall(f.Owner, f.Vault, a)
	require.NoError(t, err)
	require.NoError(t, env.Run(call))

	v := env.Vault(t, f.Vault)
	require.False(t, v.IsGuardian(a))
	require.Equal(t, a, v.Pending.Proposer)

	withdraw, err := vault.WithdrawProposalCall(a, f.Vault, 1)
	require.NoError(t, err)
	requireRejected(t, env, vault.ErrUnauthorized, func() error { return env.Run(withdraw) }, f.Vault)

	// The owner keeps the authority to withdraw it.
	withdraw, err = vault.WithdrawProposalCall(f.Owner, f.Vault, 1)
	require.NoError(t, err)
	require.NoError(t, env.Run(withdraw))
	require.Nil(t, env.Vault(t, f.Vault).Pending)
}

func TestInvalidInstruction(t *testing.T) {
	env := vaulttest.NewEnv(t)
	f := env.NewVault(t, 4, thresholds, 10, 10)

	err := env.Processor.Process(context.Background(), env.DB, []accounts.AccountMeta{accounts.Signer(f.Owner), accounts.Writable(f.Vault)}, []byte{42})
	assert.IsErr(t, vault.ErrInvalidInstruction, err)

	call, err := vault.ProposeActionCall(f.Guardians[0], f.Vault, f.Custody, vault.Freeze{})
	require.NoError(t, err)
	call.Accounts = call.Accounts[:2]
	requireRejected(t, env, vault.ErrInvalidInstruction, func() error { return env.Run(call) }, f.Vault)
}
