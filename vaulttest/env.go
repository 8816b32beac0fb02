package vaulttest

import (
	"context"
	"testing"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/gconf"
	"github.com/iov-one/guardvault/store"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/custody"
	"github.com/iov-one/guardvault/x/rent"
	"github.com/iov-one/guardvault/x/vault"
)

// Env is a fully configured in memory environment for running vault
// instructions.
type Env struct {
	DB        guardvault.CacheableKVStore
	Conf      vault.Config
	Rent      rent.Config
	Keeper    custody.Keeper
	Processor vault.Processor
}

// NewEnv returns an environment with the vault and rent configuration
// installed.
func NewEnv(t testing.TB) *Env {
	t.Helper()
	env := &Env{
		DB: store.MemStore(),
		Conf: vault.Config{
			ProgramID: NewAddress(),
			Asset:     NewAddress(),
		},
		Rent:   rent.DefaultConfig(),
		Keeper: custody.NewKeeper(),
	}
	env.Processor = vault.NewProcessor(env.Keeper)
	if err := gconf.Save(env.DB, vault.ConfPkg, env.Conf); err != nil {
		t.Fatalf("cannot save vault configuration: %s", err)
	}
	if err := gconf.Save(env.DB, rent.ConfPkg, env.Rent); err != nil {
		t.Fatalf("cannot save rent configuration: %s", err)
	}
	return env
}

// Deriver returns the authority deriver of the configured program.
func (env *Env) Deriver() vault.Deriver {
	return vault.ProgramDeriver{ProgramID: env.Conf.ProgramID}
}

// Custody creates an initialized custody account of given asset.
func (env *Env) Custody(t testing.TB, asset, authority guardvault.Address, balance uint64) guardvault.Address {
	t.Helper()
	addr := NewAddress()
	if err := env.Keeper.CreateAccount(env.DB, addr, env.Rent.MinimumBalance(custody.LEN)); err != nil {
		t.Fatalf("cannot create custody account: %s", err)
	}
	if err := env.Keeper.Initialize(env.DB, addr, asset, authority); err != nil {
		t.Fatalf("cannot initialize custody account: %s", err)
	}
	if err := env.Keeper.Mint(env.DB, addr, balance); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}
	return addr
}

// EmptyCustody creates an uninitialized custody account.
func (env *Env) EmptyCustody(t testing.TB) guardvault.Address {
	t.Helper()
	addr := NewAddress()
	if err := env.Keeper.CreateAccount(env.DB, addr, env.Rent.MinimumBalance(custody.LEN)); err != nil {
		t.Fatalf("cannot create custody account: %s", err)
	}
	return addr
}

// VaultAccount creates an uninitialized vault state account with given
// balance.
func (env *Env) VaultAccount(t testing.TB, lamports uint64) guardvault.Address {
	t.Helper()
	addr := NewAddress()
	if _, err := accounts.Create(env.DB, addr, lamports, vault.LEN, env.Conf.ProgramID); err != nil {
		t.Fatalf("cannot create vault account: %s", err)
	}
	return addr
}

// ExemptLamports returns the balance a vault account requires.
func (env *Env) ExemptLamports() uint64 {
	return env.Rent.MinimumBalance(vault.LEN)
}

// Run executes a vault call.
func (env *Env) Run(call vault.Call) error {
	return env.Processor.Process(context.Background(), env.DB, call.Accounts, call.Data)
}

// MustRun executes a vault call and fails the test on error.
func (env *Env) MustRun(t testing.TB, call vault.Call, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("cannot build call: %+v", err)
	}
	if err := env.Run(call); err != nil {
		t.Fatalf("call failed: %+v", err)
	}
}

// Vault loads the vault stored under given address.
func (env *Env) Vault(t testing.TB, addr guardvault.Address) *vault.Vault {
	t.Helper()
	v, err := vault.LoadVault(env.DB, addr)
	if err != nil {
		t.Fatalf("cannot load vault: %+v", err)
	}
	return v
}

// Balance returns the custody balance of given account.
func (env *Env) Balance(t testing.TB, addr guardvault.Address) uint64 {
	t.Helper()
	s, err := env.Keeper.Load(env.DB, addr)
	if err != nil {
		t.Fatalf("cannot load custody: %+v", err)
	}
	return s.Balance
}

// Snapshot returns the raw account content, for byte level comparison.
func (env *Env) Snapshot(t testing.TB, addrs ...guardvault.Address) [][]byte {
	t.Helper()
	out := make([][]byte, len(addrs))
	for i, a := range addrs {
		raw, err := env.DB.Get(append([]byte(accounts.BucketName+":"), a[:]...))
		if err != nil {
			t.Fatalf("cannot read %s: %s", a, err)
		}
		out[i] = raw
	}
	return out
}

// Fixture is an initialized vault.
type Fixture struct {
	Owner     guardvault.Address
	Guardians guardvault.Addresses
	Vault     guardvault.Address
	Custody   guardvault.Address
	Source    guardvault.Address
}

// NewVault initializes a vault with given guardian count and thresholds,
// depositing amount out of a fresh owner custody account holding balance.
func (env *Env) NewVault(t testing.TB, guardians int, thresholds vault.GuardianThresholds, balance, amount uint64) *Fixture {
	t.Helper()
	f := &Fixture{
		Owner:     NewAddress(),
		Guardians: NewAddresses(guardians),
		Vault:     env.VaultAccount(t, env.ExemptLamports()),
		Custody:   env.EmptyCustody(t),
	}
	f.Source = env.Custody(t, env.Conf.Asset, f.Owner, balance)
	call, err := vault.InitVaultCall(env.Deriver(), f.Owner, f.Vault, f.Source, f.Custody, f.Guardians, amount, thresholds)
	env.MustRun(t, call, err)
	return f
}
