package app

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
	"github.com/iov-one/guardvault/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

// Result is the outcome of a delivered transaction. A zero code means
// success.
type Result struct {
	Code uint32
	Log  string
}

// IsOK returns true if the transaction was applied.
func (r Result) IsOK() bool {
	return r.Code == 0
}

// Runtime delivers transactions to the registered programs. Deliveries are
// serialized, a store has a single writer.
type Runtime struct {
	mu sync.Mutex

	db          guardvault.CacheableKVStore
	router      *Router
	initializer guardvault.Initializer
	logger      log.Logger
	debug       bool

	// chainID is loaded from db in initialization
	// saved once in InitChain
	chainID string
}

// NewRuntime returns a runtime operating on given store. The chain id is
// loaded from the store if the chain was already initialized.
func NewRuntime(db guardvault.CacheableKVStore, router *Router, init guardvault.Initializer) (*Runtime, error) {
	chainID, err := loadChainID(db)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		db:          db,
		router:      router,
		initializer: init,
		logger:      log.NewNopLogger(),
		chainID:     chainID,
	}, nil
}

// WithLogger sets the logger of the runtime.
func (r *Runtime) WithLogger(logger log.Logger) *Runtime {
	r.logger = logger
	return r
}

// WithDebug controls whether internal error details are returned in results.
func (r *Runtime) WithDebug(debug bool) *Runtime {
	r.debug = debug
	return r
}

// ChainID returns the chain id or an empty string before genesis.
func (r *Runtime) ChainID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chainID
}

func (r *Runtime) context() guardvault.Context {
	ctx := guardvault.WithLogger(context.Background(), r.logger)
	if r.chainID != "" {
		ctx = guardvault.WithChainID(ctx, r.chainID)
	}
	return ctx
}

// InitChain stores the chain id and runs all initializers. It can be
// called only once per store.
func (r *Runtime) InitChain(gen Genesis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chainID != "" {
		return errors.Wrapf(errors.ErrState, "app state previously loaded for chain %s", r.chainID)
	}
	cache := r.db.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if r.initializer != nil {
		if err := r.initializer.FromGenesis(gen.AppState, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "genesis")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	r.chainID = gen.ChainID
	r.logger.Info("chain initialized", "chain_id", gen.ChainID)
	return nil
}

// Deliver decodes and executes a transaction, reporting the outcome as a
// result. Internal error details are only exposed in debug mode.
func (r *Runtime) Deliver(raw []byte) Result {
	tx, err := DecodeTx(raw)
	if err == nil {
		err = r.DeliverTx(tx)
	} else {
		r.logger.Debug("rejected transaction", "err", err)
	}
	code, msg := errors.ResultInfo(err, r.debug)
	return Result{Code: code, Log: msg}
}

// DeliverTx executes a transaction. Either all of its instructions are
// applied or none.
func (r *Runtime) DeliverTx(tx *Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := guardvault.WithLogInfo(r.context(), "call", "deliver_tx", "instructions", len(tx.Instructions))
	start := time.Now()
	err := r.deliver(ctx, tx)
	logDuration(ctx, start, "transaction", err)
	return err
}

func (r *Runtime) deliver(ctx guardvault.Context, tx *Tx) error {
	if r.chainID == "" {
		return errors.Wrap(ErrNoGenesis, "cannot deliver transactions")
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	cache := r.db.CacheWrap()
	signers, err := sigs.VerifyTxSignatures(cache, tx, r.chainID)
	if err != nil {
		cache.Discard()
		return err
	}
	ctx = sigs.WithSigners(ctx, signers)

	for i, ix := range tx.Instructions {
		p, err := r.router.Program(ix.ProgramID)
		if err != nil {
			cache.Discard()
			return errors.Wrapf(err, "instruction %d", i)
		}
		ictx := guardvault.WithLogInfo(ctx, "instruction", i, "program", ix.ProgramID)
		if err := process(ictx, p, cache, resolveAccounts(ix.Accounts, signers), ix.Data); err != nil {
			cache.Discard()
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// resolveAccounts marks the accounts whose key signed the transaction.
func resolveAccounts(refs []AccountRef, signers []guardvault.Address) []accounts.AccountMeta {
	metas := make([]accounts.AccountMeta, len(refs))
	for i, ref := range refs {
		metas[i] = accounts.AccountMeta{
			Address:    ref.Address,
			IsSigner:   guardvault.Addresses(signers).Contains(ref.Address),
			IsWritable: ref.Writable,
		}
	}
	return metas
}
