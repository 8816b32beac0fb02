package guardvault

// ReadOnlyKVStore gives read access to the account storage.
type ReadOnlyKVStore interface {
	// Get returns nil if the key does not exist. A nil key is a programming
	// error and panics.
	Get(key []byte) ([]byte, error)
	// Has returns true if the key exists. A nil key panics.
	Has(key []byte) (bool, error)
}

// SetDeleter is the write half of a store. Callers must not modify key or
// value after passing them.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the storage every program and collaborator operates on.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
}

// Batch collects changes that are applied to a store on Write.
type Batch interface {
	SetDeleter
	Write() error
}

// CacheableKVStore can open a layer of changes that is later either applied
// or dropped as a whole. The runtime opens one for each transaction and the
// vault processor one for each instruction, so that a rejected operation
// leaves storage untouched.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap is a layer of pending changes. Reads see the pending changes
// first and the underlying store second.
type KVCacheWrap interface {
	CacheableKVStore
	// Write applies the pending changes to the underlying store.
	Write() error
	// Discard drops the pending changes.
	Discard()
}
