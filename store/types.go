package store

import "github.com/iov-one/guardvault"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = guardvault.ReadOnlyKVStore
type SetDeleter = guardvault.SetDeleter
type KVStore = guardvault.KVStore
type Batch = guardvault.Batch
type CacheableKVStore = guardvault.CacheableKVStore
type KVCacheWrap = guardvault.KVCacheWrap
