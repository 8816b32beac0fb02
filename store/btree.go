package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/guardvault/errors"
)

// degree of every btree. Small trees are built and dropped for each
// transaction, so a low degree keeps them cheap.
const degree = 2

// MemStore returns an empty in-memory store. Changes are applied directly;
// use CacheWrap to group changes that must be applied together or not at all.
func MemStore() CacheableKVStore {
	return newCacheWrap(nil, nil, btree.NewFreeList(btree.DefaultFreeListSize))
}

// cacheWrap keeps changes in a btree layered over a parent store. Reads that
// miss the btree fall through to the parent. The root store has no parent.
type cacheWrap struct {
	tree   *btree.BTree
	free   *btree.FreeList
	parent ReadOnlyKVStore
	batch  Batch
}

var _ KVCacheWrap = (*cacheWrap)(nil)

func newCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) *cacheWrap {
	return &cacheWrap{
		tree:   btree.NewWithFreeList(degree, free),
		free:   free,
		parent: parent,
		batch:  batch,
	}
}

// CacheWrap returns a layer whose changes reach this store only on Write.
func (c *cacheWrap) CacheWrap() KVCacheWrap {
	return newCacheWrap(c, NewNonAtomicBatch(c), c.free)
}

// Write applies all changes to the parent store and empties this layer.
func (c *cacheWrap) Write() error {
	if c.batch == nil {
		return errors.Wrap(errors.ErrDatabase, "root store has no parent")
	}
	err := c.batch.Write()
	c.Discard()
	return err
}

// Discard drops all changes held by this layer.
func (c *cacheWrap) Discard() {
	for c.tree.DeleteMin() != nil {
	}
}

// Set stores a copy of value.
func (c *cacheWrap) Set(key, value []byte) error {
	if key == nil {
		panic("nil key")
	}
	e := &entry{key: key, value: append([]byte{}, value...)}
	c.tree.ReplaceOrInsert(e)
	if c.batch == nil {
		return nil
	}
	return c.batch.Set(key, e.value)
}

// Delete marks the key as removed. The parent store is updated on Write.
func (c *cacheWrap) Delete(key []byte) error {
	if key == nil {
		panic("nil key")
	}
	if c.batch == nil {
		c.tree.Delete(&entry{key: key})
		return nil
	}
	c.tree.ReplaceOrInsert(&entry{key: key, deleted: true})
	return c.batch.Delete(key)
}

// Get returns nil if the key does not exist.
func (c *cacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := c.lookup(key); ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	if c.parent == nil {
		return nil, nil
	}
	return c.parent.Get(key)
}

// Has returns true if the key exists.
func (c *cacheWrap) Has(key []byte) (bool, error) {
	if e, ok := c.lookup(key); ok {
		return !e.deleted, nil
	}
	if c.parent == nil {
		return false, nil
	}
	return c.parent.Has(key)
}

func (c *cacheWrap) lookup(key []byte) (*entry, bool) {
	if key == nil {
		panic("nil key")
	}
	item := c.tree.Get(&entry{key: key})
	if item == nil {
		return nil, false
	}
	return item.(*entry), true
}

// entry is a btree item. A deleted entry hides the key of the parent store.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = (*entry)(nil)

func (e *entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(*entry).key) < 0
}
