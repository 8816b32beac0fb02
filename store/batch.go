package store

// NonAtomicBatch records changes and applies them one by one on Write. A
// failure part way leaves the output partially updated, so it may only be
// used on top of in-memory stores.
type NonAtomicBatch struct {
	out SetDeleter
	ops []op
}

var _ Batch = (*NonAtomicBatch)(nil)

type op struct {
	key   []byte
	value []byte
	del   bool
}

// NewNonAtomicBatch returns an empty batch writing to out.
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

// Set records a write.
func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, op{key: key, value: value})
	return nil
}

// Delete records a removal.
func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: key, del: true})
	return nil
}

// Len returns the number of changes waiting for Write.
func (b *NonAtomicBatch) Len() int {
	return len(b.ops)
}

// Write applies all recorded changes in order and resets the batch.
func (b *NonAtomicBatch) Write() error {
	for _, o := range b.ops {
		var err error
		if o.del {
			err = b.out.Delete(o.key)
		} else {
			err = b.out.Set(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}
