package storage

// PrefixDB is a namespace inside a DB. Every key is stored under a fixed
// prefix, so the keystore and the signing journal share one badger
// directory without seeing each other's records.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns the namespace prefix of inner.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

func join(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	return append(append(out, prefix...), key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(join(p.prefix, key)) }
func (p *PrefixDB) Put(key, value []byte) error    { return p.inner.Put(join(p.prefix, key), value) }
func (p *PrefixDB) Delete(key []byte) error        { return p.inner.Delete(join(p.prefix, key)) }
func (p *PrefixDB) Has(key []byte) (bool, error)   { return p.inner.Has(join(p.prefix, key)) }

// ForEach iterates over the namespace keys starting with prefix. Keys are
// passed to fn without the namespace prefix.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(join(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Keys returns the namespace keys starting with prefix, in key order.
func (p *PrefixDB) Keys(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := p.ForEach(prefix, func(key, _ []byte) error {
		keys = append(keys, append([]byte(nil), key...))
		return nil
	})
	return keys, err
}

// Close does nothing; the inner DB is closed by its owner.
func (p *PrefixDB) Close() error { return nil }

// NewBatch returns a batch inside the namespace. It is atomic when the
// inner DB supports batches and applied write by write otherwise.
func (p *PrefixDB) NewBatch() Batch {
	if b, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: b.NewBatch(), prefix: p.prefix}
	}
	return &writeThroughBatch{db: p}
}

type prefixBatch struct {
	inner  Batch
	prefix []byte
}

func (b *prefixBatch) Put(key, value []byte) error { return b.inner.Put(join(b.prefix, key), value) }
func (b *prefixBatch) Delete(key []byte) error     { return b.inner.Delete(join(b.prefix, key)) }
func (b *prefixBatch) Commit() error               { return b.inner.Commit() }

// writeThroughBatch buffers operations until Commit.
type writeThroughBatch struct {
	db  DB
	ops []batchOp
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

func (b *writeThroughBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (b *writeThroughBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (b *writeThroughBatch) Commit() error {
	for _, op := range b.ops {
		var err error
		if op.delete {
			err = b.db.Delete(op.key)
		} else {
			err = b.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}
