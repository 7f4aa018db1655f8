package rpc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Klingon-tech/ots/internal/storage"
	"github.com/Klingon-tech/ots/pkg/types"
)

// SignLog is a persistent journal of the transaction sets signed by each
// jar seed. It never stores keys or signatures, only what was approved.
//
// Key layout (all under the "s/" prefix namespace):
//
//	Entry:    "e/<fingerprint>/<revTime8><digest8>" → JSON SignEntry
//	Metadata: "m/<fingerprint>"                     → JSON logMeta
//
// revTime is (math.MaxUint64 - unix seconds) encoded as 8 big-endian bytes,
// so ForEach iterates from newest to oldest.
type SignLog struct {
	db *storage.PrefixDB
}

// SignEntry records one signed transaction set.
type SignEntry struct {
	TxSet       string `json:"txset"`
	Fingerprint string `json:"fingerprint"`
	Network     string `json:"network"`
	AmountOut   string `json:"amount_out"`
	Fee         string `json:"fee"`
	Transfers   int    `json:"transfers"`
	SignedAt    int64  `json:"signed_at"`
}

// logMeta tracks per-seed totals.
type logMeta struct {
	LastSigned int64 `json:"last_signed"`
	Count      int   `json:"count"`
}

// NewSignLog creates a signing log backed by db.
// The log uses a "s/" prefix namespace to avoid collisions with other data.
func NewSignLog(db storage.DB) *SignLog {
	return &SignLog{db: storage.NewPrefixDB(db, []byte("s/"))}
}

func entryKeyPrefix(fingerprint string) []byte {
	return []byte(fmt.Sprintf("e/%s/", fingerprint))
}

func entryKey(fingerprint string, signedAt int64, digest types.Key) []byte {
	prefix := entryKeyPrefix(fingerprint)
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], ^uint64(signedAt))
	copy(buf[8:], digest[:8])
	return append(prefix, buf[:]...)
}

func metaKey(fingerprint string) []byte {
	return []byte(fmt.Sprintf("m/%s", fingerprint))
}

// Meta returns the log metadata of a seed.
func (l *SignLog) Meta(fingerprint string) (logMeta, error) {
	data, err := l.db.Get(metaKey(fingerprint))
	if err != nil {
		return logMeta{}, nil // Not found = empty log.
	}
	var meta logMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return logMeta{}, fmt.Errorf("corrupt log meta: %w", err)
	}
	return meta, nil
}

func (l *SignLog) setMeta(fingerprint string, meta logMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return l.db.Put(metaKey(fingerprint), data)
}

// Record appends an entry. digest identifies the unsigned set.
func (l *SignLog) Record(e SignEntry, digest types.Key) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	key := entryKey(e.Fingerprint, e.SignedAt, digest)
	existed, err := l.db.Has(key)
	if err != nil {
		return err
	}
	if err := l.db.Put(key, data); err != nil {
		return fmt.Errorf("put entry: %w", err)
	}

	meta, err := l.Meta(e.Fingerprint)
	if err != nil {
		return err
	}
	if !existed {
		meta.Count++
	}
	if e.SignedAt > meta.LastSigned {
		meta.LastSigned = e.SignedAt
	}
	return l.setMeta(e.Fingerprint, meta)
}

// Query retrieves paginated entries of a seed, newest first, with the
// total count.
func (l *SignLog) Query(fingerprint string, limit, offset int) ([]SignEntry, int, error) {
	type kv struct {
		key   string
		value []byte
	}
	var all []kv

	err := l.db.ForEach(entryKeyPrefix(fingerprint), func(key, value []byte) error {
		all = append(all, kv{key: string(key), value: value})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	// MemoryDB iterates in map order.
	sort.Slice(all, func(i, j int) bool {
		return all[i].key < all[j].key
	})

	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []SignEntry{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	entries := make([]SignEntry, 0, end-offset)
	for _, kv := range all[offset:end] {
		var e SignEntry
		if err := json.Unmarshal(kv.value, &e); err != nil {
			continue // Skip corrupt entries.
		}
		entries = append(entries, e)
	}
	return entries, total, nil
}

// Clear removes all entries of a seed.
func (l *SignLog) Clear(fingerprint string) error {
	keys, err := l.db.Keys(entryKeyPrefix(fingerprint))
	if err != nil {
		return err
	}
	batch := l.db.NewBatch()
	for _, k := range append(keys, metaKey(fingerprint)) {
		if err := batch.Delete(k); err != nil {
			return err
		}
	}
	return batch.Commit()
}
