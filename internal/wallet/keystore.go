package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Klingon-tech/ots/internal/storage"
	"github.com/Klingon-tech/ots/pkg/crypto"
)

// ErrRecordNotFound is returned for unknown keystore names.
var ErrRecordNotFound = errors.New("keystore record not found")

var recordPrefix = []byte("seed/")

// record is the stored form of an encrypted secret. Only the name, kind
// and position are readable without the password.
type record struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Position  int       `json:"position"`
	Encrypted []byte    `json:"encrypted"`
}

// Entry is the public metadata of a stored secret.
type Entry struct {
	Name      string
	Kind      string
	Position  int
	CreatedAt time.Time
}

// Item is a secret to store. Secret is serialized by the caller.
type Item struct {
	Name   string
	Kind   string
	Secret []byte
}

// Keystore keeps password-encrypted secrets in a storage.DB. Record keys
// are the BLAKE3 hash of the name.
type Keystore struct {
	db *storage.PrefixDB
}

// NewKeystore creates a keystore in db.
func NewKeystore(db storage.DB) *Keystore {
	return &Keystore{db: storage.NewPrefixDB(db, recordPrefix)}
}

func recordKey(name string) []byte {
	h := crypto.Hash([]byte(name))
	return h[:]
}

func (ks *Keystore) seal(it Item, pos int, password []byte, params EncryptionParams) ([]byte, error) {
	encrypted, err := Encrypt(it.Secret, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt %q: %w", it.Name, err)
	}
	data, err := json.Marshal(record{
		Version:   1,
		CreatedAt: time.Now().UTC(),
		Name:      it.Name,
		Kind:      it.Kind,
		Position:  pos,
		Encrypted: encrypted,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// Create stores a new secret. It fails if the name is taken.
func (ks *Keystore) Create(it Item, password []byte, params EncryptionParams) error {
	key := recordKey(it.Name)
	if ok, err := ks.db.Has(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("record %q already exists", it.Name)
	}
	entries, err := ks.List()
	if err != nil {
		return err
	}
	data, err := ks.seal(it, len(entries), password, params)
	if err != nil {
		return err
	}
	return ks.db.Put(key, data)
}

// Load decrypts the secret stored under name.
func (ks *Keystore) Load(name string, password []byte) ([]byte, error) {
	rec, err := ks.read(recordKey(name))
	if err != nil {
		return nil, err
	}
	secret, err := Decrypt(rec.Encrypted, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt %q: %w", name, err)
	}
	return secret, nil
}

// List returns the metadata of every record in position order.
func (ks *Keystore) List() ([]Entry, error) {
	var out []Entry
	err := ks.db.ForEach(nil, func(_, value []byte) error {
		rec, err := parseRecord(value)
		if err != nil {
			return err
		}
		out = append(out, Entry{Name: rec.Name, Kind: rec.Kind, Position: rec.Position, CreatedAt: rec.CreatedAt})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// Delete removes the record stored under name.
func (ks *Keystore) Delete(name string) error {
	key := recordKey(name)
	if ok, err := ks.db.Has(key); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, name)
	}
	return ks.db.Delete(key)
}

// ReplaceAll atomically replaces the keystore content with items, in order.
// Names must be unique.
func (ks *Keystore) ReplaceAll(items []Item, password []byte, params EncryptionParams) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.Name] {
			return fmt.Errorf("duplicate record name %q", it.Name)
		}
		seen[it.Name] = true
	}

	old, err := ks.db.Keys(nil)
	if err != nil {
		return err
	}

	b := ks.db.NewBatch()
	for _, key := range old {
		if err := b.Delete(key); err != nil {
			return err
		}
	}
	for i, it := range items {
		data, err := ks.seal(it, i, password, params)
		if err != nil {
			return err
		}
		if err := b.Put(recordKey(it.Name), data); err != nil {
			return err
		}
	}
	return b.Commit()
}

// LoadAll decrypts every record in position order.
func (ks *Keystore) LoadAll(password []byte) ([]Item, error) {
	entries, err := ks.List()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		secret, err := ks.Load(e.Name, password)
		if err != nil {
			for _, it := range items {
				wipeBytes(it.Secret)
			}
			return nil, err
		}
		items = append(items, Item{Name: e.Name, Kind: e.Kind, Secret: secret})
	}
	return items, nil
}

func (ks *Keystore) read(key []byte) (*record, error) {
	data, err := ks.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return parseRecord(data)
}

func parseRecord(data []byte) (*record, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if rec.Version != 1 {
		return nil, fmt.Errorf("unsupported record version: %d", rec.Version)
	}
	return &rec, nil
}

func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
