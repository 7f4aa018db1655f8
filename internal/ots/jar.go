package ots

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/types"
)

type entry struct {
	seed seed.Seed
	name string
}

// SeedJar holds decoded seeds. A seed in the jar is owned by the jar;
// callers get reference handles and must transfer a seed out to own it
// again. Fingerprints and non-empty names are unique within a jar.
type SeedJar struct {
	mu      sync.Mutex
	entries []*entry
}

// NewSeedJar creates an empty jar.
func NewSeedJar() *SeedJar {
	return &SeedJar{}
}

// JarItem is a snapshot of the public data of a jar entry.
type JarItem struct {
	Name        string         `json:"name"`
	Fingerprint string         `json:"fingerprint"`
	Address     string         `json:"address"`
	SeedType    types.SeedType `json:"seed_type"`
	IsLegacy    bool           `json:"is_legacy"`
	Network     types.Network  `json:"network"`
	Height      uint64         `json:"height"`
	Timestamp   uint64         `json:"timestamp"`
}

func (e *entry) item() JarItem {
	return JarItem{
		Name:        e.name,
		Fingerprint: e.seed.Fingerprint(),
		Address:     e.seed.Address().String(),
		SeedType:    e.seed.Type(),
		IsLegacy:    e.seed.IsLegacy(),
		Network:     e.seed.Network(),
		Height:      e.seed.Height(),
		Timestamp:   e.seed.Timestamp(),
	}
}

// conflict reports why s cannot join the jar under name. Callers hold mu.
func (j *SeedJar) conflict(s seed.Seed, name string) error {
	fp := s.Fingerprint()
	for _, e := range j.entries {
		if e.seed == s {
			return errorf(ErrInvalidHandle, "seed is already in the jar")
		}
		if e.seed.Fingerprint() == fp {
			return errorf(ErrInvalidInput, "a seed with fingerprint %s is already in the jar", fp)
		}
		if name != "" && e.name == name {
			return errorf(ErrInvalidInput, "a seed named %q is already in the jar", name)
		}
	}
	return nil
}

// Add moves s into the jar and returns a reference handle to it. On error
// the caller keeps ownership of s.
func (j *SeedJar) Add(s seed.Seed, name string) (*Handle, error) {
	if s == nil {
		return nil, errorf(ErrInvalidHandle, "nil seed")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.conflict(s, name); err != nil {
		return nil, err
	}
	j.entries = append(j.entries, &entry{seed: s, name: name})
	log.Jar.Debug().Str("fingerprint", s.Fingerprint()).Str("name", name).Msg("Seed added")
	return Ref(s), nil
}

// TransferIn moves the seed held by an owning handle into the jar. The
// handle is emptied and a reference handle is returned.
func (j *SeedJar) TransferIn(h *Handle, name string) (*Handle, error) {
	s, err := As[seed.Seed](h)
	if err != nil {
		return nil, err
	}
	if h.IsReference() {
		return nil, errorf(ErrInvalidHandle, "reference handles cannot transfer ownership")
	}
	ref, err := j.Add(s, name)
	if err != nil {
		return nil, err
	}
	h.take()
	return ref, nil
}

// detach removes entry i and returns its seed. Callers hold mu.
func (j *SeedJar) detach(i int) seed.Seed {
	e := j.entries[i]
	j.entries = append(j.entries[:i], j.entries[i+1:]...)
	return e.seed
}

func (j *SeedJar) indexOfSeed(s seed.Seed) int {
	for i, e := range j.entries {
		if e.seed == s {
			return i
		}
	}
	return -1
}

func (j *SeedJar) indexOfName(name string) int {
	for i, e := range j.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

func (j *SeedJar) indexOfFingerprint(fp string) int {
	fp = strings.ToUpper(strings.TrimSpace(fp))
	for i, e := range j.entries {
		if e.seed.Fingerprint() == fp {
			return i
		}
	}
	return -1
}

func (j *SeedJar) indexOfAddress(addr string) int {
	a, err := address.Parse(addr)
	if err != nil {
		return -1
	}
	if a.IsIntegrated() {
		if a, err = a.Base(); err != nil {
			return -1
		}
	}
	for i, e := range j.entries {
		if e.seed.Address().Equal(a) {
			return i
		}
	}
	return -1
}

// selector resolves to an entry position or -1. Callers hold mu.
type selector func(j *SeedJar) (int, string)

func byIndex(i int) selector {
	return func(j *SeedJar) (int, string) {
		if i < 0 || i >= len(j.entries) {
			return -1, fmt.Sprintf("index %d", i)
		}
		return i, ""
	}
}

func byName(name string) selector {
	return func(j *SeedJar) (int, string) { return j.indexOfName(name), fmt.Sprintf("name %q", name) }
}

func byFingerprint(fp string) selector {
	return func(j *SeedJar) (int, string) { return j.indexOfFingerprint(fp), "fingerprint " + fp }
}

func byAddress(addr string) selector {
	return func(j *SeedJar) (int, string) { return j.indexOfAddress(addr), "address " + addr }
}

func byHandle(h *Handle) selector {
	return func(j *SeedJar) (int, string) {
		s, err := As[seed.Seed](h)
		if err != nil {
			return -1, "handle"
		}
		return j.indexOfSeed(s), "handle"
	}
}

func (j *SeedJar) resolve(sel selector) (int, error) {
	i, what := sel(j)
	if i < 0 {
		return -1, errorf(ErrNotFound, "no seed in the jar for %s", what)
	}
	return i, nil
}

func (j *SeedJar) transferOut(sel selector) (*Handle, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, err := j.resolve(sel)
	if err != nil {
		return nil, err
	}
	s := j.detach(i)
	log.Jar.Debug().Str("fingerprint", s.Fingerprint()).Msg("Seed transferred out")
	return Own(s), nil
}

// TransferOut removes the seed viewed by h from the jar and returns an
// owning handle. h is detached.
func (j *SeedJar) TransferOut(h *Handle) (*Handle, error) {
	out, err := j.transferOut(byHandle(h))
	if err != nil {
		return nil, err
	}
	h.Release()
	return out, nil
}

// TransferOutForIndex removes entry i and returns it as an owning handle.
func (j *SeedJar) TransferOutForIndex(i int) (*Handle, error) { return j.transferOut(byIndex(i)) }

// TransferOutForName removes the seed named name.
func (j *SeedJar) TransferOutForName(name string) (*Handle, error) {
	return j.transferOut(byName(name))
}

// TransferOutForFingerprint removes the seed with fingerprint fp.
func (j *SeedJar) TransferOutForFingerprint(fp string) (*Handle, error) {
	return j.transferOut(byFingerprint(fp))
}

// TransferOutForAddress removes the seed whose primary address is addr.
func (j *SeedJar) TransferOutForAddress(addr string) (*Handle, error) {
	return j.transferOut(byAddress(addr))
}

func (j *SeedJar) purge(sel selector) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, err := j.resolve(sel)
	if err != nil {
		return err
	}
	s := j.detach(i)
	log.Jar.Debug().Str("fingerprint", s.Fingerprint()).Msg("Seed purged")
	s.Release()
	return nil
}

// Remove wipes the seed viewed by h and drops it from the jar.
func (j *SeedJar) Remove(h *Handle) error {
	if err := j.purge(byHandle(h)); err != nil {
		return err
	}
	h.Release()
	return nil
}

// PurgeForIndex wipes entry i.
func (j *SeedJar) PurgeForIndex(i int) error { return j.purge(byIndex(i)) }

// PurgeForName wipes the seed named name.
func (j *SeedJar) PurgeForName(name string) error { return j.purge(byName(name)) }

// PurgeForFingerprint wipes the seed with fingerprint fp.
func (j *SeedJar) PurgeForFingerprint(fp string) error { return j.purge(byFingerprint(fp)) }

// PurgeForAddress wipes the seed whose primary address is addr.
func (j *SeedJar) PurgeForAddress(addr string) error { return j.purge(byAddress(addr)) }

// Clear wipes every seed in the jar.
func (j *SeedJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range j.entries {
		e.seed.Release()
	}
	j.entries = nil
}

// Count returns the number of seeds in the jar.
func (j *SeedJar) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Seeds returns references to every seed, in insertion order.
func (j *SeedJar) Seeds() *Array {
	j.mu.Lock()
	defer j.mu.Unlock()
	seeds := make([]seed.Seed, len(j.entries))
	for i, e := range j.entries {
		seeds[i] = e.seed
	}
	return RefArray(seeds)
}

func (j *SeedJar) lookup(sel selector) (*Handle, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, err := j.resolve(sel)
	if err != nil {
		return nil, err
	}
	return Ref(j.entries[i].seed), nil
}

// ForIndex returns a reference to entry i.
func (j *SeedJar) ForIndex(i int) (*Handle, error) { return j.lookup(byIndex(i)) }

// ForName returns a reference to the seed named name.
func (j *SeedJar) ForName(name string) (*Handle, error) { return j.lookup(byName(name)) }

// ForFingerprint returns a reference to the seed with fingerprint fp.
func (j *SeedJar) ForFingerprint(fp string) (*Handle, error) { return j.lookup(byFingerprint(fp)) }

// ForAddress returns a reference to the seed whose primary address is addr.
// Integrated addresses match their base address.
func (j *SeedJar) ForAddress(addr string) (*Handle, error) { return j.lookup(byAddress(addr)) }

// Name returns the name of the seed viewed by h.
func (j *SeedJar) Name(h *Handle) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, err := j.resolve(byHandle(h))
	if err != nil {
		return "", err
	}
	return j.entries[i].name, nil
}

// Rename changes the name of the seed viewed by h.
func (j *SeedJar) Rename(h *Handle, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, err := j.resolve(byHandle(h))
	if err != nil {
		return err
	}
	if k := j.indexOfName(name); name != "" && k >= 0 && k != i {
		return errorf(ErrInvalidInput, "a seed named %q is already in the jar", name)
	}
	j.entries[i].name = name
	return nil
}

// Item returns a snapshot of entry i.
func (j *SeedJar) Item(i int) (JarItem, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.resolve(byIndex(i)); err != nil {
		return JarItem{}, err
	}
	return j.entries[i].item(), nil
}

// ItemWallet returns a reference to the wallet of entry i.
func (j *SeedJar) ItemWallet(i int) (*Handle, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.resolve(byIndex(i)); err != nil {
		return nil, err
	}
	return Ref(j.entries[i].seed.Wallet()), nil
}

// Items returns snapshots of every entry.
func (j *SeedJar) Items() []JarItem {
	j.mu.Lock()
	defer j.mu.Unlock()
	items := make([]JarItem, len(j.entries))
	for i, e := range j.entries {
		items[i] = e.item()
	}
	return items
}

// stored is the plaintext of one keystore record.
type stored struct {
	Name string          `json:"name"`
	Seed json.RawMessage `json:"seed"`
}

// Save replaces the content of ks with the jar's seeds, encrypted with
// password. Records are keyed by fingerprint.
func (j *SeedJar) Save(ks *wallet.Keystore, password []byte, params wallet.EncryptionParams) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	items := make([]wallet.Item, 0, len(j.entries))
	defer func() {
		for _, it := range items {
			wipe(it.Secret)
		}
	}()
	for _, e := range j.entries {
		raw, err := seed.Marshal(e.seed)
		if err != nil {
			return err
		}
		data, err := json.Marshal(stored{Name: e.name, Seed: raw})
		wipe(raw)
		if err != nil {
			return fmt.Errorf("encode jar entry: %w", err)
		}
		items = append(items, wallet.Item{
			Name:   e.seed.Fingerprint(),
			Kind:   e.seed.Type().String(),
			Secret: data,
		})
	}
	if err := ks.ReplaceAll(items, password, params); err != nil {
		return err
	}
	log.Jar.Info().Int("seeds", len(items)).Msg("Jar saved")
	return nil
}

// Load decrypts ks and adds its seeds to the jar. Seeds already present are
// skipped, as are stored names that collide with a present name. It
// returns the number of seeds added.
func (j *SeedJar) Load(ks *wallet.Keystore, password []byte) (int, error) {
	items, err := ks.LoadAll(password)
	if err != nil {
		return 0, err
	}
	defer func() {
		for _, it := range items {
			wipe(it.Secret)
		}
	}()

	loaded := make([]*entry, 0, len(items))
	for _, it := range items {
		var rec stored
		if err := json.Unmarshal(it.Secret, &rec); err != nil {
			releaseEntries(loaded)
			return 0, fmt.Errorf("decode jar entry %s: %w", it.Name, err)
		}
		s, err := seed.Unmarshal(rec.Seed)
		wipe(rec.Seed)
		if err != nil {
			releaseEntries(loaded)
			return 0, fmt.Errorf("restore jar entry %s: %w", it.Name, err)
		}
		loaded = append(loaded, &entry{seed: s, name: rec.Name})
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	added := 0
	for _, e := range loaded {
		if err := j.conflict(e.seed, e.name); err != nil {
			log.Jar.Warn().Str("fingerprint", e.seed.Fingerprint()).Err(err).Msg("Skipping stored seed")
			e.seed.Release()
			continue
		}
		j.entries = append(j.entries, e)
		added++
	}
	log.Jar.Info().Int("seeds", added).Msg("Jar loaded")
	return added, nil
}

func releaseEntries(entries []*entry) {
	for _, e := range entries {
		e.seed.Release()
	}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
