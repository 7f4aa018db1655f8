package seed

import (
	"fmt"

	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/polyseed"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Modulus returns the word-table size that index merging of kind works in.
func Modulus(kind types.SeedType) int {
	if kind.Family() == types.SeedTypePolyseed {
		return mnemonic.PolyseedTableSize
	}
	return mnemonic.MoneroTableSize
}

// Merge combines full phrase index sets of one kind into a new seed. The
// checksum word of every set is dropped, the data words are merged and
// the checksum is recomputed before decoding. A merged set that does not
// decode fails with ErrMergeFailed.
func Merge(sets []*indices.Set, kind types.SeedType, opts Options) (Seed, error) {
	merged, err := MergeIndices(sets, kind, opts.Language)
	if err != nil {
		return nil, err
	}
	defer merged.Wipe()
	s, err := DecodeIndices(merged, kind, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}
	return s, nil
}

// MergeIndices is Merge without the final decode. The result carries a
// valid checksum but its data words are not validated.
func MergeIndices(sets []*indices.Set, kind types.SeedType, lang *mnemonic.Language) (*indices.Set, error) {
	n := kind.WordCount()
	if n == 0 {
		return nil, fmt.Errorf("%w: unknown seed type %s", ErrInvalidInput, kind)
	}
	data := make([]*indices.Set, 0, len(sets))
	defer func() {
		for _, d := range data {
			d.Wipe()
		}
	}()
	for i, s := range sets {
		if s == nil {
			return nil, fmt.Errorf("%w: set %d is nil", ErrInvalidInput, i)
		}
		v := s.Values()
		if len(v) != n {
			wipe16(v)
			return nil, fmt.Errorf("%w: set %d has %d indices, want %d", indices.ErrLengthMismatch, i, len(v), n)
		}
		data = append(data, indices.New(stripChecksum(v, kind)...))
		wipe16(v)
	}

	merged, err := indices.Merge(data, Modulus(kind))
	if err != nil {
		return nil, err
	}
	defer merged.Wipe()
	values := merged.Values()
	defer wipe16(values)

	if kind == types.SeedTypePolyseed {
		full, err := polyseed.Seal(append([]uint16{0}, values...), polyseed.CoinMonero)
		if err != nil {
			return nil, err
		}
		defer wipe16(full)
		return indices.New(full...), nil
	}

	lang, err = languageFor(lang, kind)
	if err != nil {
		return nil, err
	}
	sum, err := mnemonic.Checksum(values, lang)
	if err != nil {
		return nil, err
	}
	return indices.New(append(values, sum)...), nil
}

// stripChecksum returns the data words of a full phrase. Polyseed keeps
// its checksum first, the electrum-style kinds keep it last.
func stripChecksum(v []uint16, kind types.SeedType) []uint16 {
	if kind == types.SeedTypePolyseed {
		return v[1:]
	}
	return v[:len(v)-1]
}
