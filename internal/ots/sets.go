package ots

import (
	"crypto/rand"

	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/pkg/types"
)

// NewIndices returns an owned index set holding values.
func (o *OTS) NewIndices(values ...uint16) Result {
	return HandleResult(Own(indices.New(values...)))
}

// ParseIndices parses the numeric or hex text form of an index set.
func (o *OTS) ParseIndices(text, sep string, hex bool) Result {
	parse := indices.ParseNumeric
	if hex {
		parse = indices.ParseHex
	}
	set, err := parse(text, sep)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(set))
}

// IndicesText renders an index set in numeric or hex form.
func (o *OTS) IndicesText(h *Handle, sep string, hex bool) Result {
	set, err := As[*indices.Set](h)
	if err != nil {
		return Fail(err)
	}
	if hex {
		return SecretResult([]byte(set.Hex(sep)))
	}
	return SecretResult([]byte(set.Numeric(sep)))
}

// IndicesEqual compares two index sets.
func (o *OTS) IndicesEqual(a, b *Handle) Result {
	x, err := As[*indices.Set](a)
	if err != nil {
		return Fail(err)
	}
	y, err := As[*indices.Set](b)
	if err != nil {
		return Fail(err)
	}
	return BoolResult(x.Equal(y))
}

func setsOf(handles []*Handle) ([]*indices.Set, error) {
	sets := make([]*indices.Set, len(handles))
	for i, h := range handles {
		s, err := As[*indices.Set](h)
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}
	return sets, nil
}

// MergeIndices merges raw index sets modulo the word-table size of kind.
// Unlike MergeSeedIndices no checksum handling takes place.
func (o *OTS) MergeIndices(handles []*Handle, kind types.SeedType) Result {
	sets, err := setsOf(handles)
	if err != nil {
		return Fail(err)
	}
	merged, err := indices.Merge(sets, seed.Modulus(kind))
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(merged))
}

// MergeIndicesAndZero merges like MergeIndices, then zeroes every input
// and releases the owning handles among them.
func (o *OTS) MergeIndicesAndZero(handles []*Handle, kind types.SeedType) Result {
	sets, err := setsOf(handles)
	if err != nil {
		return Fail(err)
	}
	merged, err := indices.MergeAndZero(sets, seed.Modulus(kind))
	if err != nil {
		return Fail(err)
	}
	for _, h := range handles {
		if !h.IsReference() {
			h.Release()
		}
	}
	return HandleResult(Own(merged))
}

// MergeIndicesWithPassword merges a set with the indices derived from
// password.
func (o *OTS) MergeIndicesWithPassword(h *Handle, password string, kind types.SeedType) Result {
	set, err := As[*indices.Set](h)
	if err != nil {
		return Fail(err)
	}
	merged, err := indices.MergeWithPassword(set, password, seed.Modulus(kind))
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(merged))
}

// UnmergeIndicesWithPassword reverses MergeIndicesWithPassword.
func (o *OTS) UnmergeIndicesWithPassword(h *Handle, password string, kind types.SeedType) Result {
	set, err := As[*indices.Set](h)
	if err != nil {
		return Fail(err)
	}
	plain, err := indices.UnmergePassword(set, password, seed.Modulus(kind))
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(plain))
}

// SplitIndices splits a set into n random shares that merge back into it.
// The shares come from crypto/rand and are not entropy gated, since the
// last share is determined by the others.
func (o *OTS) SplitIndices(h *Handle, n int, kind types.SeedType) Result {
	set, err := As[*indices.Set](h)
	if err != nil {
		return Fail(err)
	}
	shares, err := indices.Split(set, n, seed.Modulus(kind), rand.Reader)
	if err != nil {
		return Fail(err)
	}
	return ArrayResult(OwnArray(shares))
}

// DifferenceIndices returns the share that makes shares merge into target.
func (o *OTS) DifferenceIndices(target *Handle, shares []*Handle, kind types.SeedType) Result {
	t, err := As[*indices.Set](target)
	if err != nil {
		return Fail(err)
	}
	sets, err := setsOf(shares)
	if err != nil {
		return Fail(err)
	}
	diff, err := indices.Difference(t, sets, seed.Modulus(kind))
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(diff))
}
