package ots

import (
	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/pkg/types"
)

// GenerateSeed creates a seed of kind from gated randomness.
func (o *OTS) GenerateSeed(kind types.SeedType, p SeedParams) Result {
	return o.seedResult(seed.GenerateType(kind, o.settings.Gate(), o.options(p)))
}

// CreateMoneroSeed builds a Monero seed from a 32-byte key. The key is
// reduced to a valid scalar first.
func (o *OTS) CreateMoneroSeed(key []byte, p SeedParams) Result {
	return o.seedResult(seed.Create(key, o.options(p)))
}

// CreatePolyseed builds a Polyseed from 19 random bytes. A non-empty
// password encrypts the phrase rendering, not the derived keys.
func (o *OTS) CreatePolyseed(random []byte, p SeedParams) Result {
	opts := o.options(p)
	opts.Password = ""
	return o.seedResult(seed.CreatePolyseed(random, opts))
}

// DecodeSeed decodes a phrase of kind. Without a language every language
// of the kind is tried.
func (o *OTS) DecodeSeed(phrase string, kind types.SeedType, p SeedParams) Result {
	return o.seedResult(seed.Decode(phrase, kind, o.options(p)))
}

// DecodeAnySeed infers the kind from the word count and decodes.
func (o *OTS) DecodeAnySeed(phrase string, p SeedParams) Result {
	return o.seedResult(seed.DecodeAny(phrase, o.options(p)))
}

// DecodeSeedWithLanguageCode decodes a phrase in the language named by code.
func (o *OTS) DecodeSeedWithLanguageCode(phrase string, kind types.SeedType, code string, p SeedParams) Result {
	lang, err := mnemonic.FromCode(code)
	if err != nil {
		return Fail(err)
	}
	p.Language = lang
	return o.DecodeSeed(phrase, kind, p)
}

// DecodeSeedIndices decodes an index set held by h.
func (o *OTS) DecodeSeedIndices(h *Handle, kind types.SeedType, p SeedParams) Result {
	set, err := As[*indices.Set](h)
	if err != nil {
		return Fail(err)
	}
	return o.seedResult(seed.DecodeIndices(set, kind, o.options(p)))
}

// DetectLanguages lists every language in which phrase is a valid seed
// of kind.
func (o *OTS) DetectLanguages(phrase string, kind types.SeedType) Result {
	return ArrayResult(RefArray(seed.DetectLanguages(phrase, kind)))
}

// PolyseedToMonero converts a Polyseed into the equivalent Monero seed.
func (o *OTS) PolyseedToMonero(h *Handle) Result {
	p, err := As[*seed.Polyseed](h)
	if err != nil {
		return Fail(err)
	}
	m, err := p.ToMonero()
	if err != nil {
		return Fail(err)
	}
	return o.seedResult(m, nil)
}

// SeedPhrase renders the seed in lang, or in the default language of its
// kind. The result owns the phrase bytes.
func (o *OTS) SeedPhrase(h *Handle, lang *mnemonic.Language, password string) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	phrase, err := s.Phrase(o.language(s.Type(), lang), password)
	if err != nil {
		return Fail(err)
	}
	return SecretResult([]byte(phrase))
}

// SeedIndices returns the seed's word indices as an owned set.
func (o *OTS) SeedIndices(h *Handle, lang *mnemonic.Language, password string) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	set, err := s.Indices(o.language(s.Type(), lang), password)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(set))
}

// SeedFingerprint returns the fingerprint of the seed's primary address.
func (o *OTS) SeedFingerprint(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return StringResult(s.Fingerprint())
}

// SeedAddress returns the seed's primary address.
func (o *OTS) SeedAddress(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return StringResult(s.Address().String())
}

// SeedType returns the kind of the seed.
func (o *OTS) SeedType(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return SeedTypeResult(s.Type())
}

// SeedIsLegacy reports whether the seed is a Legacy seed.
func (o *OTS) SeedIsLegacy(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return BoolResult(s.IsLegacy())
}

// SeedNetwork returns the network of the seed.
func (o *OTS) SeedNetwork(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return NetworkResult(s.Network())
}

// SeedHeight returns the restore height.
func (o *OTS) SeedHeight(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return NumberResult(int64(s.Height()))
}

// SeedTimestamp returns the creation time.
func (o *OTS) SeedTimestamp(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return NumberResult(int64(s.Timestamp()))
}

// SeedWallet returns a reference to the seed's wallet. The seed keeps
// ownership.
func (o *OTS) SeedWallet(h *Handle) Result {
	s, err := seedOf(h)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Ref(s.Wallet()))
}

// SeedMerge merges the index sets of several seeds of one kind into a new
// seed. The inputs are left untouched.
func (o *OTS) SeedMerge(handles []*Handle, p SeedParams) Result {
	if len(handles) < 2 {
		return Fail(ErrTooFewSets)
	}
	var kind types.SeedType
	sets := make([]*indices.Set, 0, len(handles))
	defer func() {
		for _, set := range sets {
			set.Wipe()
		}
	}()
	for i, h := range handles {
		s, err := seedOf(h)
		if err != nil {
			return Fail(err)
		}
		if i == 0 {
			kind = s.Type()
		} else if s.Type() != kind {
			return Fail(errorf(ErrInvalidInput, "cannot merge %s with %s seeds", s.Type(), kind))
		}
		set, err := s.Indices(o.language(kind, p.Language), "")
		if err != nil {
			return Fail(err)
		}
		sets = append(sets, set)
	}
	return o.SeedMergeValues(sets, kind, p)
}

// SeedMergeValues merges index sets and decodes the result as a seed of
// kind, failing with MergeFailed when the sum is not a valid phrase.
func (o *OTS) SeedMergeValues(sets []*indices.Set, kind types.SeedType, p SeedParams) Result {
	opts := o.options(p)
	opts.Language = o.language(kind, p.Language)
	return o.seedResult(seed.Merge(sets, kind, opts))
}

// MergeSeedIndices merges index sets and re-seals the checksum, returning
// an owned set without decoding it.
func (o *OTS) MergeSeedIndices(sets []*indices.Set, kind types.SeedType, lang *mnemonic.Language) Result {
	set, err := seed.MergeIndices(sets, kind, o.language(kind, lang))
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(set))
}
