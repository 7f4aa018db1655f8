package seed

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/polyseed"
	"github.com/Klingon-tech/ots/pkg/types"
)

// KindForWords returns the seed kind of a phrase with n words. Monero and
// Legacy phrases may omit their checksum word.
func KindForWords(n int) (types.SeedType, error) {
	switch n {
	case types.MoneroSeedWords, types.MoneroSeedWords - 1:
		return types.SeedTypeMonero, nil
	case types.LegacySeedWords, types.LegacySeedWords - 1:
		return types.SeedTypeLegacy, nil
	case types.PolyseedWords:
		return types.SeedTypePolyseed, nil
	}
	return 0, fmt.Errorf("%w: no seed kind has %d words", mnemonic.ErrInvalidSeed, n)
}

// DecodeAny decodes a phrase whose kind is implied by its word count.
func DecodeAny(phrase string, opts Options) (Seed, error) {
	kind, err := KindForWords(len(mnemonic.Fields(phrase)))
	if err != nil {
		return nil, err
	}
	return Decode(phrase, kind, opts)
}

// Decode decodes a phrase of the given kind. Without opts.Language every
// language that supports the kind is tried and the first whose checksum
// validates wins; see Options.Strict.
func Decode(phrase string, kind types.SeedType, opts Options) (Seed, error) {
	words := mnemonic.Fields(phrase)
	if n := kind.WordCount(); n == 0 {
		return nil, fmt.Errorf("%w: unknown seed type %s", mnemonic.ErrInvalidSeed, kind)
	}
	match, err := detect(kind, opts, func(lang *mnemonic.Language) ([]uint16, error) {
		return phraseIndices(words, kind, lang)
	})
	if err != nil {
		return nil, err
	}
	defer wipe16(match.indices)
	return fromIndices(match.indices, kind, match.lang, opts)
}

// DecodeIndices decodes a word-index set of the given kind. Monero and
// Legacy checksums depend on the language, so the same detection rules
// as Decode apply.
func DecodeIndices(set *indices.Set, kind types.SeedType, opts Options) (Seed, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil index set", ErrInvalidInput)
	}
	values := set.Values()
	defer wipe16(values)
	if len(values) != kind.WordCount() {
		return nil, fmt.Errorf("%w: %d indices, want %d", mnemonic.ErrInvalidSeed, len(values), kind.WordCount())
	}
	if kind == types.SeedTypePolyseed && opts.Language == nil {
		// Polyseed indices mean the same in every language.
		lang, err := languageFor(nil, kind)
		if err != nil {
			return nil, err
		}
		opts.Language = lang
	}
	match, err := detect(kind, opts, func(lang *mnemonic.Language) ([]uint16, error) {
		if _, err := dataOf(values, kind, lang); err != nil {
			return nil, err
		}
		return append([]uint16(nil), values...), nil
	})
	if err != nil {
		return nil, err
	}
	defer wipe16(match.indices)
	return fromIndices(match.indices, kind, match.lang, opts)
}

// DetectLanguages returns every language in which phrase is a valid seed
// of the given kind.
func DetectLanguages(phrase string, kind types.SeedType) []*mnemonic.Language {
	words := mnemonic.Fields(phrase)
	var out []*mnemonic.Language
	for _, lang := range mnemonic.ForKind(kind) {
		idx, err := phraseIndices(words, kind, lang)
		if err != nil {
			continue
		}
		data, err := dataOf(idx, kind, lang)
		wipe16(idx)
		if err != nil {
			continue
		}
		wipe(data)
		out = append(out, lang)
	}
	return out
}

type match struct {
	lang    *mnemonic.Language
	indices []uint16
}

// detect runs resolve for opts.Language, or for every language of kind,
// and returns the first language whose indices carry a valid seed.
func detect(kind types.SeedType, opts Options, resolve func(*mnemonic.Language) ([]uint16, error)) (match, error) {
	if opts.Language != nil {
		lang, err := languageFor(opts.Language, kind)
		if err != nil {
			return match{}, err
		}
		idx, err := resolve(lang)
		if err != nil {
			return match{}, err
		}
		return match{lang: lang, indices: idx}, nil
	}

	var (
		first    match
		firstKey string
		found    bool
		lastErr  error
		others   []string
	)
	for _, lang := range mnemonic.ForKind(kind) {
		idx, err := resolve(lang)
		if err == nil {
			var data []byte
			data, err = dataOf(idx, kind, lang)
			if err == nil {
				key := string(data)
				wipe(data)
				if !found {
					first, firstKey, found = match{lang: lang, indices: idx}, key, true
					continue
				}
				wipe16(idx)
				if key != firstKey {
					others = append(others, lang.Code)
				}
				continue
			}
			wipe16(idx)
		}
		lastErr = err
	}
	if !found {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no language matches", mnemonic.ErrInvalidSeed)
		}
		return match{}, lastErr
	}
	if len(others) > 0 {
		if opts.Strict {
			wipe16(first.indices)
			return match{}, fmt.Errorf("%w: %s and %s", ErrAmbiguousPhrase, first.lang.Code, strings.Join(others, ", "))
		}
		log.Seed.Warn().
			Str("type", kind.String()).
			Str("language", first.lang.Code).
			Strs("also_valid", others).
			Msg("Phrase is valid in several languages, using the first match")
	}
	return first, nil
}

// phraseIndices resolves words against lang. Monero and Legacy phrases
// missing their checksum word get it appended.
func phraseIndices(words []string, kind types.SeedType, lang *mnemonic.Language) ([]uint16, error) {
	if !lang.Supports(kind) {
		return nil, fmt.Errorf("%w: %s has no %s table", mnemonic.ErrInvalidSeed, lang.Code, kind)
	}
	n := kind.WordCount()
	switch kind {
	case types.SeedTypePolyseed:
		if len(words) != n {
			return nil, fmt.Errorf("%w: %d words, want %d", mnemonic.ErrInvalidSeed, len(words), n)
		}
		d, idx, err := polyseed.Decode(strings.Join(words, " "), lang, polyseed.CoinMonero)
		if err != nil {
			return nil, err
		}
		d.Wipe()
		return idx, nil

	default:
		switch len(words) {
		case n:
			data, idx, err := mnemonic.DecodeWords(words, lang)
			if err != nil {
				return nil, err
			}
			wipe(data)
			return idx, nil
		case n - 1:
			idx := make([]uint16, 0, n)
			for _, w := range words {
				c := lang.Candidates(kind, w)
				if len(c) != 1 {
					return nil, fmt.Errorf("%w: word %q is unknown or ambiguous in %s", mnemonic.ErrInvalidSeed, w, lang.Code)
				}
				idx = append(idx, c[0])
			}
			sum, err := mnemonic.Checksum(idx, lang)
			if err != nil {
				return nil, err
			}
			return append(idx, sum), nil
		}
		return nil, fmt.Errorf("%w: %d words, want %d", mnemonic.ErrInvalidSeed, len(words), n)
	}
}

// dataOf validates idx and returns the language-independent secret it
// encodes. Callers wipe the result.
func dataOf(idx []uint16, kind types.SeedType, lang *mnemonic.Language) ([]byte, error) {
	if len(idx) != kind.WordCount() {
		return nil, fmt.Errorf("%w: %d indices, want %d", mnemonic.ErrInvalidSeed, len(idx), kind.WordCount())
	}
	if kind == types.SeedTypePolyseed {
		d, err := polyseed.FromIndices(idx, polyseed.CoinMonero)
		if err != nil {
			return nil, err
		}
		defer d.Wipe()
		out := make([]byte, 0, polyseed.SecretSize+3)
		out = append(out, d.Secret[:]...)
		return append(out, byte(d.Birthday), byte(d.Birthday>>8), d.Features), nil
	}
	return mnemonic.Decode(idx, lang)
}

func fromIndices(idx []uint16, kind types.SeedType, lang *mnemonic.Language, opts Options) (Seed, error) {
	if kind == types.SeedTypePolyseed {
		d, err := polyseed.FromIndices(idx, polyseed.CoinMonero)
		if err != nil {
			return nil, err
		}
		return decodePolyseed(d, opts)
	}
	if opts.Password != "" {
		return nil, fmt.Errorf("%w: %s", ErrPasswordUnsupported, kind)
	}
	data, err := mnemonic.Decode(idx, lang)
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	if kind == types.SeedTypeLegacy {
		return decodeLegacy(data, opts)
	}
	return decodeMonero(data, opts)
}

func wipe16(v []uint16) {
	for i := range v {
		v[i] = 0
	}
}
