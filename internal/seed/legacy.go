package seed

import (
	"fmt"

	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// LegacyEntropySize is the size of the data encoded by a 13-word phrase.
const LegacyEntropySize = 16

// LegacySeed is a 13-word seed. Its keys are expanded from 16 bytes of
// phrase entropy: spend = Hs(e), view = Hs(Keccak(e)).
type LegacySeed struct {
	base
	entropy [LegacyEntropySize]byte
}

// legacyKeys expands the phrase entropy into spend and view secrets.
func legacyKeys(e []byte) (spend, view types.Key) {
	first := crypto.Keccak256(e)
	defer first.Wipe()
	spend = crypto.Reduce32(first[:])
	second := crypto.Keccak256(first[:])
	defer second.Wipe()
	view = crypto.Reduce32(second[:])
	return spend, view
}

func decodeLegacy(data []byte, opts Options) (*LegacySeed, error) {
	if len(data) != LegacyEntropySize {
		return nil, fmt.Errorf("%w: %d bytes of legacy data", mnemonic.ErrInvalidSeed, len(data))
	}
	spend, view := legacyKeys(data)
	defer spend.Wipe()
	defer view.Wipe()

	b, err := newBase(types.SeedTypeLegacy, spend, view, opts)
	if err != nil {
		return nil, err
	}
	s := &LegacySeed{base: b}
	copy(s.entropy[:], data)
	return s, nil
}

// Phrase renders the 13-word phrase. Passwords are not supported.
func (s *LegacySeed) Phrase(lang *mnemonic.Language, password string) (string, error) {
	set, err := s.Indices(lang, password)
	if err != nil {
		return "", err
	}
	defer set.Wipe()
	lang, _ = languageFor(lang, types.SeedTypeLegacy)
	return mnemonic.Phrase(set.Values(), lang, types.SeedTypeLegacy)
}

// Indices returns the 13 word indices in lang.
func (s *LegacySeed) Indices(lang *mnemonic.Language, password string) (*indices.Set, error) {
	if password != "" {
		return nil, fmt.Errorf("%w: legacy", ErrPasswordUnsupported)
	}
	lang, err := languageFor(lang, types.SeedTypeLegacy)
	if err != nil {
		return nil, err
	}
	idx, err := mnemonic.Encode(s.entropy[:], lang)
	if err != nil {
		return nil, err
	}
	return indices.New(idx...), nil
}

// Wipe zeroes the entropy and the wallet keys.
func (s *LegacySeed) Wipe() {
	wipe(s.entropy[:])
	s.base.wipe()
}

// Release wipes the seed.
func (s *LegacySeed) Release() { s.Wipe() }
