package seed

import (
	"fmt"

	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// MoneroKeySize is the size of a Monero seed secret.
const MoneroKeySize = 32

// MoneroSeed is a 25-word seed whose secret is the spend key itself.
type MoneroSeed struct {
	base
	secret types.Key
}

// Create builds a Monero seed from 32 bytes of key material. The bytes
// are reduced modulo the group order to give the spend key.
func Create(key []byte, opts Options) (*MoneroSeed, error) {
	if len(key) != MoneroKeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidInput, MoneroKeySize, len(key))
	}
	secret := crypto.Reduce32(key)
	view := crypto.ViewFromSpend(secret)
	defer view.Wipe()

	b, err := newBase(types.SeedTypeMonero, secret, view, opts)
	if err != nil {
		secret.Wipe()
		return nil, err
	}
	return &MoneroSeed{base: b, secret: secret}, nil
}

// Generate creates a Monero seed from fresh randomness that passed gate.
func Generate(gate entropy.Gate, opts Options) (*MoneroSeed, error) {
	random, err := gate.Random(MoneroKeySize)
	if err != nil {
		return nil, err
	}
	defer wipe(random)
	s, err := Create(random, opts)
	if err != nil {
		return nil, err
	}
	log.Seed.Debug().Str("fingerprint", s.Fingerprint()).Str("type", "monero").Msg("Seed generated")
	return s, nil
}

func decodeMonero(data []byte, opts Options) (*MoneroSeed, error) {
	if len(data) != MoneroKeySize {
		return nil, fmt.Errorf("%w: %d bytes of key data", mnemonic.ErrInvalidSeed, len(data))
	}
	return Create(data, opts)
}

// Phrase renders the 25-word phrase. Passwords are not supported.
func (s *MoneroSeed) Phrase(lang *mnemonic.Language, password string) (string, error) {
	set, err := s.Indices(lang, password)
	if err != nil {
		return "", err
	}
	defer set.Wipe()
	lang, _ = languageFor(lang, types.SeedTypeMonero)
	return mnemonic.Phrase(set.Values(), lang, types.SeedTypeMonero)
}

// Indices returns the 25 word indices in lang.
func (s *MoneroSeed) Indices(lang *mnemonic.Language, password string) (*indices.Set, error) {
	if password != "" {
		return nil, fmt.Errorf("%w: monero", ErrPasswordUnsupported)
	}
	lang, err := languageFor(lang, types.SeedTypeMonero)
	if err != nil {
		return nil, err
	}
	idx, err := mnemonic.Encode(s.secret[:], lang)
	if err != nil {
		return nil, err
	}
	return indices.New(idx...), nil
}

// Wipe zeroes the secret and the wallet keys.
func (s *MoneroSeed) Wipe() {
	s.secret.Wipe()
	s.base.wipe()
}

// Release wipes the seed.
func (s *MoneroSeed) Release() { s.Wipe() }
