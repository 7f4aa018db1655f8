package seed

import (
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/ots/internal/chain"
	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/polyseed"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// ErrPasswordRequired is returned when an encrypted Polyseed is decoded
// without a password.
var ErrPasswordRequired = errors.New("polyseed is encrypted, password required")

// Polyseed is a 16-word seed carrying its own creation date. The data is
// held decrypted; a password is only applied when rendering.
type Polyseed struct {
	base
	data *polyseed.Data
}

// now is replaced in tests.
var now = time.Now

// CreatePolyseed builds a Polyseed from 19 random bytes. The creation
// time comes from opts (height or timestamp) or defaults to now; it is
// stored at the one-month resolution of the phrase.
func CreatePolyseed(random []byte, opts Options) (*Polyseed, error) {
	if len(random) != polyseed.SecretSize {
		return nil, fmt.Errorf("%w: polyseed needs %d random bytes, got %d", ErrInvalidInput, polyseed.SecretSize, len(random))
	}
	_, ts, err := chain.Resolve(opts.Height, opts.Timestamp, opts.Network)
	if err != nil {
		return nil, err
	}
	if ts == 0 {
		ts = uint64(now().Unix())
	}
	d, err := polyseed.New(random, ts, 0)
	if err != nil {
		return nil, err
	}
	var offset types.Key
	if opts.Passphrase != "" {
		offset = PassphraseOffset(opts.Passphrase)
	}
	return newPolyseed(d, offset, opts.Network)
}

// GeneratePolyseed creates a Polyseed from fresh randomness that passed gate.
func GeneratePolyseed(gate entropy.Gate, opts Options) (*Polyseed, error) {
	random, err := gate.Random(polyseed.SecretSize)
	if err != nil {
		return nil, err
	}
	defer wipe(random)
	s, err := CreatePolyseed(random, opts)
	if err != nil {
		return nil, err
	}
	log.Seed.Debug().Str("fingerprint", s.Fingerprint()).Str("type", "polyseed").Msg("Seed generated")
	return s, nil
}

// decodePolyseed takes ownership of d. Height and timestamp options are
// ignored because the phrase carries its own date.
func decodePolyseed(d *polyseed.Data, opts Options) (*Polyseed, error) {
	if d.Encrypted() {
		if opts.Password == "" {
			d.Wipe()
			return nil, ErrPasswordRequired
		}
		if err := d.Decrypt(opts.Password); err != nil {
			d.Wipe()
			return nil, err
		}
	}
	var offset types.Key
	if opts.Passphrase != "" {
		offset = PassphraseOffset(opts.Passphrase)
	}
	return newPolyseed(d, offset, opts.Network)
}

func newPolyseed(d *polyseed.Data, offset types.Key, network types.Network) (*Polyseed, error) {
	spend := d.SpendKey()
	defer spend.Wipe()
	view := crypto.ViewFromSpend(spend)
	defer view.Wipe()

	ts := d.Timestamp()
	b, err := newBaseAt(types.SeedTypePolyseed, spend, view, chain.HeightFromTimestamp(ts, network), ts, offset, network)
	if err != nil {
		d.Wipe()
		return nil, err
	}
	return &Polyseed{base: b, data: d}, nil
}

func (s *Polyseed) rendered(password string) *polyseed.Data {
	d := *s.data
	if password != "" {
		d.Crypt(password)
	}
	return &d
}

// Phrase renders the 16-word phrase, encrypted when password is set.
func (s *Polyseed) Phrase(lang *mnemonic.Language, password string) (string, error) {
	lang, err := languageFor(lang, types.SeedTypePolyseed)
	if err != nil {
		return "", err
	}
	d := s.rendered(password)
	defer d.Wipe()
	return d.Phrase(lang, polyseed.CoinMonero)
}

// Indices returns the 16 word indices. They do not depend on lang.
func (s *Polyseed) Indices(_ *mnemonic.Language, password string) (*indices.Set, error) {
	d := s.rendered(password)
	defer d.Wipe()
	return indices.New(d.Indices(polyseed.CoinMonero)...), nil
}

// ToMonero converts the seed into the 25-word seed of the same wallet.
// The passphrase offset and the creation date carry over.
func (s *Polyseed) ToMonero() (*MoneroSeed, error) {
	spend := s.data.SpendKey()
	defer spend.Wipe()
	return restoreMonero(spend, s.height, s.timestamp, s.offset, s.network)
}

// Wipe zeroes the seed data and the wallet keys.
func (s *Polyseed) Wipe() {
	if s.data != nil {
		s.data.Wipe()
	}
	s.base.wipe()
}

// Release wipes the seed.
func (s *Polyseed) Release() { s.Wipe() }
