// Package seed turns mnemonic phrases and raw secrets into seeds of the
// three supported kinds and derives their wallets.
//
// Seeds are immutable. Passphrase offsetting produces a different seed
// value; it never changes an existing one.
package seed

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/ots/internal/chain"
	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// offsetDomain prefixes the passphrase hash that offsets the spend key.
const offsetDomain = "OTS seed offset"

var (
	// ErrAmbiguousPhrase is returned in strict mode when a phrase decodes
	// to different secrets in more than one language.
	ErrAmbiguousPhrase = errors.New("phrase is valid in several languages")
	// ErrPasswordUnsupported is returned when a password is given for a
	// seed kind that cannot be encrypted.
	ErrPasswordUnsupported = errors.New("seed kind does not support passwords")
	// ErrMergeFailed is returned when merged indices are not a valid seed.
	ErrMergeFailed = errors.New("merged indices do not form a valid seed")
	// ErrInvalidInput is returned for raw secrets of the wrong size.
	ErrInvalidInput = errors.New("invalid seed input")
)

// Seed is decoded seed material of any kind.
type Seed interface {
	Type() types.SeedType
	IsLegacy() bool
	Network() types.Network
	Height() uint64
	Timestamp() uint64

	// Phrase renders the seed in lang. A non-empty password encrypts the
	// rendered Polyseed; other kinds reject it.
	Phrase(lang *mnemonic.Language, password string) (string, error)
	// Indices returns the phrase as word indices, with the same password
	// rules as Phrase. Monero and Legacy indices depend on lang through
	// the checksum word.
	Indices(lang *mnemonic.Language, password string) (*indices.Set, error)

	Fingerprint() string
	Address() address.Address
	Wallet() *wallet.Wallet

	// Wipe zeroes all secret material. The seed is unusable afterwards.
	Wipe()
	// Release is Wipe; it lets seeds be held by owning handles.
	Release()
}

// Options carries construction parameters shared by every seed kind.
// At most one of Height and Timestamp may be set; the other is estimated.
type Options struct {
	Network   types.Network
	Height    uint64
	Timestamp uint64

	// Language fixes the phrase language. When nil every language that
	// supports the seed kind is tried.
	Language *mnemonic.Language
	// Strict turns a phrase valid in several languages into
	// ErrAmbiguousPhrase instead of taking the first match.
	Strict bool

	// Password decrypts an encrypted Polyseed.
	Password string
	// Passphrase offsets the derived spend key.
	Passphrase string
}

// base holds what every seed kind derives: keys, wallet and birthday.
type base struct {
	kind      types.SeedType
	network   types.Network
	height    uint64
	timestamp uint64
	// offset is Hs(domain || passphrase), zero without a passphrase.
	offset types.Key
	wallet *wallet.Wallet
}

func newBase(kind types.SeedType, spend, view types.Key, opts Options) (base, error) {
	height, ts, err := chain.Resolve(opts.Height, opts.Timestamp, opts.Network)
	if err != nil {
		return base{}, err
	}
	var offset types.Key
	if opts.Passphrase != "" {
		offset = PassphraseOffset(opts.Passphrase)
	}
	return newBaseAt(kind, spend, view, height, ts, offset, opts.Network)
}

func newBaseAt(kind types.SeedType, spend, view types.Key, height, ts uint64, offset types.Key, network types.Network) (base, error) {
	if !offset.IsZero() {
		var err error
		spend, err = crypto.AddScalars(spend, offset)
		if err != nil {
			return base{}, fmt.Errorf("offset spend key: %w", err)
		}
		defer spend.Wipe()
		// The view key follows the offset spend key.
		view = crypto.ViewFromSpend(spend)
		defer view.Wipe()
	}
	w, err := wallet.NewWithViewKey(spend, view, height, network)
	if err != nil {
		return base{}, err
	}
	return base{kind: kind, network: network, height: height, timestamp: ts, offset: offset, wallet: w}, nil
}

// PassphraseOffset returns the scalar Hs("OTS seed offset" || passphrase)
// that is added to the spend key of a seed extended with passphrase.
func PassphraseOffset(passphrase string) types.Key {
	return crypto.KeyFromScalar(crypto.HashToScalar([]byte(offsetDomain), []byte(passphrase)))
}

func (b *base) Type() types.SeedType     { return b.kind }
func (b *base) IsLegacy() bool           { return b.kind == types.SeedTypeLegacy }
func (b *base) Network() types.Network   { return b.network }
func (b *base) Height() uint64           { return b.height }
func (b *base) Timestamp() uint64        { return b.timestamp }
func (b *base) Wallet() *wallet.Wallet   { return b.wallet }
func (b *base) Address() address.Address { return b.wallet.Address() }
func (b *base) Fingerprint() string      { return b.wallet.Address().Fingerprint() }

func (b *base) wipe() {
	b.offset.Wipe()
	if b.wallet != nil {
		b.wallet.Wipe()
	}
}

// languageFor returns lang, or the first language with a table for kind.
func languageFor(lang *mnemonic.Language, kind types.SeedType) (*mnemonic.Language, error) {
	if lang != nil {
		if !lang.Supports(kind) {
			return nil, fmt.Errorf("%w: %s has no %s table", mnemonic.ErrUnknownLanguage, lang.Code, kind)
		}
		return lang, nil
	}
	langs := mnemonic.ForKind(kind)
	if len(langs) == 0 {
		return nil, fmt.Errorf("%w: none for %s", mnemonic.ErrUnknownLanguage, kind)
	}
	return langs[0], nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateType creates a fresh seed of kind from gated randomness. Legacy
// seeds can only be decoded.
func GenerateType(kind types.SeedType, gate entropy.Gate, opts Options) (Seed, error) {
	switch kind {
	case types.SeedTypeMonero:
		return Generate(gate, opts)
	case types.SeedTypePolyseed:
		return GeneratePolyseed(gate, opts)
	}
	return nil, fmt.Errorf("%w: cannot generate %s seeds", ErrInvalidInput, kind)
}
