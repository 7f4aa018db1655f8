package ots

import (
	"github.com/Klingon-tech/ots/internal/chain"
	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/tx"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Version of the toolkit.
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
	Version      = "0.1.0"
)

// OTS is the facade over seeds, index sets, wallets and the seed jar.
// Every method returns a Result.
type OTS struct {
	settings *Settings
	jar      *SeedJar
	codec    tx.Codec
}

// New creates a facade with its own empty jar. A nil settings value uses
// NewSettings.
func New(settings *Settings) *OTS {
	if settings == nil {
		settings = NewSettings()
	}
	return &OTS{settings: settings, jar: NewSeedJar(), codec: tx.EnvelopeCodec{}}
}

// Settings returns the settings store.
func (o *OTS) Settings() *Settings { return o.settings }

// Jar returns the seed jar.
func (o *OTS) Jar() *SeedJar { return o.jar }

// Codec returns the transaction blob codec.
func (o *OTS) Codec() tx.Codec { return o.codec }

// SetCodec replaces the transaction blob codec used by wallets created
// through the facade.
func (o *OTS) SetCodec(c tx.Codec) { o.codec = c }

// Version returns the version string.
func (o *OTS) Version() Result { return StringResult(Version) }

// VersionComponents returns major, minor and patch.
func (o *OTS) VersionComponents() Result {
	return ArrayResult(OwnArray([]int{VersionMajor, VersionMinor, VersionPatch}))
}

// Random returns n bytes of gated randomness. The result owns the bytes.
func (o *OTS) Random(n int) Result {
	b, err := o.settings.Gate().Random(n)
	return result(b, err, SecretResult)
}

// Random32 returns 32 bytes of gated randomness.
func (o *OTS) Random32() Result { return o.Random(32) }

// CheckLowEntropy reports whether data is below the configured level.
func (o *OTS) CheckLowEntropy(data []byte) Result {
	return BoolResult(!entropy.MeetsThreshold(data, o.settings.Gate().Level))
}

// EntropyLevel returns the bits per byte of data as a decimal string.
func (o *OTS) EntropyLevel(data []byte) Result {
	return StringResult(entropy.Level(data))
}

// HeightFromTimestamp estimates the block height at ts.
func (o *OTS) HeightFromTimestamp(ts uint64, network types.Network) Result {
	if !network.Valid() {
		return Fail(errorf(ErrInvalidInput, "unknown network %d", network))
	}
	return NumberResult(int64(chain.HeightFromTimestamp(ts, network)))
}

// TimestampFromHeight estimates the time of block h.
func (o *OTS) TimestampFromHeight(h uint64, network types.Network) Result {
	if !network.Valid() {
		return Fail(errorf(ErrInvalidInput, "unknown network %d", network))
	}
	return NumberResult(int64(chain.TimestampFromHeight(h, network)))
}

// SeedParams are the caller-supplied construction parameters of a seed.
type SeedParams struct {
	Network    types.Network
	Height     uint64
	Timestamp  uint64
	Language   *mnemonic.Language
	Password   string
	Passphrase string
}

// options turns params into seed options. Decoding leaves the language
// open unless the caller fixed it.
func (o *OTS) options(p SeedParams) seed.Options {
	return seed.Options{
		Network:    p.Network,
		Height:     p.Height,
		Timestamp:  p.Timestamp,
		Language:   p.Language,
		Strict:     o.settings.Strict(),
		Password:   p.Password,
		Passphrase: p.Passphrase,
	}
}

// language picks the phrase language for kind: lang, else the configured
// default, else nil which means the first language of the kind.
func (o *OTS) language(kind types.SeedType, lang *mnemonic.Language) *mnemonic.Language {
	if lang != nil {
		return lang
	}
	return o.settings.DefaultLanguage(kind)
}

// adopt sets the facade codec on the wallet of a new seed.
func (o *OTS) adopt(s seed.Seed) seed.Seed {
	s.Wallet().SetCodec(o.codec)
	return s
}

func (o *OTS) seedResult(s seed.Seed, err error) Result {
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(o.adopt(s)))
}

func seedOf(h *Handle) (seed.Seed, error) {
	return As[seed.Seed](h)
}

// walletOf accepts handles to wallets and to seeds.
func walletOf(h *Handle) (*wallet.Wallet, error) {
	if s, err := As[seed.Seed](h); err == nil {
		return s.Wallet(), nil
	}
	return As[*wallet.Wallet](h)
}

// Release releases a result; it never fails.
func (o *OTS) Release(r Result) { r.Release() }
