// Package polyseed implements the 16-word Polyseed mnemonic format.
//
// A phrase carries 150 secret bits, a 10-bit birthday and a 5-bit feature
// field. Word 0 is the checksum; each of the remaining 15 words holds 10
// secret bits followed by one bit of the birthday/feature field.
package polyseed

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Format constants.
const (
	NumWords    = types.PolyseedWords
	SecretSize  = 19
	SecretBits  = 150
	DateBits    = 10
	FeatureBits = 5

	// Epoch is the unix time of birthday 0 (1 November 2021).
	Epoch = 1635768000
	// TimeStep is the birthday resolution (one twelfth of a year).
	TimeStep = 2629746

	// EncryptedMask flags a password-encrypted secret.
	EncryptedMask = 16

	// CoinMonero is the coin id mixed into word 1.
	CoinMonero = 0

	kdfIterations = 10000
	keySize       = 32
	shareBits     = 10
	dataWords     = NumWords - 1
	dateMask      = 1<<DateBits - 1
	featureMask   = 1<<FeatureBits - 1
	clearMask     = 0x3f
)

// reservedFeatures are feature bits no phrase may carry: the internal bit
// and all user features, none of which are enabled.
const reservedFeatures = featureMask ^ EncryptedMask

var (
	// ErrChecksum is returned when the polynomial checksum does not verify.
	ErrChecksum = fmt.Errorf("%w: polyseed checksum mismatch", mnemonic.ErrInvalidSeed)
	// ErrUnsupported is returned for phrases that use unknown features.
	ErrUnsupported = fmt.Errorf("%w: unsupported polyseed features", mnemonic.ErrInvalidSeed)
	// ErrNotEncrypted is returned when decrypting a seed that has no password.
	ErrNotEncrypted = errors.New("polyseed is not encrypted")
)

// Data is the decoded content of a phrase.
type Data struct {
	Secret   [SecretSize]byte
	Birthday uint16
	Features uint8
}

// New builds seed data from 19 secret bytes and a creation time. The top
// two bits of the last secret byte are cleared.
func New(secret []byte, timestamp uint64, features uint8) (*Data, error) {
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("secret must be %d bytes, got %d", SecretSize, len(secret))
	}
	if features&reservedFeatures != 0 {
		return nil, ErrUnsupported
	}
	d := &Data{Birthday: BirthdayEncode(timestamp), Features: features & featureMask}
	copy(d.Secret[:], secret)
	d.Secret[SecretSize-1] &= clearMask
	return d, nil
}

// BirthdayEncode maps a unix time to the 10-bit birthday field.
func BirthdayEncode(t uint64) uint16 {
	if t < Epoch {
		return 0
	}
	return uint16((t - Epoch) / TimeStep & dateMask)
}

// BirthdayDecode maps a birthday back to the unix time of its start.
func BirthdayDecode(b uint16) uint64 {
	return Epoch + uint64(b)*TimeStep
}

// Timestamp returns the creation time encoded in the phrase.
func (d *Data) Timestamp() uint64 {
	return BirthdayDecode(d.Birthday)
}

// Encrypted reports whether the secret is password-encrypted.
func (d *Data) Encrypted() bool {
	return d.Features&EncryptedMask != 0
}

// Wipe zeroes the secret.
func (d *Data) Wipe() {
	for i := range d.Secret {
		d.Secret[i] = 0
	}
	d.Birthday = 0
	d.Features = 0
}

// Indices encodes the data as 16 word indices for the given coin.
func (d *Data) Indices(coin uint16) []uint16 {
	var p poly
	extra := uint32(d.Features)<<DateBits | uint32(d.Birthday)
	extraBits := FeatureBits + DateBits

	r := bitReader{buf: d.Secret[:]}
	for i := 0; i < dataWords; i++ {
		w := r.read(shareBits) << 1
		extraBits--
		w |= uint16(extra>>extraBits) & 1
		p[1+i] = w
	}
	p.encode()
	p[1] ^= coin
	return p[:]
}

// FromIndices decodes 16 word indices for the given coin.
func FromIndices(indices []uint16, coin uint16) (*Data, error) {
	if len(indices) != NumWords {
		return nil, fmt.Errorf("%w: %d words, want %d", mnemonic.ErrInvalidSeed, len(indices), NumWords)
	}
	var p poly
	for i, v := range indices {
		if v >= mnemonic.PolyseedTableSize {
			return nil, fmt.Errorf("%w: index %d out of range", mnemonic.ErrInvalidSeed, v)
		}
		p[i] = v
	}
	p[1] ^= coin
	if !p.check() {
		return nil, ErrChecksum
	}

	d := &Data{}
	var extra uint32
	w := bitWriter{buf: d.Secret[:]}
	for i := 0; i < dataWords; i++ {
		v := p[1+i]
		extra = extra<<1 | uint32(v&1)
		w.write(v>>1, shareBits)
	}
	d.Birthday = uint16(extra & dateMask)
	d.Features = uint8(extra >> DateBits)
	if d.Features&reservedFeatures != 0 {
		d.Wipe()
		return nil, ErrUnsupported
	}
	return d, nil
}

// Seal recomputes word 0 of a 16-word index sequence so that it carries a
// valid checksum for the coin. The data words are not validated.
func Seal(indices []uint16, coin uint16) ([]uint16, error) {
	if len(indices) != NumWords {
		return nil, fmt.Errorf("%w: %d words, want %d", mnemonic.ErrInvalidSeed, len(indices), NumWords)
	}
	var p poly
	for i, v := range indices {
		if v >= mnemonic.PolyseedTableSize {
			return nil, fmt.Errorf("%w: index %d out of range", mnemonic.ErrInvalidSeed, v)
		}
		p[i] = v
	}
	p[1] ^= coin
	p.encode()
	p[1] ^= coin
	return p[:], nil
}

// Key derives the 32-byte key for the coin with PBKDF2-HMAC-SHA256.
func (d *Data) Key(coin uint16) types.Key {
	salt := make([]byte, 32)
	copy(salt, "POLYSEED key")
	salt[13], salt[14], salt[15] = 0xff, 0xff, 0xff
	binary.LittleEndian.PutUint32(salt[16:], uint32(coin))
	binary.LittleEndian.PutUint32(salt[20:], uint32(d.Birthday))
	binary.LittleEndian.PutUint32(salt[24:], uint32(d.Features))

	secret := make([]byte, 32)
	copy(secret, d.Secret[:])
	defer wipe(secret)

	out := pbkdf2.Key(secret, salt, kdfIterations, keySize, sha256.New)
	defer wipe(out)
	var k types.Key
	copy(k[:], out)
	return k
}

// SpendKey returns the reduced spend secret for Monero.
func (d *Data) SpendKey() types.Key {
	k := d.Key(CoinMonero)
	defer k.Wipe()
	return crypto.Reduce32(k[:])
}

// Crypt toggles password encryption of the secret. Applying it twice with
// the same password restores the original secret.
func (d *Data) Crypt(password string) {
	salt := make([]byte, 16)
	copy(salt, "POLYSEED mask")
	salt[14], salt[15] = 0xff, 0xff

	pw := []byte(norm.NFKD.String(password))
	defer wipe(pw)
	mask := pbkdf2.Key(pw, salt, kdfIterations, keySize, sha256.New)
	defer wipe(mask)

	for i := range d.Secret {
		d.Secret[i] ^= mask[i]
	}
	d.Secret[SecretSize-1] &= clearMask
	d.Features ^= EncryptedMask
}

// Decrypt removes password encryption.
func (d *Data) Decrypt(password string) error {
	if !d.Encrypted() {
		return ErrNotEncrypted
	}
	d.Crypt(password)
	return nil
}

// Decode parses a phrase in lang and returns the data with its indices.
func Decode(phrase string, lang *mnemonic.Language, coin uint16) (*Data, []uint16, error) {
	if !lang.Supports(types.SeedTypePolyseed) {
		return nil, nil, fmt.Errorf("%w: %s has no polyseed table", mnemonic.ErrInvalidSeed, lang.Code)
	}
	words := mnemonic.Fields(phrase)
	if len(words) != NumWords {
		return nil, nil, fmt.Errorf("%w: %d words, want %d", mnemonic.ErrInvalidSeed, len(words), NumWords)
	}
	indices := make([]uint16, NumWords)
	for i, w := range words {
		c := lang.Candidates(types.SeedTypePolyseed, w)
		if len(c) != 1 {
			return nil, nil, fmt.Errorf("%w: word %q not in %s table", mnemonic.ErrInvalidSeed, w, lang.Code)
		}
		indices[i] = c[0]
	}
	d, err := FromIndices(indices, coin)
	if err != nil {
		return nil, nil, err
	}
	return d, indices, nil
}

// Phrase renders the data in lang.
func (d *Data) Phrase(lang *mnemonic.Language, coin uint16) (string, error) {
	words, err := mnemonic.Words(d.Indices(coin), lang, types.SeedTypePolyseed)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
