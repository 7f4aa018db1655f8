package polyseed

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/types"
	"pgregory.net/rapid"
)

func testData(t testing.TB) *Data {
	t.Helper()
	secret := bytes.Repeat([]byte{0x5a}, SecretSize)
	d, err := New(secret, 1700000000, 0)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return d
}

func TestGF_Mul2(t *testing.T) {
	tests := []struct {
		in, want uint16
	}{
		{0, 0},
		{1, 2},
		{1023, 2046},
		{1024, 5},
		{1025, 7},
		{1032, 21},
		{2047, 2043},
	}
	for _, tt := range tests {
		if got := mul2(tt.in); got != tt.want {
			t.Errorf("mul2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNew_ClearsTopBits(t *testing.T) {
	secret := bytes.Repeat([]byte{0xff}, SecretSize)
	d, err := New(secret, 0, 0)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if d.Secret[SecretSize-1] != 0x3f {
		t.Errorf("last secret byte = %#x, want 0x3f", d.Secret[SecretSize-1])
	}
	if _, err := New(secret[:5], 0, 0); err == nil {
		t.Error("New should reject a short secret")
	}
	if _, err := New(secret, 0, 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("New(features=1) error = %v, want ErrUnsupported", err)
	}
}

func TestBirthday(t *testing.T) {
	if got := BirthdayEncode(0); got != 0 {
		t.Errorf("BirthdayEncode(0) = %d, want 0", got)
	}
	if got := BirthdayEncode(Epoch + 5*TimeStep + 100); got != 5 {
		t.Errorf("BirthdayEncode() = %d, want 5", got)
	}
	if got := BirthdayDecode(5); got != Epoch+5*TimeStep {
		t.Errorf("BirthdayDecode(5) = %d", got)
	}

	d := testData(t)
	ts := d.Timestamp()
	if ts > 1700000000 || 1700000000-ts >= TimeStep {
		t.Errorf("Timestamp() = %d, want within one step before 1700000000", ts)
	}
}

func TestIndices_Roundtrip(t *testing.T) {
	d := testData(t)
	indices := d.Indices(CoinMonero)
	if len(indices) != NumWords {
		t.Fatalf("Indices() = %d words, want %d", len(indices), NumWords)
	}
	for _, v := range indices {
		if v >= mnemonic.PolyseedTableSize {
			t.Fatalf("index %d out of range", v)
		}
	}

	got, err := FromIndices(indices, CoinMonero)
	if err != nil {
		t.Fatalf("FromIndices() error: %v", err)
	}
	if *got != *d {
		t.Errorf("FromIndices() = %+v, want %+v", got, d)
	}

	if _, err := FromIndices(indices, 1); !errors.Is(err, ErrChecksum) {
		t.Errorf("FromIndices(other coin) error = %v, want ErrChecksum", err)
	}
	if _, err := FromIndices(indices[:15], CoinMonero); !errors.Is(err, mnemonic.ErrInvalidSeed) {
		t.Errorf("FromIndices(short) error = %v, want ErrInvalidSeed", err)
	}
}

func TestChecksum_DetectsSubstitution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		secret := rapid.SliceOfN(rapid.Byte(), SecretSize, SecretSize).Draw(rt, "secret")
		pos := rapid.IntRange(0, NumWords-1).Draw(rt, "pos")
		delta := rapid.IntRange(1, mnemonic.PolyseedTableSize-1).Draw(rt, "delta")

		d, err := New(secret, 1650000000, 0)
		if err != nil {
			rt.Fatalf("New() error: %v", err)
		}
		indices := d.Indices(CoinMonero)
		indices[pos] ^= uint16(delta)
		if _, err := FromIndices(indices, CoinMonero); !errors.Is(err, mnemonic.ErrInvalidSeed) {
			rt.Fatalf("substituted word %d accepted: %v", pos, err)
		}
	})
}

func TestPhrase_AllLanguages(t *testing.T) {
	d := testData(t)
	for _, lang := range mnemonic.ForKind(types.SeedTypePolyseed) {
		t.Run(lang.Code, func(t *testing.T) {
			phrase, err := d.Phrase(lang, CoinMonero)
			if err != nil {
				t.Fatalf("Phrase() error: %v", err)
			}
			got, indices, err := Decode(phrase, lang, CoinMonero)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if *got != *d {
				t.Error("Decode(Phrase()) mismatch")
			}
			if len(indices) != NumWords {
				t.Errorf("Decode() indices = %d", len(indices))
			}
		})
	}
}

func TestDecode_Abbreviated(t *testing.T) {
	lang, _ := mnemonic.FromCode("en")
	d := testData(t)
	words, err := mnemonic.Words(d.Indices(CoinMonero), lang, types.SeedTypePolyseed)
	if err != nil {
		t.Fatalf("Words() error: %v", err)
	}
	phrase := ""
	for _, w := range words {
		phrase += mnemonic.Trim(w, 4) + " "
	}
	got, _, err := Decode(phrase, lang, CoinMonero)
	if err != nil {
		t.Fatalf("Decode(abbreviated) error: %v", err)
	}
	if *got != *d {
		t.Error("abbreviated phrase decoded differently")
	}

	if _, _, err := Decode("too few words", lang, CoinMonero); !errors.Is(err, mnemonic.ErrInvalidSeed) {
		t.Errorf("Decode(short) error = %v, want ErrInvalidSeed", err)
	}
}

func TestCrypt(t *testing.T) {
	d := testData(t)
	orig := *d
	plainKey := d.SpendKey()

	d.Crypt("hunter2")
	if !d.Encrypted() {
		t.Fatal("Encrypted() = false after Crypt")
	}
	if d.Secret == orig.Secret {
		t.Error("Crypt did not change the secret")
	}

	// Encrypted phrases still decode.
	back, err := FromIndices(d.Indices(CoinMonero), CoinMonero)
	if err != nil {
		t.Fatalf("FromIndices(encrypted) error: %v", err)
	}
	if err := back.Decrypt("hunter2"); err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if *back != orig {
		t.Error("Decrypt did not restore the original data")
	}
	if back.SpendKey() != plainKey {
		t.Error("decrypted spend key differs")
	}
	if err := back.Decrypt("hunter2"); !errors.Is(err, ErrNotEncrypted) {
		t.Errorf("Decrypt(plain) error = %v, want ErrNotEncrypted", err)
	}
}

func TestKey_DependsOnFields(t *testing.T) {
	d := testData(t)
	k1 := d.Key(CoinMonero)
	if k1 != d.Key(CoinMonero) {
		t.Fatal("Key() not deterministic")
	}
	if k1 == d.Key(1) {
		t.Error("coin should change the key")
	}
	other := *d
	other.Birthday++
	if k1 == other.Key(CoinMonero) {
		t.Error("birthday should change the key")
	}
}

func TestWipe(t *testing.T) {
	d := testData(t)
	d.Wipe()
	if d.Secret != [SecretSize]byte{} || d.Birthday != 0 {
		t.Error("Wipe() left data behind")
	}
}

func TestSeal(t *testing.T) {
	d := testData(t)
	want := d.Indices(CoinMonero)

	broken := append([]uint16(nil), want...)
	broken[0] = (broken[0] + 1) % mnemonic.PolyseedTableSize
	got, err := Seal(broken, CoinMonero)
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Seal() word %d = %d, want %d", i, got[i], want[i])
		}
	}
	if _, err := Seal(want[:15], CoinMonero); !errors.Is(err, mnemonic.ErrInvalidSeed) {
		t.Errorf("Seal(15 words) error = %v, want ErrInvalidSeed", err)
	}
}
