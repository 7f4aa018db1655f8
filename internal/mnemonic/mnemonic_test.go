package mnemonic

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Klingon-tech/ots/pkg/types"
	"pgregory.net/rapid"
)

func english(t testing.TB) *Language {
	t.Helper()
	l, err := FromCode("en")
	if err != nil {
		t.Fatalf("FromCode() error: %v", err)
	}
	return l
}

func TestTables(t *testing.T) {
	codes := []string{"nl", "en", "es", "ru", "de", "lojban", "ko", "cs", "fr", "pt", "zh-Hans", "it", "eo", "jp", "zh-Hant"}
	all := Languages()
	if len(all) != len(codes) {
		t.Fatalf("Languages() = %d entries, want %d", len(all), len(codes))
	}
	for i, l := range all {
		if l.Code != codes[i] {
			t.Errorf("language %d = %s, want %s", i, l.Code, codes[i])
		}
		if l.Supports(types.SeedTypeMonero) {
			if got := len(l.Words(types.SeedTypeMonero)); got != MoneroTableSize {
				t.Errorf("%s monero table = %d words, want %d", l.Code, got, MoneroTableSize)
			}
		}
		if l.Supports(types.SeedTypePolyseed) {
			if got := len(l.Words(types.SeedTypePolyseed)); got != PolyseedTableSize {
				t.Errorf("%s polyseed table = %d words, want %d", l.Code, got, PolyseedTableSize)
			}
		}
	}

	prefixes := map[string]int{"en": 3, "jp": 3, "zh-Hans": 1, "nl": 4, "ru": 4, "pt": 4, "eo": 4}
	for code, want := range prefixes {
		l, err := FromCode(code)
		if err != nil {
			t.Fatalf("FromCode(%s) error: %v", code, err)
		}
		if l.PrefixLen() != want {
			t.Errorf("%s prefix length = %d, want %d", code, l.PrefixLen(), want)
		}
	}
}

// syntheticTable returns 1626 distinct words built from distinct
// three-letter prefixes.
func syntheticTable() []string {
	words := make([]string, MoneroTableSize)
	for i := range words {
		p := []byte{byte('a' + i/676), byte('a' + i/26%26), byte('a' + i%26)}
		words[i] = string(p) + "x"
	}
	return words
}

// keepRegistry restores the language registry when the test ends.
func keepRegistry(t *testing.T) {
	t.Helper()
	mu.RLock()
	saved := append([]*Language(nil), languages...)
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		languages = saved
		mu.Unlock()
	})
}

func TestNewLanguage_Rejects(t *testing.T) {
	short := syntheticTable()[:100]
	if _, err := newLanguage(&Language{Code: "zz", prefixLen: 3, monero: short}); err == nil {
		t.Error("newLanguage(short table) should fail")
	}
	dup := syntheticTable()
	dup[7] = dup[3]
	if _, err := newLanguage(&Language{Code: "zz", prefixLen: 3, monero: dup}); err == nil {
		t.Error("newLanguage(repeated word) should fail")
	}
}

func TestDecodeWords_SharedPrefix(t *testing.T) {
	table := syntheticTable()
	shared := Trim(table[10], 3)
	table[15] = shared + "y"
	lang, err := newLanguage(&Language{Code: "zz", prefixLen: 3, monero: table})
	if err != nil {
		t.Fatalf("newLanguage() error: %v", err)
	}

	if got := lang.Candidates(types.SeedTypeMonero, shared); len(got) != 2 || got[0] != 10 || got[1] != 15 {
		t.Errorf("Candidates(%q) = %v, want [10 15]", shared, got)
	}
	if got := lang.Candidates(types.SeedTypeMonero, table[15]); len(got) != 1 || got[0] != 15 {
		t.Errorf("Candidates(%q) = %v, want [15]", table[15], got)
	}

	// With 10 in the middle the group overflows, so only 15 decodes.
	indices := []uint16{0, 15, 9}
	want, err := DecodeData(indices)
	if err != nil {
		t.Fatalf("DecodeData() error: %v", err)
	}
	if _, err := DecodeData([]uint16{0, 10, 9}); err == nil {
		t.Fatal("DecodeData([0 10 9]) should overflow")
	}
	sum, err := Checksum(indices, lang)
	if err != nil {
		t.Fatalf("Checksum() error: %v", err)
	}
	sumWord, _ := lang.Word(types.SeedTypeMonero, sum)

	got, back, err := DecodeWords([]string{table[0], shared, table[9], sumWord}, lang)
	if err != nil {
		t.Fatalf("DecodeWords() error: %v", err)
	}
	if back[1] != 15 {
		t.Errorf("DecodeWords() picked index %d, want 15", back[1])
	}
	if !bytes.Equal(got, want) {
		t.Errorf("DecodeWords() = %x, want %x", got, want)
	}
}

func TestSetTable(t *testing.T) {
	keepRegistry(t)

	if _, err := SetTable("en", types.SeedTypeMonero, syntheticTable()); err == nil {
		t.Error("SetTable() over a built-in table should fail")
	}
	if _, err := SetTable("xx", types.SeedTypeMonero, syntheticTable()); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("SetTable(xx) error = %v, want ErrUnknownLanguage", err)
	}
	if _, err := SetTable("ko", types.SeedTypeMonero, syntheticTable()); err == nil {
		t.Error("SetTable() for a language without a monero prefix length should fail")
	}
	if _, err := SetTable("nl", types.SeedTypeMonero, syntheticTable()[:10]); err == nil {
		t.Error("SetTable() with a short table should fail")
	}

	nl, err := SetTable("nl", types.SeedTypeMonero, syntheticTable())
	if err != nil {
		t.Fatalf("SetTable() error: %v", err)
	}
	if byCode, _ := FromCode("nl"); byCode != nl || !nl.Supports(types.SeedTypeMonero) {
		t.Error("installed table is not registered")
	}
	data := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 8)
	indices, err := Encode(data, nl)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if got, err := Decode(indices, nl); err != nil || !bytes.Equal(got, data) {
		t.Errorf("Decode() = %x, %v", got, err)
	}
}

func TestLoadDir(t *testing.T) {
	keepRegistry(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "monero"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "polyseed"), 0700); err != nil {
		t.Fatal(err)
	}
	table := syntheticTable()
	body := strings.Join(table, "\n") + "\n\n"
	if err := os.WriteFile(filepath.Join(dir, "monero", "eo.txt"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	// en already has a monero table, so this file is ignored.
	if err := os.WriteFile(filepath.Join(dir, "monero", "en.txt"), []byte("junk\n"), 0600); err != nil {
		t.Fatal(err)
	}

	n, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if n != 1 {
		t.Errorf("LoadDir() = %d tables, want 1", n)
	}
	eo, _ := FromCode("eo")
	if w, _ := eo.Word(types.SeedTypeMonero, 1625); w != table[1625] {
		t.Errorf("eo word 1625 = %q, want %q", w, table[1625])
	}
	if en := english(t); en.Words(types.SeedTypeMonero)[0] == "junk" {
		t.Error("LoadDir() replaced a built-in table")
	}

	if err := os.WriteFile(filepath.Join(dir, "polyseed", "pt.txt"), []byte("um\ndois\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir() with a short polyseed table should fail")
	}

	if n, err := LoadDir(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Errorf("LoadDir(missing) = %d, %v", n, err)
	}
}

func TestLookups(t *testing.T) {
	for _, l := range Languages() {
		byCode, err := FromCode(l.Code)
		if err != nil || byCode != l {
			t.Errorf("FromCode(%q) = %v, %v", l.Code, byCode, err)
		}
		byName, err := FromName(l.Name)
		if err != nil || byName != l {
			t.Errorf("FromName(%q) = %v, %v", l.Name, byName, err)
		}
		byEnglish, err := FromEnglishName(l.EnglishName)
		if err != nil || byEnglish != l {
			t.Errorf("FromEnglishName(%q) = %v, %v", l.EnglishName, byEnglish, err)
		}
	}
	if _, err := FromCode("xx"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("FromCode(xx) error = %v, want ErrUnknownLanguage", err)
	}
}

func TestForKind(t *testing.T) {
	mon := ForKind(types.SeedTypeMonero)
	if len(mon) == 0 {
		t.Fatal("no monero languages")
	}
	for _, l := range ForKind(types.SeedTypeLegacy) {
		if !l.Supports(types.SeedTypeMonero) {
			t.Errorf("legacy language %s lacks a monero table", l.Code)
		}
	}
	if got := len(ForKind(types.SeedTypePolyseed)); got != 9 {
		t.Errorf("polyseed languages = %d, want 9", got)
	}
}

func TestEncodeDecode_Monero(t *testing.T) {
	lang := english(t)
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}

	indices, err := Encode(data, lang)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(indices) != types.MoneroSeedWords {
		t.Fatalf("Encode() = %d words, want %d", len(indices), types.MoneroSeedWords)
	}

	got, err := Decode(indices, lang)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Decode() = %x, want %x", got, data)
	}

	phrase, err := Phrase(indices, lang, types.SeedTypeMonero)
	if err != nil {
		t.Fatalf("Phrase() error: %v", err)
	}
	fromWords, back, err := DecodeWords(Fields(strings.ToUpper(phrase)), lang)
	if err != nil {
		t.Fatalf("DecodeWords() error: %v", err)
	}
	if !bytes.Equal(fromWords, data) {
		t.Error("DecodeWords() mismatch")
	}
	for i := range back {
		if back[i] != indices[i] {
			t.Fatalf("DecodeWords() indices differ at %d", i)
		}
	}
}

func TestEncodeDecode_Legacy(t *testing.T) {
	lang := english(t)
	data := bytes.Repeat([]byte{0xa5, 0x01, 0x7f, 0x33}, 4)
	indices, err := Encode(data, lang)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(indices) != types.LegacySeedWords {
		t.Fatalf("Encode() = %d words, want %d", len(indices), types.LegacySeedWords)
	}
	got, err := Decode(indices, lang)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Decode() = %x, want %x", got, data)
	}
}

func TestDecodeWords_Prefixes(t *testing.T) {
	lang := english(t)
	data := bytes.Repeat([]byte{0x10, 0x20, 0x30, 0x40}, 8)
	indices, _ := Encode(data, lang)
	words, _ := Words(indices, lang, types.SeedTypeMonero)

	short := make([]string, len(words))
	for i, w := range words {
		short[i] = Trim(w, lang.PrefixLen())
	}
	got, _, err := DecodeWords(short, lang)
	if err != nil {
		t.Fatalf("DecodeWords(prefixes) error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("prefix phrase decoded to different data")
	}

	words[3] = "notaword"
	if _, _, err := DecodeWords(words, lang); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("unknown word error = %v, want ErrInvalidSeed", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	lang := english(t)
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 8)
	indices, _ := Encode(data, lang)

	tests := []struct {
		name    string
		indices []uint16
	}{
		{"too short", indices[:2]},
		{"missing checksum", indices[:24]},
		{"overflow", func() []uint16 {
			in := []uint16{0, 0, 1625}
			sum, _ := Checksum(in, lang)
			return append(in, sum)
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.indices, lang); !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("Decode() error = %v, want ErrInvalidSeed", err)
			}
		})
	}
}

// The checksum word repeats one of the data words, chosen by the CRC of
// the prefixes. A changed checksum word is always caught.
func TestChecksum_ChecksumWordSubstitution(t *testing.T) {
	lang := english(t)
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "data")
		delta := rapid.IntRange(1, MoneroTableSize-1).Draw(rt, "delta")

		indices, err := Encode(data, lang)
		if err != nil {
			rt.Fatalf("Encode() error: %v", err)
		}
		indices[24] = uint16((int(indices[24]) + delta) % MoneroTableSize)
		if _, err := Decode(indices, lang); !errors.Is(err, ErrInvalidSeed) {
			rt.Fatalf("Decode(mutated checksum) error = %v, want ErrInvalidSeed", err)
		}
	})
}

// A changed data word slips through whenever the new CRC still selects a
// word equal to the old checksum word, roughly one time in 24.
func TestChecksum_DataWordSubstitution(t *testing.T) {
	lang := english(t)
	const trials = 2400

	accepted := 0
	for i := 0; i < trials; i++ {
		var seed [4]byte
		binary.BigEndian.PutUint32(seed[:], uint32(i))
		data := sha256.Sum256(seed[:])

		indices, err := Encode(data[:], lang)
		if err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		pos := i % 24
		delta := (i*7919)%(MoneroTableSize-1) + 1
		indices[pos] = uint16((int(indices[pos]) + delta) % MoneroTableSize)

		got, err := Decode(indices, lang)
		if err != nil {
			if !errors.Is(err, ErrInvalidSeed) {
				t.Fatalf("Decode() error = %v, want ErrInvalidSeed", err)
			}
			continue
		}
		if bytes.Equal(got, data[:]) {
			t.Fatalf("trial %d: substituted phrase decoded to the original data", i)
		}
		accepted++
	}
	if accepted == 0 || accepted*10 > trials {
		t.Errorf("accepted %d of %d substitutions, want a small non-zero share", accepted, trials)
	}
}

func TestRoundtrip_Property(t *testing.T) {
	lang := english(t)
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.SampledFrom([]int{16, 32}).Draw(rt, "size")
		data := rapid.SliceOfN(rapid.Byte(), size, size).Draw(rt, "data")
		indices, err := Encode(data, lang)
		if err != nil {
			rt.Fatalf("Encode() error: %v", err)
		}
		got, err := Decode(indices, lang)
		if err != nil {
			rt.Fatalf("Decode() error: %v", err)
		}
		if !bytes.Equal(got, data) {
			rt.Fatalf("roundtrip = %x, want %x", got, data)
		}
	})
}
