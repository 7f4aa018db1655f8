// Package mnemonic holds the seed word tables and the electrum-style codec
// shared by Monero (25-word) and Legacy (13-word) phrases.
package mnemonic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/Klingon-tech/ots/pkg/types"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

// Table sizes per seed family.
const (
	MoneroTableSize   = 1626
	PolyseedTableSize = 2048
)

// ErrUnknownLanguage is returned when a language lookup fails.
var ErrUnknownLanguage = errors.New("unknown language")

// Language is an immutable word-table bundle.
type Language struct {
	Code        string
	Name        string
	EnglishName string

	// prefixLen is the number of leading runes that identify a Monero word.
	prefixLen int

	monero   []string
	polyseed []string

	// polyseedPrefix is the number of leading runes that identify a
	// Polyseed word, or 0 when words must be spelled out.
	polyseedPrefix int

	moneroIndex    map[string]uint16
	moneroPrefix   map[string][]uint16
	polyseedIndex  map[string]uint16
	polyseedFolded map[string]uint16
	polyseedShort  map[string]uint16
}

// Supports reports whether the language has a table for the seed kind.
func (l *Language) Supports(kind types.SeedType) bool {
	return len(l.Words(kind)) > 0
}

// Words returns the word table for the seed kind. Legacy phrases use the
// Monero table.
func (l *Language) Words(kind types.SeedType) []string {
	switch kind.Family() {
	case types.SeedTypeMonero:
		return l.monero
	case types.SeedTypePolyseed:
		return l.polyseed
	}
	return nil
}

// PrefixLen returns the unique prefix length used by the Monero checksum.
func (l *Language) PrefixLen() int {
	return l.prefixLen
}

// Word returns the table word at index i.
func (l *Language) Word(kind types.SeedType, i uint16) (string, error) {
	words := l.Words(kind)
	if int(i) >= len(words) {
		return "", fmt.Errorf("index %d out of range for %s/%s", i, l.Code, kind)
	}
	return words[i], nil
}

// Index returns the exact table index of word.
func (l *Language) Index(kind types.SeedType, word string) (uint16, bool) {
	var m map[string]uint16
	switch kind.Family() {
	case types.SeedTypeMonero:
		m = l.moneroIndex
	case types.SeedTypePolyseed:
		m = l.polyseedIndex
	}
	i, ok := m[word]
	return i, ok
}

// Candidates returns every table index word may stand for: the exact word,
// every entry sharing its Monero prefix, an accent-insensitive match for
// Polyseed tables, or any entry that starts with an abbreviated word.
func (l *Language) Candidates(kind types.SeedType, word string) []uint16 {
	if i, ok := l.Index(kind, word); ok {
		return []uint16{i}
	}
	switch kind.Family() {
	case types.SeedTypeMonero:
		if len([]rune(word)) >= l.prefixLen {
			if c := l.moneroPrefix[Trim(word, l.prefixLen)]; len(c) > 0 {
				return append([]uint16(nil), c...)
			}
		}
	case types.SeedTypePolyseed:
		f := Fold(word)
		if i, ok := l.polyseedFolded[f]; ok {
			return []uint16{i}
		}
		if l.polyseedPrefix > 0 && len([]rune(f)) >= l.polyseedPrefix {
			if i, ok := l.polyseedShort[Trim(f, l.polyseedPrefix)]; ok {
				return []uint16{i}
			}
		}
	}
	var out []uint16
	for i, w := range l.Words(kind) {
		if strings.HasPrefix(w, word) {
			out = append(out, uint16(i))
		}
	}
	return out
}

// Trim returns the first n runes of word.
func Trim(word string, n int) string {
	r := []rune(word)
	if len(r) <= n {
		return word
	}
	return string(r[:n])
}

// Fold normalizes a word to NFKD, strips combining marks and lowercases it.
func Fold(word string) string {
	var sb strings.Builder
	for _, r := range norm.NFKD.String(word) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

func newLanguage(l *Language) (*Language, error) {
	monero, polyseed, prefixLen := l.monero, l.polyseed, l.prefixLen
	code := l.Code
	if len(monero) > 0 {
		if len(monero) != MoneroTableSize {
			return nil, fmt.Errorf("%s monero table has %d words, want %d", code, len(monero), MoneroTableSize)
		}
		l.moneroIndex = make(map[string]uint16, len(monero))
		l.moneroPrefix = make(map[string][]uint16, len(monero))
		for i, w := range monero {
			if _, dup := l.moneroIndex[w]; dup {
				return nil, fmt.Errorf("%s monero table repeats %q", code, w)
			}
			l.moneroIndex[w] = uint16(i)
			p := Trim(w, prefixLen)
			l.moneroPrefix[p] = append(l.moneroPrefix[p], uint16(i))
		}
	}
	if len(polyseed) > 0 {
		if len(polyseed) != PolyseedTableSize {
			return nil, fmt.Errorf("%s polyseed table has %d words, want %d", code, len(polyseed), PolyseedTableSize)
		}
		l.polyseedIndex = make(map[string]uint16, len(polyseed))
		l.polyseedFolded = make(map[string]uint16, len(polyseed))
		for i, w := range polyseed {
			l.polyseedIndex[w] = uint16(i)
			l.polyseedFolded[Fold(w)] = uint16(i)
		}
		if l.polyseedPrefix > 0 {
			l.polyseedShort = make(map[string]uint16, len(polyseed))
			for i, w := range polyseed {
				l.polyseedShort[Trim(Fold(w), l.polyseedPrefix)] = uint16(i)
			}
			if len(l.polyseedShort) != len(polyseed) {
				l.polyseedShort = nil
				l.polyseedPrefix = 0
			}
		}
	}
	return l, nil
}

func mustLanguage(l *Language) *Language {
	l, err := newLanguage(l)
	if err != nil {
		panic("mnemonic: " + err.Error())
	}
	return l
}

// The registry follows the order of the upstream language list. Only the
// English Monero table and the BIP-39 derived Polyseed tables are built in;
// the remaining tables are installed with SetTable or LoadDir.
var (
	mu        sync.RWMutex
	languages = []*Language{
		mustLanguage(&Language{Code: "nl", Name: "Nederlands", EnglishName: "Dutch", prefixLen: 4}),
		mustLanguage(&Language{Code: "en", Name: "English", EnglishName: "English",
			prefixLen: 3, polyseedPrefix: 4, monero: moneroEnglish, polyseed: wordlists.English}),
		mustLanguage(&Language{Code: "es", Name: "Español", EnglishName: "Spanish",
			prefixLen: 4, polyseedPrefix: 4, polyseed: wordlists.Spanish}),
		mustLanguage(&Language{Code: "ru", Name: "русский язык", EnglishName: "Russian", prefixLen: 4}),
		mustLanguage(&Language{Code: "de", Name: "Deutsch", EnglishName: "German", prefixLen: 4}),
		mustLanguage(&Language{Code: "lojban", Name: "Lojban", EnglishName: "Lojban", prefixLen: 4}),
		mustLanguage(&Language{Code: "ko", Name: "한국어", EnglishName: "Korean",
			polyseed: wordlists.Korean}),
		mustLanguage(&Language{Code: "cs", Name: "čeština", EnglishName: "Czech",
			polyseedPrefix: 4, polyseed: wordlists.Czech}),
		mustLanguage(&Language{Code: "fr", Name: "Français", EnglishName: "French",
			prefixLen: 4, polyseedPrefix: 4, polyseed: wordlists.French}),
		mustLanguage(&Language{Code: "pt", Name: "Português", EnglishName: "Portuguese",
			prefixLen: 4, polyseedPrefix: 4}),
		mustLanguage(&Language{Code: "zh-Hans", Name: "简体中文 (中国)", EnglishName: "Chinese (simplified)",
			prefixLen: 1, polyseed: wordlists.ChineseSimplified}),
		mustLanguage(&Language{Code: "it", Name: "Italiano", EnglishName: "Italian",
			prefixLen: 4, polyseedPrefix: 4, polyseed: wordlists.Italian}),
		mustLanguage(&Language{Code: "eo", Name: "Esperanto", EnglishName: "Esperanto", prefixLen: 4}),
		mustLanguage(&Language{Code: "jp", Name: "日本語", EnglishName: "Japanese",
			prefixLen: 3, polyseed: wordlists.Japanese}),
		mustLanguage(&Language{Code: "zh-Hant", Name: "中文(繁體)", EnglishName: "Chinese (Traditional)",
			polyseed: wordlists.ChineseTraditional}),
	}
)

// SetTable installs the word table of a seed family for a registered
// language that does not have one yet. Words are NFC-normalized.
func SetTable(code string, kind types.SeedType, words []string) (*Language, error) {
	mu.Lock()
	defer mu.Unlock()
	pos := -1
	for i, l := range languages {
		if l.Code == code {
			pos = i
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: code %q", ErrUnknownLanguage, code)
	}
	cur := languages[pos]
	if cur.Supports(kind) {
		return nil, fmt.Errorf("%s already has a %s table", code, kind.Family())
	}

	table := make([]string, len(words))
	for i, w := range words {
		table[i] = norm.NFC.String(w)
	}
	next := &Language{
		Code:           cur.Code,
		Name:           cur.Name,
		EnglishName:    cur.EnglishName,
		prefixLen:      cur.prefixLen,
		polyseedPrefix: cur.polyseedPrefix,
		monero:         cur.monero,
		polyseed:       cur.polyseed,
	}
	switch kind.Family() {
	case types.SeedTypeMonero:
		if next.prefixLen == 0 {
			return nil, fmt.Errorf("%s has no monero prefix length", code)
		}
		next.monero = table
	case types.SeedTypePolyseed:
		next.polyseed = table
	default:
		return nil, fmt.Errorf("no word table for %s", kind)
	}
	next, err := newLanguage(next)
	if err != nil {
		return nil, err
	}
	languages[pos] = next
	return next, nil
}

// LoadDir installs word tables from dir/monero/<code>.txt and
// dir/polyseed/<code>.txt, one word per line. Missing files are skipped.
// It returns the number of tables installed.
func LoadDir(dir string) (int, error) {
	kinds := []types.SeedType{types.SeedTypeMonero, types.SeedTypePolyseed}
	loaded := 0
	for _, l := range Languages() {
		for _, kind := range kinds {
			if l.Supports(kind) {
				continue
			}
			path := filepath.Join(dir, kind.String(), l.Code+".txt")
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return loaded, err
			}
			var words []string
			for _, line := range strings.Split(string(data), "\n") {
				if w := strings.TrimSpace(line); w != "" {
					words = append(words, w)
				}
			}
			if _, err := SetTable(l.Code, kind, words); err != nil {
				return loaded, fmt.Errorf("%s: %w", path, err)
			}
			loaded++
		}
	}
	return loaded, nil
}

// Languages returns every registered language.
func Languages() []*Language {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]*Language, len(languages))
	copy(out, languages)
	return out
}

// ForKind returns the languages that support the seed kind.
func ForKind(kind types.SeedType) []*Language {
	mu.RLock()
	defer mu.RUnlock()
	var out []*Language
	for _, l := range languages {
		if l.Supports(kind) {
			out = append(out, l)
		}
	}
	return out
}

// FromCode looks a language up by its code.
func FromCode(code string) (*Language, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, l := range languages {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: code %q", ErrUnknownLanguage, code)
}

// FromName looks a language up by its native name.
func FromName(name string) (*Language, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, l := range languages {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: name %q", ErrUnknownLanguage, name)
}

// FromEnglishName looks a language up by its English name.
func FromEnglishName(name string) (*Language, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, l := range languages {
		if strings.EqualFold(l.EnglishName, name) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: english name %q", ErrUnknownLanguage, name)
}
