package mnemonic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/Klingon-tech/ots/pkg/types"
)

// maxCombinations bounds the number of candidate phrases tried when words
// are abbreviated to ambiguous prefixes.
const maxCombinations = 4096

// ErrInvalidSeed is returned for phrases or index sets that do not decode.
var ErrInvalidSeed = errors.New("invalid seed")

// Fields splits a phrase on any whitespace and lowercases every word.
func Fields(phrase string) []string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// Checksum returns the index of the checksum word for the data indices.
// The checksum is the CRC-32 of the concatenated unique prefixes of the
// data words, reduced modulo the number of data words.
func Checksum(data []uint16, lang *Language) (uint16, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: no data words", ErrInvalidSeed)
	}
	var sb strings.Builder
	for _, i := range data {
		w, err := lang.Word(types.SeedTypeMonero, i)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		sb.WriteString(Trim(w, lang.PrefixLen()))
	}
	pos := crc32.ChecksumIEEE([]byte(sb.String())) % uint32(len(data))
	return data[pos], nil
}

// Encode converts data into word indices followed by the checksum index.
// len(data) must be a multiple of 4.
func Encode(data []byte, lang *Language) ([]uint16, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: data length %d is not a multiple of 4", ErrInvalidSeed, len(data))
	}
	if !lang.Supports(types.SeedTypeMonero) {
		return nil, fmt.Errorf("%w: %s has no monero table", ErrUnknownLanguage, lang.Code)
	}

	const n = MoneroTableSize
	out := make([]uint16, 0, len(data)/4*3+1)
	for i := 0; i < len(data); i += 4 {
		x := uint64(binary.LittleEndian.Uint32(data[i:]))
		w1 := x % n
		w2 := (x/n + w1) % n
		w3 := (x/n/n + w2) % n
		out = append(out, uint16(w1), uint16(w2), uint16(w3))
	}
	sum, err := Checksum(out, lang)
	if err != nil {
		return nil, err
	}
	return append(out, sum), nil
}

// DecodeData converts data indices (without checksum) back into bytes.
func DecodeData(data []uint16) ([]byte, error) {
	if len(data) == 0 || len(data)%3 != 0 {
		return nil, fmt.Errorf("%w: %d data words", ErrInvalidSeed, len(data))
	}

	const n = MoneroTableSize
	out := make([]byte, len(data)/3*4)
	for i := 0; i < len(data); i += 3 {
		w1, w2, w3 := uint64(data[i]), uint64(data[i+1]), uint64(data[i+2])
		if w1 >= n || w2 >= n || w3 >= n {
			return nil, fmt.Errorf("%w: index out of range", ErrInvalidSeed)
		}
		x := w1 + n*((n-w1+w2)%n) + n*n*((n-w2+w3)%n)
		if x > 0xffffffff || x%n != w1 {
			return nil, fmt.Errorf("%w: word group %d overflows", ErrInvalidSeed, i/3)
		}
		binary.LittleEndian.PutUint32(out[i/3*4:], uint32(x))
	}
	return out, nil
}

// Decode verifies the trailing checksum index and decodes the data indices.
func Decode(indices []uint16, lang *Language) ([]byte, error) {
	if len(indices) < 4 {
		return nil, fmt.Errorf("%w: %d words", ErrInvalidSeed, len(indices))
	}
	data := indices[:len(indices)-1]
	want, err := Checksum(data, lang)
	if err != nil {
		return nil, err
	}
	if want != indices[len(indices)-1] {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSeed)
	}
	return DecodeData(data)
}

// DecodeWords resolves words against lang and decodes them. Words may be
// abbreviated; when an abbreviation is ambiguous every combination is
// tried and the first one with a valid checksum is returned.
func DecodeWords(words []string, lang *Language) ([]byte, []uint16, error) {
	if !lang.Supports(types.SeedTypeMonero) {
		return nil, nil, fmt.Errorf("%w: %s has no monero table", ErrInvalidSeed, lang.Code)
	}
	cands := make([][]uint16, len(words))
	total := 1
	for i, w := range words {
		c := lang.Candidates(types.SeedTypeMonero, w)
		if len(c) == 0 {
			return nil, nil, fmt.Errorf("%w: word %q not in %s table", ErrInvalidSeed, w, lang.Code)
		}
		cands[i] = c
		total *= len(c)
		if total > maxCombinations {
			return nil, nil, fmt.Errorf("%w: phrase too ambiguous", ErrInvalidSeed)
		}
	}

	pos := make([]int, len(words))
	indices := make([]uint16, len(words))
	for {
		for i := range indices {
			indices[i] = cands[i][pos[i]]
		}
		if data, err := Decode(indices, lang); err == nil {
			return data, indices, nil
		}
		// advance the odometer
		i := len(pos) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < len(cands[i]) {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSeed)
		}
	}
}

// Words renders indices as table words.
func Words(indices []uint16, lang *Language, kind types.SeedType) ([]string, error) {
	out := make([]string, len(indices))
	for i, idx := range indices {
		w, err := lang.Word(kind, idx)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// Phrase renders indices as a space separated phrase.
func Phrase(indices []uint16, lang *Language, kind types.SeedType) (string, error) {
	words, err := Words(indices, lang, kind)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}
