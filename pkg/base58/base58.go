// Package base58 implements the block-wise base58 variant used by Monero
// addresses and message signatures.
//
// Input is split into 8-byte blocks, each encoded independently into a
// fixed number of characters, so the encoded length depends only on the
// input length.
package base58

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	fullBlockSize        = 8
	fullEncodedBlockSize = 11
	zeroDigit            = '1'
)

// encodedBlockSizes[n] is the encoded length of an n-byte block.
var encodedBlockSizes = [...]int{0, 2, 3, 5, 6, 7, 9, 10, 11}

// ErrInvalidEncoding is returned for malformed base58 input.
var ErrInvalidEncoding = errors.New("invalid base58 encoding")

// decodedBlockSize maps an encoded block length back to its byte length.
func decodedBlockSize(encodedLen int) int {
	for n, e := range encodedBlockSizes {
		if e == encodedLen {
			return n
		}
	}
	return -1
}

func encodeBlock(block []byte) string {
	i := 0
	for i < len(block) && block[i] == 0 {
		i++
	}
	digits := base58.Encode(block[i:])
	width := encodedBlockSizes[len(block)]
	return strings.Repeat(string(zeroDigit), width-len(digits)) + digits
}

func decodeBlock(s string, size int) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	i := 0
	for i < len(raw) && raw[i] == 0 {
		i++
	}
	raw = raw[i:]
	if len(raw) > size {
		return nil, fmt.Errorf("%w: block overflow", ErrInvalidEncoding)
	}
	out := make([]byte, size)
	copy(out[size-len(raw):], raw)
	return out, nil
}

// Encode returns the block base58 encoding of data.
func Encode(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data)/fullBlockSize*fullEncodedBlockSize + fullEncodedBlockSize)
	for len(data) > 0 {
		n := fullBlockSize
		if len(data) < n {
			n = len(data)
		}
		sb.WriteString(encodeBlock(data[:n]))
		data = data[n:]
	}
	return sb.String()
}

// Decode parses a block base58 string.
func Decode(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	fullBlocks := len(s) / fullEncodedBlockSize
	lastSize := decodedBlockSize(len(s) % fullEncodedBlockSize)
	if lastSize < 0 {
		return nil, fmt.Errorf("%w: bad length %d", ErrInvalidEncoding, len(s))
	}

	out := make([]byte, 0, fullBlocks*fullBlockSize+lastSize)
	for i := 0; i < fullBlocks; i++ {
		block, err := decodeBlock(s[i*fullEncodedBlockSize:(i+1)*fullEncodedBlockSize], fullBlockSize)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	if lastSize > 0 {
		block, err := decodeBlock(s[fullBlocks*fullEncodedBlockSize:], lastSize)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}
