// Package entropy measures the Shannon entropy of byte buffers and gates
// freshly generated randomness on it.
package entropy

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// DefaultLevel is the default minimum entropy in bits per byte.
const DefaultLevel = 3.5

// ErrLowEntropy is returned when random data fails the gate.
var ErrLowEntropy = errors.New("insufficient entropy")

// BitsPerByte returns the Shannon entropy of the byte histogram of data.
func BitsPerByte(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var hist [256]int
	for _, b := range data {
		hist[b]++
	}
	n := float64(len(data))
	var h float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// Level formats BitsPerByte with two decimals.
func Level(data []byte) string {
	return strconv.FormatFloat(BitsPerByte(data), 'f', 2, 64)
}

// MeetsThreshold reports whether data carries at least min bits per byte.
func MeetsThreshold(data []byte, min float64) bool {
	return BitsPerByte(data) >= min
}

// Gate decides whether random material is acceptable.
type Gate struct {
	Enforce bool
	Level   float64
}

// DefaultGate returns an enforcing gate at DefaultLevel.
func DefaultGate() Gate {
	return Gate{Enforce: true, Level: DefaultLevel}
}

// Check returns ErrLowEntropy when the gate enforces and data is below level.
func (g Gate) Check(data []byte) error {
	if !g.Enforce {
		return nil
	}
	if h := BitsPerByte(data); h < g.Level {
		return fmt.Errorf("%w: %.2f bits/byte, need %.2f", ErrLowEntropy, h, g.Level)
	}
	return nil
}

// Random reads n bytes from crypto/rand and passes them through the gate.
func (g Gate) Random(n int) ([]byte, error) {
	return g.Read(rand.Reader, n)
}

// Read reads n bytes from r and passes them through the gate. Rejected
// buffers are wiped.
func (g Gate) Read(r io.Reader, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrLowEntropy, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	if err := g.Check(buf); err != nil {
		for i := range buf {
			buf[i] = 0
		}
		return nil, err
	}
	return buf, nil
}
