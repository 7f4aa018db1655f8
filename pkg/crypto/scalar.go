package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/ots/pkg/types"
)

// ErrInvalidKey is returned for non-canonical scalars and invalid points.
var ErrInvalidKey = errors.New("invalid key")

// ReduceScalar interprets up to 32 little-endian bytes as an integer and
// reduces it modulo the group order.
func ReduceScalar(b []byte) *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:32], b)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	for i := range wide {
		wide[i] = 0
	}
	if err != nil {
		// SetUniformBytes only fails on length.
		panic(err)
	}
	return s
}

// Reduce32 returns b reduced modulo the group order.
func Reduce32(b []byte) types.Key {
	return KeyFromScalar(ReduceScalar(b))
}

// IsReduced reports whether k is a canonical scalar encoding.
func IsReduced(k types.Key) bool {
	_, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	return err == nil
}

// ScalarFromKey decodes a canonical scalar.
func ScalarFromKey(k types.Key) (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: non-canonical scalar", ErrInvalidKey)
	}
	return s, nil
}

// PointFromKey decodes a compressed point.
func PointFromKey(k types.Key) (*edwards25519.Point, error) {
	p, err := new(edwards25519.Point).SetBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: not a curve point", ErrInvalidKey)
	}
	return p, nil
}

// KeyFromScalar encodes a scalar.
func KeyFromScalar(s *edwards25519.Scalar) types.Key {
	var k types.Key
	copy(k[:], s.Bytes())
	return k
}

// KeyFromPoint encodes a point.
func KeyFromPoint(p *edwards25519.Point) types.Key {
	var k types.Key
	copy(k[:], p.Bytes())
	return k
}

// RandomScalar returns a uniformly random scalar.
func RandomScalar() (*edwards25519.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	for i := range buf {
		buf[i] = 0
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddScalars returns a + b mod l.
func AddScalars(a, b types.Key) (types.Key, error) {
	sa, err := ScalarFromKey(a)
	if err != nil {
		return types.Key{}, err
	}
	sb, err := ScalarFromKey(b)
	if err != nil {
		return types.Key{}, err
	}
	return KeyFromScalar(edwards25519.NewScalar().Add(sa, sb)), nil
}

// MulScalars returns a * b mod l.
func MulScalars(a, b types.Key) (types.Key, error) {
	sa, err := ScalarFromKey(a)
	if err != nil {
		return types.Key{}, err
	}
	sb, err := ScalarFromKey(b)
	if err != nil {
		return types.Key{}, err
	}
	return KeyFromScalar(edwards25519.NewScalar().Multiply(sa, sb)), nil
}
