package crypto

import (
	"encoding/binary"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/ots/pkg/types"
)

// GenerateKeyDerivation returns 8·sec·pub, the shared secret between a
// transaction public key and a view secret.
func GenerateKeyDerivation(pub, sec types.Key) (types.Key, error) {
	P, err := PointFromKey(pub)
	if err != nil {
		return types.Key{}, err
	}
	s, err := ScalarFromKey(sec)
	if err != nil {
		return types.Key{}, err
	}
	d := new(edwards25519.Point).ScalarMult(s, P)
	d.MultByCofactor(d)
	return KeyFromPoint(d), nil
}

// DerivationToScalar returns Hs(derivation || varint(outputIndex)).
func DerivationToScalar(derivation types.Key, outputIndex uint64) *edwards25519.Scalar {
	buf := make([]byte, 0, types.KeySize+binary.MaxVarintLen64)
	buf = append(buf, derivation[:]...)
	buf = binary.AppendUvarint(buf, outputIndex)
	return HashToScalar(buf)
}

// DerivePublicKey returns Hs(d, i)·G + base, the one-time output key.
func DerivePublicKey(derivation types.Key, outputIndex uint64, base types.Key) (types.Key, error) {
	B, err := PointFromKey(base)
	if err != nil {
		return types.Key{}, err
	}
	h := DerivationToScalar(derivation, outputIndex)
	hG := new(edwards25519.Point).ScalarBaseMult(h)
	return KeyFromPoint(new(edwards25519.Point).Add(hG, B)), nil
}

// DeriveSecretKey returns Hs(d, i) + base, the one-time output secret.
func DeriveSecretKey(derivation types.Key, outputIndex uint64, base types.Key) (types.Key, error) {
	b, err := ScalarFromKey(base)
	if err != nil {
		return types.Key{}, err
	}
	h := DerivationToScalar(derivation, outputIndex)
	return KeyFromScalar(edwards25519.NewScalar().Add(h, b)), nil
}
