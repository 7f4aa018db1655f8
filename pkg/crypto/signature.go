package crypto

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/ots/pkg/types"
)

// SignatureSize is the length of a serialized (c, r) signature.
const SignatureSize = 2 * types.KeySize

// Signature is a Schnorr-style proof of knowledge of a secret key over a
// 32-byte message hash.
type Signature struct {
	C types.Key
	R types.Key
}

// Bytes returns c || r.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, s.C[:]...)
	return append(out, s.R[:]...)
}

// SignatureFromBytes parses c || r.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureSize {
		return Signature{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	var sig Signature
	copy(sig.C[:], b[:types.KeySize])
	copy(sig.R[:], b[types.KeySize:])
	return sig, nil
}

// GenerateSignature signs hash with sec, whose public key is pub:
// k random, c = Hs(hash || pub || k·G), r = k - c·sec.
func GenerateSignature(hash, pub, sec types.Key) (Signature, error) {
	x, err := ScalarFromKey(sec)
	if err != nil {
		return Signature{}, err
	}
	k, err := RandomScalar()
	if err != nil {
		return Signature{}, fmt.Errorf("signature nonce: %w", err)
	}
	kG := KeyFromPoint(new(edwards25519.Point).ScalarBaseMult(k))
	c := HashToScalar(hash[:], pub[:], kG[:])

	cx := edwards25519.NewScalar().Multiply(c, x)
	r := edwards25519.NewScalar().Subtract(k, cx)

	k.Set(edwards25519.NewScalar())
	return Signature{C: KeyFromScalar(c), R: KeyFromScalar(r)}, nil
}

// CheckSignature verifies sig over hash for the public key pub.
// Returns false on any malformed input.
func CheckSignature(hash, pub types.Key, sig Signature) bool {
	P, err := PointFromKey(pub)
	if err != nil {
		return false
	}
	c, err := ScalarFromKey(sig.C)
	if err != nil {
		return false
	}
	r, err := ScalarFromKey(sig.R)
	if err != nil {
		return false
	}
	R := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(c, P, r)
	if R.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return false
	}
	Rk := KeyFromPoint(R)
	expected := HashToScalar(hash[:], pub[:], Rk[:])
	return expected.Equal(c) == 1
}
