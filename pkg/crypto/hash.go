// Package crypto provides the curve and hash primitives used by OTS.
//
// Scalars and points live on edwards25519; hashing to scalars uses the
// original Keccak-256 (not NIST SHA3-256).
package crypto

import (
	"filippo.io/edwards25519"
	"github.com/Klingon-tech/ots/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 of the concatenated inputs.
func Keccak256(data ...[]byte) types.Key {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out types.Key
	h.Sum(out[:0])
	return out
}

// Hash computes a BLAKE3-256 digest.
// It is used for storage record ids and envelope digests, never for keys.
func Hash(data []byte) types.Key {
	return blake3.Sum256(data)
}

// HashToScalar computes Keccak256 of the inputs reduced modulo the group order.
func HashToScalar(data ...[]byte) *edwards25519.Scalar {
	h := Keccak256(data...)
	return ReduceScalar(h[:])
}
