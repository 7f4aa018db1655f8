package crypto

import (
	"encoding/binary"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/ots/pkg/types"
)

// subaddressDomain prefixes the subaddress secret hash, including its NUL.
var subaddressDomain = []byte("SubAddr\x00")

// KeyPair holds a secret scalar and its public point.
type KeyPair struct {
	Secret types.Key
	Public types.Key
}

// Wipe zeroes the secret half of the pair.
func (kp *KeyPair) Wipe() {
	kp.Secret.Wipe()
}

// SecretToPublic returns sec·G. The secret must be a canonical scalar.
func SecretToPublic(sec types.Key) (types.Key, error) {
	s, err := ScalarFromKey(sec)
	if err != nil {
		return types.Key{}, err
	}
	return KeyFromPoint(new(edwards25519.Point).ScalarBaseMult(s)), nil
}

// NewKeyPair builds a pair from a canonical secret.
func NewKeyPair(sec types.Key) (KeyPair, error) {
	pub, err := SecretToPublic(sec)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Secret: sec, Public: pub}, nil
}

// ViewFromSpend derives the deterministic view secret Hs(spend).
func ViewFromSpend(spend types.Key) types.Key {
	h := Keccak256(spend[:])
	view := Reduce32(h[:])
	h.Wipe()
	return view
}

// SubaddressScalar returns m = Hs("SubAddr\0" || view || account || index).
func SubaddressScalar(view types.Key, idx types.AddressIndex) *edwards25519.Scalar {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], idx.Account)
	binary.LittleEndian.PutUint32(buf[4:], idx.Index)
	return HashToScalar(subaddressDomain, view[:], buf[:])
}

// SubaddressKeys returns the public spend and view keys of a subaddress.
// For the primary index this is (B, a·G).
func SubaddressKeys(viewSecret, spendPublic types.Key, idx types.AddressIndex) (spend, view types.Key, err error) {
	a, err := ScalarFromKey(viewSecret)
	if err != nil {
		return types.Key{}, types.Key{}, err
	}
	if idx.IsPrimary() {
		return spendPublic, KeyFromPoint(new(edwards25519.Point).ScalarBaseMult(a)), nil
	}
	D, err := SubaddressSpendPoint(viewSecret, spendPublic, idx)
	if err != nil {
		return types.Key{}, types.Key{}, err
	}
	C := new(edwards25519.Point).ScalarMult(a, D)
	return KeyFromPoint(D), KeyFromPoint(C), nil
}

// SubaddressSpendPoint returns D = B + m·G.
func SubaddressSpendPoint(viewSecret, spendPublic types.Key, idx types.AddressIndex) (*edwards25519.Point, error) {
	B, err := PointFromKey(spendPublic)
	if err != nil {
		return nil, err
	}
	if idx.IsPrimary() {
		return B, nil
	}
	m := SubaddressScalar(viewSecret, idx)
	mG := new(edwards25519.Point).ScalarBaseMult(m)
	return new(edwards25519.Point).Add(B, mG), nil
}

// SubaddressSpendSecret returns b + m, the secret behind D.
func SubaddressSpendSecret(spendSecret, viewSecret types.Key, idx types.AddressIndex) (types.Key, error) {
	b, err := ScalarFromKey(spendSecret)
	if err != nil {
		return types.Key{}, err
	}
	if idx.IsPrimary() {
		return spendSecret, nil
	}
	m := SubaddressScalar(viewSecret, idx)
	return KeyFromScalar(edwards25519.NewScalar().Add(b, m)), nil
}
