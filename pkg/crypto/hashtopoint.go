package crypto

import (
	"encoding/binary"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Montgomery curve constant A and the square roots used by the
// hash-to-point map.
var (
	feOne    = new(field.Element).One()
	feZero   = new(field.Element).Zero()
	feMA     *field.Element // -A
	feMA2    *field.Element // -A^2
	feSqrtM1 *field.Element // sqrt(-1)
	feFFFB1  *field.Element // sqrt(-2A(A+2))
	feFFFB2  *field.Element // sqrt(2A(A+2))
	feFFFB3  *field.Element // sqrt(-sqrt(-1)·A(A+2))
	feFFFB4  *field.Element // sqrt(sqrt(-1)·A(A+2))
)

func init() {
	a := feFromUint(486662)
	feMA = new(field.Element).Negate(a)

	feMA2 = new(field.Element).Square(a)
	feMA2.Negate(feMA2)

	feSqrtM1 = mustSqrt(new(field.Element).Negate(feOne))

	aa2 := new(field.Element).Multiply(a, new(field.Element).Add(a, feFromUint(2)))
	twoAA2 := new(field.Element).Add(aa2, aa2)
	feFFFB1 = mustSqrt(new(field.Element).Negate(twoAA2))
	feFFFB2 = mustSqrt(twoAA2)
	iAA2 := new(field.Element).Multiply(feSqrtM1, aa2)
	feFFFB3 = mustSqrt(new(field.Element).Negate(iAA2))
	feFFFB4 = mustSqrt(iAA2)
}

func feFromUint(v uint64) *field.Element {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:8], v)
	fe, err := new(field.Element).SetBytes(b[:])
	if err != nil {
		panic(err)
	}
	return fe
}

func mustSqrt(u *field.Element) *field.Element {
	r, wasSquare := new(field.Element).SqrtRatio(u, feOne)
	if wasSquare != 1 {
		panic("crypto: hash-to-point constant is not a square")
	}
	return r
}

// divPowM1 returns (u/v)^((p+3)/8) computed as u·v^3·(u·v^7)^((p-5)/8).
func divPowM1(u, v *field.Element) *field.Element {
	v3 := new(field.Element).Square(v)
	v3.Multiply(v3, v)
	uv7 := new(field.Element).Square(v3)
	uv7.Multiply(uv7, v)
	uv7.Multiply(uv7, u)
	t := new(field.Element).Pow22523(uv7)
	t.Multiply(t, v3)
	return t.Multiply(t, u)
}

func isNonZero(v *field.Element) bool {
	return v.Equal(feZero) != 1
}

// mapToPoint is the deterministic field-to-curve map applied to a 32-byte
// hash. The result is not yet multiplied by the cofactor.
func mapToPoint(s []byte) *edwards25519.Point {
	u, _ := new(field.Element).SetBytes(s)

	v := new(field.Element).Square(u)
	v.Add(v, v) // 2u^2
	w := new(field.Element).Add(v, feOne)
	x := new(field.Element).Square(w)
	y := new(field.Element).Multiply(feMA2, v) // -2A^2u^2
	x.Add(x, y)

	rX := divPowM1(w, x)
	y.Square(rX)
	x.Multiply(y, x)
	y.Subtract(w, x)
	z := new(field.Element).Set(feMA)

	var sign int
	if isNonZero(y) {
		y.Add(w, x)
		if isNonZero(y) {
			x.Multiply(x, feSqrtM1)
			y.Subtract(w, x)
			if isNonZero(y) {
				rX.Multiply(rX, feFFFB3)
			} else {
				rX.Multiply(rX, feFFFB4)
			}
			sign = 1
		} else {
			rX.Multiply(rX, feFFFB1)
			rX.Multiply(rX, u)
			z.Multiply(z, v)
		}
	} else {
		rX.Multiply(rX, feFFFB2)
		rX.Multiply(rX, u)
		z.Multiply(z, v)
	}

	if rX.IsNegative() != sign {
		rX.Negate(rX)
	}

	rZ := new(field.Element).Add(z, w)
	rY := new(field.Element).Subtract(z, w)
	rX.Multiply(rX, rZ)

	// Projective (X:Y:Z) to extended (XZ:YZ:Z^2:XY).
	eX := new(field.Element).Multiply(rX, rZ)
	eY := new(field.Element).Multiply(rY, rZ)
	eZ := new(field.Element).Square(rZ)
	eT := new(field.Element).Multiply(rX, rY)
	p, err := new(edwards25519.Point).SetExtendedCoordinates(eX, eY, eZ, eT)
	if err != nil {
		panic("crypto: hash-to-point produced an invalid point")
	}
	return p
}

// HashToPoint maps a key to a point in the prime-order subgroup:
// 8·map(Keccak256(key)).
func HashToPoint(k types.Key) *edwards25519.Point {
	h := Keccak256(k[:])
	p := mapToPoint(h[:])
	return new(edwards25519.Point).MultByCofactor(p)
}

// GenerateKeyImage returns I = sec·Hp(pub).
func GenerateKeyImage(pub, sec types.Key) (types.Key, error) {
	s, err := ScalarFromKey(sec)
	if err != nil {
		return types.Key{}, err
	}
	hp := HashToPoint(pub)
	return KeyFromPoint(new(edwards25519.Point).ScalarMult(s, hp)), nil
}
