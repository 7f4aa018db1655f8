// Package address encodes and parses Monero-style public addresses.
//
// Wire layout: varint(prefix) || spend public key || view public key
// [|| 8-byte payment id] || first 4 bytes of Keccak256 of everything before.
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/ots/pkg/base58"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Sizes of the fixed address components.
const (
	PaymentIDSize  = 8
	checksumSize   = 4
	StandardLength = 95
	IntegratedLen  = 106
)

var (
	// ErrInvalidAddress is returned for strings that do not parse as an address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNotIntegrated is returned when a payment id is requested from a
	// non-integrated address.
	ErrNotIntegrated = errors.New("address is not integrated")
)

type prefixKey struct {
	network types.Network
	kind    types.AddressType
}

var prefixes = map[prefixKey]uint64{
	{types.NetworkMain, types.AddressStandard}:    18,
	{types.NetworkMain, types.AddressIntegrated}:  19,
	{types.NetworkMain, types.AddressSubaddress}:  42,
	{types.NetworkTest, types.AddressStandard}:    53,
	{types.NetworkTest, types.AddressIntegrated}:  54,
	{types.NetworkTest, types.AddressSubaddress}:  63,
	{types.NetworkStage, types.AddressStandard}:   24,
	{types.NetworkStage, types.AddressIntegrated}: 25,
	{types.NetworkStage, types.AddressSubaddress}: 36,
}

var prefixLookup = func() map[uint64]prefixKey {
	m := make(map[uint64]prefixKey, len(prefixes))
	for k, v := range prefixes {
		m[v] = k
	}
	return m
}()

// Address is a decoded public address.
type Address struct {
	Network   types.Network
	Type      types.AddressType
	Spend     types.Key
	View      types.Key
	PaymentID [PaymentIDSize]byte
}

// New builds a standard or subaddress from its public keys.
func New(network types.Network, kind types.AddressType, spend, view types.Key) Address {
	return Address{Network: network, Type: kind, Spend: spend, View: view}
}

// NewIntegrated attaches a payment id to a standard address.
func NewIntegrated(base Address, paymentID [PaymentIDSize]byte) (Address, error) {
	if base.Type != types.AddressStandard {
		return Address{}, fmt.Errorf("%w: integrated addresses require a standard base", ErrInvalidAddress)
	}
	base.Type = types.AddressIntegrated
	base.PaymentID = paymentID
	return base, nil
}

// Parse decodes an address string, verifying prefix, length and checksum.
func Parse(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	prefix, n := binary.Uvarint(raw)
	if n <= 0 {
		return Address{}, fmt.Errorf("%w: bad prefix", ErrInvalidAddress)
	}
	key, ok := prefixLookup[prefix]
	if !ok {
		return Address{}, fmt.Errorf("%w: unknown prefix %d", ErrInvalidAddress, prefix)
	}

	want := n + 2*types.KeySize + checksumSize
	if key.kind == types.AddressIntegrated {
		want += PaymentIDSize
	}
	if len(raw) != want {
		return Address{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidAddress, len(raw), want)
	}

	body := raw[:len(raw)-checksumSize]
	sum := crypto.Keccak256(body)
	if !bytes.Equal(sum[:checksumSize], raw[len(raw)-checksumSize:]) {
		return Address{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	a := Address{Network: key.network, Type: key.kind}
	copy(a.Spend[:], body[n:n+types.KeySize])
	copy(a.View[:], body[n+types.KeySize:n+2*types.KeySize])
	if key.kind == types.AddressIntegrated {
		copy(a.PaymentID[:], body[n+2*types.KeySize:])
	}
	if _, err := crypto.PointFromKey(a.Spend); err != nil {
		return Address{}, fmt.Errorf("%w: spend key", ErrInvalidAddress)
	}
	if _, err := crypto.PointFromKey(a.View); err != nil {
		return Address{}, fmt.Errorf("%w: view key", ErrInvalidAddress)
	}
	return a, nil
}

// String returns the base58 form.
func (a Address) String() string {
	prefix, ok := prefixes[prefixKey{a.Network, a.Type}]
	if !ok {
		return ""
	}
	buf := make([]byte, 0, binary.MaxVarintLen64+2*types.KeySize+PaymentIDSize+checksumSize)
	buf = binary.AppendUvarint(buf, prefix)
	buf = append(buf, a.Spend[:]...)
	buf = append(buf, a.View[:]...)
	if a.Type == types.AddressIntegrated {
		buf = append(buf, a.PaymentID[:]...)
	}
	sum := crypto.Keccak256(buf)
	buf = append(buf, sum[:checksumSize]...)
	return base58.Encode(buf)
}

// Len returns the length of the base58 form.
func (a Address) Len() int {
	return len(a.String())
}

// Fingerprint returns the fingerprint of the base58 form.
func (a Address) Fingerprint() string {
	return Fingerprint(a.String())
}

// IsIntegrated reports whether the address carries a payment id.
func (a Address) IsIntegrated() bool {
	return a.Type == types.AddressIntegrated
}

// PaymentIDHex returns the payment id as 16 hex characters.
func (a Address) PaymentIDHex() (string, error) {
	if !a.IsIntegrated() {
		return "", ErrNotIntegrated
	}
	return hex.EncodeToString(a.PaymentID[:]), nil
}

// Base strips the payment id from an integrated address.
func (a Address) Base() (Address, error) {
	if !a.IsIntegrated() {
		return Address{}, ErrNotIntegrated
	}
	a.Type = types.AddressStandard
	a.PaymentID = [PaymentIDSize]byte{}
	return a, nil
}

// Equal compares all address fields.
func (a Address) Equal(b Address) bool {
	return a == b
}

// MarshalJSON encodes the address as its base58 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a base58 address string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Fingerprint returns the uppercase last six hex characters of
// SHA-256(s). It is used as a short identifier for seeds and addresses.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	h := hex.EncodeToString(sum[:])
	return strings.ToUpper(h[len(h)-6:])
}

// Valid reports whether s parses as an address on the given network.
func Valid(s string, network types.Network) bool {
	a, err := Parse(s)
	return err == nil && a.Network == network
}
