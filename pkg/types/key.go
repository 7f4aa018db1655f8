// Package types defines core primitive types shared across OTS.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// KeySize is the length of a scalar or compressed point in bytes.
const KeySize = 32

// Key is a 32-byte curve scalar or compressed point.
type Key [KeySize]byte

// IsZero returns true if the key is all zeros.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String returns the hex-encoded key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Bytes returns a copy of the key as a byte slice.
func (k Key) Bytes() []byte {
	b := make([]byte, KeySize)
	copy(b, k[:])
	return b
}

// Wipe overwrites the key with zeros.
func (k *Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// MarshalJSON encodes the key as a hex string.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a hex string into a key.
func (k *Key) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*k = Key{}
		return nil
	}
	decoded, err := HexToKey(s)
	if err != nil {
		return err
	}
	*k = decoded
	return nil
}

// HexToKey converts a hex string to a Key.
// Returns an error if the string is not exactly 64 hex characters.
func HexToKey(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != KeySize {
		return Key{}, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(b))
	}
	var k Key
	copy(k[:], b)
	return k, nil
}

// KeyFromBytes copies a 32-byte slice into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeySize {
		return Key{}, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(b))
	}
	var k Key
	copy(k[:], b)
	return k, nil
}
