package seed

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/ots/internal/polyseed"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// record is the serialized form of a seed kept in the encrypted keystore.
type record struct {
	Version   int    `json:"version"`
	Type      string `json:"type"`
	Network   string `json:"network"`
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
	Secret    string `json:"secret"`
	Offset    string `json:"offset,omitempty"`
}

// Marshal serializes s with its secret in the clear. The result must only
// be stored encrypted; callers wipe it after use.
func Marshal(s Seed) ([]byte, error) {
	rec := record{
		Version:   1,
		Type:      s.Type().String(),
		Network:   s.Network().String(),
		Height:    s.Height(),
		Timestamp: s.Timestamp(),
	}
	var secret []byte
	var offset types.Key
	switch v := s.(type) {
	case *MoneroSeed:
		secret, offset = append(secret, v.secret[:]...), v.offset
	case *LegacySeed:
		secret, offset = append(secret, v.entropy[:]...), v.offset
	case *Polyseed:
		secret = append(secret, v.data.Secret[:]...)
		secret = append(secret, byte(v.data.Birthday), byte(v.data.Birthday>>8), v.data.Features)
		offset = v.offset
	default:
		return nil, fmt.Errorf("%w: cannot serialize %T", ErrInvalidInput, s)
	}
	defer wipe(secret)
	rec.Secret = hex.EncodeToString(secret)
	if !offset.IsZero() {
		rec.Offset = offset.String()
	}
	return json.Marshal(rec)
}

// Unmarshal restores a seed serialized by Marshal.
func Unmarshal(data []byte) (Seed, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: parse seed record: %v", ErrInvalidInput, err)
	}
	if rec.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported seed record version %d", ErrInvalidInput, rec.Version)
	}
	kind, err := types.ParseSeedType(rec.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	network, err := types.ParseNetwork(rec.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	secret, err := hex.DecodeString(rec.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: seed secret: %v", ErrInvalidInput, err)
	}
	defer wipe(secret)
	var offset types.Key
	if rec.Offset != "" {
		if offset, err = types.HexToKey(rec.Offset); err != nil {
			return nil, fmt.Errorf("%w: seed offset: %v", ErrInvalidInput, err)
		}
	}

	switch kind {
	case types.SeedTypeMonero:
		if len(secret) != MoneroKeySize {
			break
		}
		var spend types.Key
		copy(spend[:], secret)
		defer spend.Wipe()
		return restoreMonero(spend, rec.Height, rec.Timestamp, offset, network)
	case types.SeedTypeLegacy:
		if len(secret) != LegacyEntropySize {
			break
		}
		spend, view := legacyKeys(secret)
		defer spend.Wipe()
		defer view.Wipe()
		b, err := newBaseAt(kind, spend, view, rec.Height, rec.Timestamp, offset, network)
		if err != nil {
			return nil, err
		}
		s := &LegacySeed{base: b}
		copy(s.entropy[:], secret)
		return s, nil
	case types.SeedTypePolyseed:
		if len(secret) != polyseed.SecretSize+3 {
			break
		}
		d := &polyseed.Data{
			Birthday: uint16(secret[polyseed.SecretSize]) | uint16(secret[polyseed.SecretSize+1])<<8,
			Features: secret[polyseed.SecretSize+2],
		}
		copy(d.Secret[:], secret)
		return newPolyseed(d, offset, network)
	}
	return nil, fmt.Errorf("%w: %s secret has %d bytes", ErrInvalidInput, kind, len(secret))
}

func restoreMonero(spend types.Key, height, ts uint64, offset types.Key, network types.Network) (*MoneroSeed, error) {
	view := crypto.ViewFromSpend(spend)
	defer view.Wipe()
	b, err := newBaseAt(types.SeedTypeMonero, spend, view, height, ts, offset, network)
	if err != nil {
		return nil, err
	}
	return &MoneroSeed{base: b, secret: spend}, nil
}
