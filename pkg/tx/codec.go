package tx

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Codec converts between wire blobs and the transaction model. The wallet
// only depends on this interface; EnvelopeCodec is the built-in format.
type Codec interface {
	EncodeOutputs(network types.Network, outputs []Output) ([]byte, error)
	DecodeOutputs(blob []byte) (types.Network, []Output, error)
	EncodeKeyImages(network types.Network, images []KeyImage) ([]byte, error)
	DecodeKeyImages(blob []byte) (types.Network, []KeyImage, error)
	EncodeUnsigned(u *Unsigned) ([]byte, error)
	DecodeUnsigned(blob []byte) (*Unsigned, error)
	EncodeSigned(s *Signed) ([]byte, error)
	DecodeSigned(blob []byte) (*Signed, error)
}

// Envelope kinds.
const (
	KindOutputs   = "outputs"
	KindKeyImages = "key_images"
	KindUnsigned  = "unsigned_tx"
	KindSigned    = "signed_tx"
)

const (
	envelopeMagic   = "ots"
	envelopeVersion = 1
)

// envelope is the JSON wrapper of every blob: a magic string, the payload
// kind, the network and a BLAKE3 digest of the payload.
type envelope struct {
	Magic   string          `json:"magic"`
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Network string          `json:"network"`
	Digest  types.Key       `json:"digest"`
	Payload json.RawMessage `json:"payload"`
}

// EnvelopeCodec is the JSON envelope format shared by the CLI and RPC.
type EnvelopeCodec struct{}

var _ Codec = EnvelopeCodec{}

func (EnvelopeCodec) seal(kind string, network types.Network, payload any) ([]byte, error) {
	if !network.Valid() {
		return nil, fmt.Errorf("unknown network %d", network)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	return json.Marshal(envelope{
		Magic:   envelopeMagic,
		Version: envelopeVersion,
		Kind:    kind,
		Network: network.String(),
		Digest:  crypto.Hash(raw),
		Payload: raw,
	})
}

// open checks the envelope and unmarshals its payload into v. Failures wrap
// sentinel.
func (EnvelopeCodec) open(blob []byte, kind string, sentinel error, v any) (types.Network, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return 0, fmt.Errorf("%w: %v", sentinel, err)
	}
	if env.Magic != envelopeMagic || env.Version != envelopeVersion {
		return 0, fmt.Errorf("%w: not an OTS v%d envelope", sentinel, envelopeVersion)
	}
	if env.Kind != kind {
		return 0, fmt.Errorf("%w: envelope holds %q, want %q", sentinel, env.Kind, kind)
	}
	network, err := types.ParseNetwork(env.Network)
	if err != nil || env.Network == "" {
		return 0, fmt.Errorf("%w: network %q", sentinel, env.Network)
	}
	// The digest covers the compact payload, so re-indented blobs still open.
	var compact bytes.Buffer
	if err := json.Compact(&compact, env.Payload); err != nil {
		return 0, fmt.Errorf("%w: %v", sentinel, err)
	}
	if crypto.Hash(compact.Bytes()) != env.Digest {
		return 0, fmt.Errorf("%w: payload digest mismatch", sentinel)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return 0, fmt.Errorf("%w: %v", sentinel, err)
	}
	return network, nil
}

// EncodeOutputs wraps outputs exported by a view-only wallet.
func (c EnvelopeCodec) EncodeOutputs(network types.Network, outputs []Output) ([]byte, error) {
	return c.seal(KindOutputs, network, outputs)
}

// DecodeOutputs parses an outputs envelope.
func (c EnvelopeCodec) DecodeOutputs(blob []byte) (types.Network, []Output, error) {
	var outputs []Output
	network, err := c.open(blob, KindOutputs, ErrInvalidOutputs, &outputs)
	if err != nil {
		return 0, nil, err
	}
	return network, outputs, nil
}

// EncodeKeyImages wraps exported key images.
func (c EnvelopeCodec) EncodeKeyImages(network types.Network, images []KeyImage) ([]byte, error) {
	return c.seal(KindKeyImages, network, images)
}

// DecodeKeyImages parses a key-image envelope.
func (c EnvelopeCodec) DecodeKeyImages(blob []byte) (types.Network, []KeyImage, error) {
	var images []KeyImage
	network, err := c.open(blob, KindKeyImages, ErrInvalidOutputs, &images)
	if err != nil {
		return 0, nil, err
	}
	return network, images, nil
}

// EncodeUnsigned wraps an unsigned transaction set.
func (c EnvelopeCodec) EncodeUnsigned(u *Unsigned) ([]byte, error) {
	return c.seal(KindUnsigned, u.Network, u)
}

// DecodeUnsigned parses an unsigned transaction set.
func (c EnvelopeCodec) DecodeUnsigned(blob []byte) (*Unsigned, error) {
	u := &Unsigned{}
	network, err := c.open(blob, KindUnsigned, ErrInvalidTransaction, u)
	if err != nil {
		return nil, err
	}
	u.Network = network
	return u, nil
}

// EncodeSigned wraps a signed transaction set.
func (c EnvelopeCodec) EncodeSigned(s *Signed) ([]byte, error) {
	return c.seal(KindSigned, s.Network, s)
}

// DecodeSigned parses a signed transaction set.
func (c EnvelopeCodec) DecodeSigned(blob []byte) (*Signed, error) {
	s := &Signed{}
	network, err := c.open(blob, KindSigned, ErrInvalidTransaction, s)
	if err != nil {
		return nil, err
	}
	s.Network = network
	return s, nil
}

// UnsignedHash returns the digest a signed set is bound to: the BLAKE3 hash
// of the canonical encoding of u.
func UnsignedHash(u *Unsigned) (types.Key, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return types.Key{}, err
	}
	return crypto.Hash(append([]byte(u.Network.String()+":"), raw...)), nil
}
