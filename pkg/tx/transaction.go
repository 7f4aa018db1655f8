// Package tx defines the offline transaction model: imported outputs,
// exported key images, unsigned transaction sets and their signed
// counterparts, plus the human-readable description shown before signing.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Flow is an amount sent to an address.
type Flow struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Transfer describes one transaction of an unsigned set.
type Transfer struct {
	AmountIn     uint64 `json:"amount_in"`
	AmountOut    uint64 `json:"amount_out"`
	RingSize     uint32 `json:"ring_size"`
	UnlockTime   uint64 `json:"unlock_time"`
	Flows        []Flow `json:"flows"`
	Change       *Flow  `json:"change,omitempty"`
	Fee          uint64 `json:"fee"`
	PaymentID    string `json:"payment_id,omitempty"`
	DummyOutputs uint32 `json:"dummy_outputs"`
	Extra        []byte `json:"tx_extra,omitempty"`
}

// HasChange reports whether the transfer returns change.
func (t *Transfer) HasChange() bool {
	return t.Change != nil && t.Change.Amount > 0
}

// Description summarizes an unsigned transaction set.
type Description struct {
	TxSet     []byte     `json:"-"`
	AmountIn  uint64     `json:"amount_in"`
	AmountOut uint64     `json:"amount_out"`
	Flows     []Flow     `json:"flows"`
	Change    *Flow      `json:"change,omitempty"`
	Fee       uint64     `json:"fee"`
	Transfers []Transfer `json:"transfers"`
}

// HasChange reports whether any transfer returns change.
func (d *Description) HasChange() bool {
	return d.Change != nil && d.Change.Amount > 0
}

// Severity grades a Warning.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Warning is a finding of CheckTransaction.
type Warning struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Output is an output received by a view-only wallet, as exported for the
// offline signer.
type Output struct {
	TxPubKey   types.Key          `json:"tx_pub_key"`
	OutputKey  types.Key          `json:"output_key"`
	Index      uint64             `json:"index"`
	Amount     uint64             `json:"amount"`
	Subaddress types.AddressIndex `json:"subaddress"`
}

// KeyImage is the key image of an owned output, signed with the output's
// one-time secret.
type KeyImage struct {
	OutputKey types.Key        `json:"output_key"`
	Image     types.Key        `json:"key_image"`
	Signature crypto.Signature `json:"-"`
}

type keyImageJSON struct {
	OutputKey types.Key `json:"output_key"`
	Image     types.Key `json:"key_image"`
	Signature string    `json:"signature"`
}

// MarshalJSON encodes the key image with a hex signature.
func (k KeyImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyImageJSON{
		OutputKey: k.OutputKey,
		Image:     k.Image,
		Signature: hex.EncodeToString(k.Signature.Bytes()),
	})
}

// UnmarshalJSON decodes a key image with a hex signature.
func (k *KeyImage) UnmarshalJSON(data []byte) error {
	var j keyImageJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	raw, err := hex.DecodeString(j.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	sig, err := crypto.SignatureFromBytes(raw)
	if err != nil {
		return err
	}
	k.OutputKey, k.Image, k.Signature = j.OutputKey, j.Image, sig
	return nil
}

// Input spends a previously imported output.
type Input struct {
	OutputKey types.Key `json:"output_key"`
	Amount    uint64    `json:"amount"`
}

// UnsignedTransfer is one transaction of an unsigned set.
type UnsignedTransfer struct {
	Inputs       []Input `json:"inputs"`
	Destinations []Flow  `json:"destinations"`
	Change       *Flow   `json:"change,omitempty"`
	Fee          uint64  `json:"fee"`
	RingSize     uint32  `json:"ring_size"`
	UnlockTime   uint64  `json:"unlock_time"`
	PaymentID    string  `json:"payment_id,omitempty"`
	DummyOutputs uint32  `json:"dummy_outputs"`
	Extra        []byte  `json:"extra,omitempty"`
}

// AmountIn returns the sum of the inputs.
func (u *UnsignedTransfer) AmountIn() (uint64, error) {
	var total uint64
	for i, in := range u.Inputs {
		if total+in.Amount < total {
			return 0, fmt.Errorf("input %d: %w", i, ErrAmountOverflow)
		}
		total += in.Amount
	}
	return total, nil
}

// AmountOut returns the sum of destinations and change.
func (u *UnsignedTransfer) AmountOut() (uint64, error) {
	var total uint64
	flows := u.Destinations
	if u.Change != nil {
		flows = append(flows[:len(flows):len(flows)], *u.Change)
	}
	for i, f := range flows {
		if total+f.Amount < total {
			return 0, fmt.Errorf("output %d: %w", i, ErrAmountOverflow)
		}
		total += f.Amount
	}
	return total, nil
}

// Unsigned is a set of transactions prepared by a view-only wallet.
type Unsigned struct {
	Network   types.Network      `json:"-"`
	Transfers []UnsignedTransfer `json:"transfers"`
}

// SignedInput carries the key image and ownership proof for one input.
type SignedInput struct {
	OutputKey types.Key        `json:"output_key"`
	KeyImage  types.Key        `json:"key_image"`
	Signature crypto.Signature `json:"-"`
}

type signedInputJSON struct {
	OutputKey types.Key `json:"output_key"`
	KeyImage  types.Key `json:"key_image"`
	Signature string    `json:"signature"`
}

// MarshalJSON encodes the input with a hex signature.
func (s SignedInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(signedInputJSON{
		OutputKey: s.OutputKey,
		KeyImage:  s.KeyImage,
		Signature: hex.EncodeToString(s.Signature.Bytes()),
	})
}

// UnmarshalJSON decodes an input with a hex signature.
func (s *SignedInput) UnmarshalJSON(data []byte) error {
	var j signedInputJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	raw, err := hex.DecodeString(j.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	sig, err := crypto.SignatureFromBytes(raw)
	if err != nil {
		return err
	}
	s.OutputKey, s.KeyImage, s.Signature = j.OutputKey, j.KeyImage, sig
	return nil
}

// Signed is the result of signing an Unsigned set. UnsignedHash binds the
// signatures to the exact set that was reviewed.
type Signed struct {
	Network      types.Network   `json:"-"`
	UnsignedHash types.Key       `json:"unsigned_hash"`
	Transfers    [][]SignedInput `json:"transfers"`
}

// InputMessage returns the hash signed for one input of a signed set.
func InputMessage(unsignedHash, keyImage types.Key) types.Key {
	return crypto.Keccak256(unsignedHash[:], keyImage[:])
}

// KeyImageMessage returns the hash signed for an exported key image.
func KeyImageMessage(outputKey, keyImage types.Key) types.Key {
	return crypto.Keccak256(outputKey[:], keyImage[:])
}
