package wallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/base58"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Message signature prefixes.
const (
	SignatureV1Prefix = "SigV1"
	SignatureV2Prefix = "SigV2"
)

const messageDomain = "MoneroMessageSignature\x00"

// Signing modes mixed into the V2 message hash.
const (
	modeSpend byte = 0
	modeView  byte = 1
)

// ErrMalformedSignature is returned for strings that are not message
// signatures.
var ErrMalformedSignature = errors.New("malformed message signature")

// MessageHashV2 binds data to the address keys and the signing mode.
func MessageHashV2(data []byte, spendPub, viewPub types.Key, mode byte) types.Key {
	n := binary.AppendUvarint(nil, uint64(len(data)))
	return crypto.Keccak256([]byte(messageDomain), spendPub[:], viewPub[:], []byte{mode}, n, data)
}

// MessageHashV1 is the legacy message hash.
func MessageHashV1(data []byte) types.Key {
	return crypto.Keccak256(data)
}

// SignData signs data with the primary spend key.
func (w *Wallet) SignData(data []byte) (string, error) {
	return w.SignDataWithIndex(data, 0, 0)
}

// SignDataWithIndex signs data with the spend key of the subaddress at
// (account, index).
func (w *Wallet) SignDataWithIndex(data []byte, account, index uint32) (string, error) {
	idx := types.AddressIndex{Account: account, Index: index}
	secret, err := crypto.SubaddressSpendSecret(w.spend.Secret, w.view.Secret, idx)
	if err != nil {
		return "", err
	}
	defer secret.Wipe()

	addr, err := w.Subaddress(account, index)
	if err != nil {
		return "", err
	}
	hash := MessageHashV2(data, addr.Spend, addr.View, modeSpend)
	sig, err := crypto.GenerateSignature(hash, addr.Spend, secret)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return SignatureV2Prefix + base58.Encode(sig.Bytes()), nil
}

// SignDataWithAddress signs data with the subaddress matching addr, found
// within the search bounds.
func (w *Wallet) SignDataWithAddress(data []byte, addr string, maxAccount, maxIndex uint32) (string, error) {
	idx, err := w.FindAddress(addr, maxAccount, maxIndex)
	if err != nil {
		return "", err
	}
	return w.SignDataWithIndex(data, idx.Account, idx.Index)
}

// VerifyData checks signature over data against the primary address.
func (w *Wallet) VerifyData(data []byte, signature string, legacyFallback bool) (bool, error) {
	return Verify(data, w.Address(), signature, legacyFallback)
}

// VerifyDataWithIndex checks signature against the subaddress at
// (account, index).
func (w *Wallet) VerifyDataWithIndex(data []byte, signature string, account, index uint32, legacyFallback bool) (bool, error) {
	addr, err := w.Subaddress(account, index)
	if err != nil {
		return false, err
	}
	return Verify(data, addr, signature, legacyFallback)
}

// VerifyDataWithAddress checks signature against an arbitrary address.
func VerifyDataWithAddress(data []byte, signature, addr string, legacyFallback bool) (bool, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return false, err
	}
	return Verify(data, a, signature, legacyFallback)
}

// Verify checks a V2 signature made with either the spend or the view key
// of addr. V1 signatures are only accepted with legacyFallback.
func Verify(data []byte, addr address.Address, signature string, legacyFallback bool) (bool, error) {
	if addr.IsIntegrated() {
		base, err := addr.Base()
		if err != nil {
			return false, err
		}
		addr = base
	}

	var v1 bool
	switch {
	case strings.HasPrefix(signature, SignatureV2Prefix):
	case strings.HasPrefix(signature, SignatureV1Prefix):
		v1 = true
	default:
		return false, fmt.Errorf("%w: unknown prefix", ErrMalformedSignature)
	}
	raw, err := base58.Decode(signature[len(SignatureV2Prefix):])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	sig, err := crypto.SignatureFromBytes(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	if v1 {
		if !legacyFallback {
			return false, nil
		}
		hash := MessageHashV1(data)
		return crypto.CheckSignature(hash, addr.Spend, sig) || crypto.CheckSignature(hash, addr.View, sig), nil
	}
	if crypto.CheckSignature(MessageHashV2(data, addr.Spend, addr.View, modeSpend), addr.Spend, sig) {
		return true, nil
	}
	return crypto.CheckSignature(MessageHashV2(data, addr.Spend, addr.View, modeView), addr.View, sig), nil
}

// SignDataView signs data with the view key of the subaddress at
// (account, index), for proofs a view-only holder can produce.
func (w *Wallet) SignDataView(data []byte, account, index uint32) (string, error) {
	idx := types.AddressIndex{Account: account, Index: index}
	secret := w.view.Secret
	if !idx.IsPrimary() {
		spend, err := crypto.SubaddressSpendSecret(w.spend.Secret, w.view.Secret, idx)
		if err != nil {
			return "", err
		}
		secret, err = crypto.MulScalars(w.view.Secret, spend)
		spend.Wipe()
		if err != nil {
			return "", err
		}
		defer secret.Wipe()
	}

	addr, err := w.Subaddress(account, index)
	if err != nil {
		return "", err
	}
	hash := MessageHashV2(data, addr.Spend, addr.View, modeView)
	sig, err := crypto.GenerateSignature(hash, addr.View, secret)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return SignatureV2Prefix + base58.Encode(sig.Bytes()), nil
}
