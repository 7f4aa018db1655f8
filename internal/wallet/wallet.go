// Package wallet derives view/spend keys, addresses and subaddresses from a
// spend secret and implements the offline signer operations on top of them:
// message signing, output import, key image export and transaction signing.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"filippo.io/edwards25519"

	"github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/tx"
	"github.com/Klingon-tech/ots/pkg/types"
)

var (
	// ErrAddressNotFound is returned when a bounded search does not reach
	// the address.
	ErrAddressNotFound = errors.New("address not found")
	// ErrNoKeyImages is returned when key images are requested before any
	// outputs were imported.
	ErrNoKeyImages = errors.New("no key images")
)

// Wallet holds the key pairs of one seed. It is safe for concurrent use.
type Wallet struct {
	network types.Network
	height  uint64
	spend   crypto.KeyPair
	view    crypto.KeyPair
	codec   tx.Codec

	mu      sync.Mutex
	outputs map[types.Key]*ownedOutput
	order   []types.Key
}

// New derives a wallet from a canonical spend secret; the view secret is
// Hs(spend).
func New(spendSecret types.Key, height uint64, network types.Network) (*Wallet, error) {
	view := crypto.ViewFromSpend(spendSecret)
	defer view.Wipe()
	return NewWithViewKey(spendSecret, view, height, network)
}

// NewWithViewKey builds a wallet from explicit spend and view secrets, as
// needed for seeds whose view key is not Hs(spend).
func NewWithViewKey(spendSecret, viewSecret types.Key, height uint64, network types.Network) (*Wallet, error) {
	if !network.Valid() {
		return nil, fmt.Errorf("unknown network %d", network)
	}
	spend, err := crypto.NewKeyPair(spendSecret)
	if err != nil {
		return nil, fmt.Errorf("spend key: %w", err)
	}
	view, err := crypto.NewKeyPair(viewSecret)
	if err != nil {
		spend.Wipe()
		return nil, fmt.Errorf("view key: %w", err)
	}
	return &Wallet{
		network: network,
		height:  height,
		spend:   spend,
		view:    view,
		codec:   tx.EnvelopeCodec{},
		outputs: make(map[types.Key]*ownedOutput),
	}, nil
}

// SetCodec replaces the blob codec used for outputs and transactions.
func (w *Wallet) SetCodec(c tx.Codec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.codec = c
}

// Network returns the wallet's network.
func (w *Wallet) Network() types.Network { return w.network }

// Height returns the restore height.
func (w *Wallet) Height() uint64 { return w.height }

// SpendPublic returns the public spend key B.
func (w *Wallet) SpendPublic() types.Key { return w.spend.Public }

// ViewPublic returns the public view key A.
func (w *Wallet) ViewPublic() types.Key { return w.view.Public }

// Address returns the primary standard address.
func (w *Wallet) Address() address.Address {
	return address.New(w.network, types.AddressStandard, w.spend.Public, w.view.Public)
}

// Subaddress returns the address at (account, index). (0, 0) is the
// primary address.
func (w *Wallet) Subaddress(account, index uint32) (address.Address, error) {
	idx := types.AddressIndex{Account: account, Index: index}
	if idx.IsPrimary() {
		return w.Address(), nil
	}
	spend, view, err := crypto.SubaddressKeys(w.view.Secret, w.spend.Public, idx)
	if err != nil {
		return address.Address{}, fmt.Errorf("subaddress %s: %w", idx, err)
	}
	return address.New(w.network, types.AddressSubaddress, spend, view), nil
}

// Accounts returns the first address of max accounts starting at offset.
func (w *Wallet) Accounts(max, offset uint32) ([]address.Address, error) {
	out := make([]address.Address, 0, max)
	for i := uint32(0); i < max; i++ {
		a, err := w.Subaddress(offset+i, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SubAddresses returns max addresses of account starting at index offset.
func (w *Wallet) SubAddresses(account, max, offset uint32) ([]address.Address, error) {
	out := make([]address.Address, 0, max)
	for i := uint32(0); i < max; i++ {
		a, err := w.Subaddress(account, offset+i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FindAddress searches accounts [0, maxAccount) and indices [0, maxIndex)
// in account-major order for addr. Integrated addresses match by their
// base address. Only the spend public key is compared.
func (w *Wallet) FindAddress(addr string, maxAccount, maxIndex uint32) (types.AddressIndex, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return types.AddressIndex{}, err
	}
	return w.FindParsedAddress(a, maxAccount, maxIndex)
}

// FindParsedAddress is FindAddress for a decoded address.
func (w *Wallet) FindParsedAddress(a address.Address, maxAccount, maxIndex uint32) (types.AddressIndex, error) {
	defer log.Benchmark("find_address")()

	if a.IsIntegrated() {
		base, err := a.Base()
		if err != nil {
			return types.AddressIndex{}, err
		}
		a = base
	}
	if a.Network != w.network {
		return types.AddressIndex{}, fmt.Errorf("%w: address is on %s, wallet on %s", ErrAddressNotFound, a.Network, w.network)
	}

	B, err := crypto.PointFromKey(w.spend.Public)
	if err != nil {
		return types.AddressIndex{}, err
	}
	target := a.Spend
	D := new(edwards25519.Point)
	for acc := uint32(0); acc < maxAccount; acc++ {
		for i := uint32(0); i < maxIndex; i++ {
			idx := types.AddressIndex{Account: acc, Index: i}
			if idx.IsPrimary() {
				if target == w.spend.Public {
					return idx, nil
				}
				continue
			}
			m := crypto.SubaddressScalar(w.view.Secret, idx)
			D.ScalarBaseMult(m)
			D.Add(D, B)
			if crypto.KeyFromPoint(D) == target {
				return idx, nil
			}
		}
	}
	return types.AddressIndex{}, fmt.Errorf("%w: searched %d accounts x %d indices", ErrAddressNotFound, maxAccount, maxIndex)
}

// HasAddress reports whether FindAddress succeeds within the bounds.
func (w *Wallet) HasAddress(addr string, maxAccount, maxIndex uint32) bool {
	_, err := w.FindAddress(addr, maxAccount, maxIndex)
	return err == nil
}

// KeyExport holds hex-encoded keys in wipeable buffers.
type KeyExport struct {
	SpendSecret []byte
	SpendPublic []byte
	ViewSecret  []byte
	ViewPublic  []byte
}

// Wipe zeroes all four buffers.
func (k *KeyExport) Wipe() {
	for _, b := range [][]byte{k.SpendSecret, k.SpendPublic, k.ViewSecret, k.ViewPublic} {
		for i := range b {
			b[i] = 0
		}
	}
}

// Release is Wipe.
func (k *KeyExport) Release() { k.Wipe() }

func hexBytes(k types.Key) []byte {
	out := make([]byte, hex.EncodedLen(len(k)))
	hex.Encode(out, k[:])
	return out
}

// Keys exports the wallet keys as hex. Callers must Wipe the result.
func (w *Wallet) Keys() *KeyExport {
	return &KeyExport{
		SpendSecret: hexBytes(w.spend.Secret),
		SpendPublic: hexBytes(w.spend.Public),
		ViewSecret:  hexBytes(w.view.Secret),
		ViewPublic:  hexBytes(w.view.Public),
	}
}

// Wipe zeroes the secrets and forgets imported outputs.
func (w *Wallet) Wipe() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spend.Wipe()
	w.view.Wipe()
	for _, o := range w.outputs {
		o.wipe()
	}
	w.outputs = make(map[types.Key]*ownedOutput)
	w.order = nil
}

// Release wipes the wallet; it satisfies the handle release contract.
func (w *Wallet) Release() {
	w.Wipe()
}
