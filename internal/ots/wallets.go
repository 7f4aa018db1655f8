package ots

import (
	"github.com/Klingon-tech/ots/internal/seed"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/types"
)

// NewWallet builds a standalone wallet from a 32-byte spend secret.
func (o *OTS) NewWallet(spendSecret []byte, height uint64, network types.Network) Result {
	key, err := types.KeyFromBytes(spendSecret)
	if err != nil {
		return Fail(errorf(ErrInvalidInput, "spend secret: %v", err))
	}
	defer key.Wipe()
	w, err := wallet.New(key, height, network)
	if err != nil {
		return Fail(err)
	}
	w.SetCodec(o.codec)
	return HandleResult(Own(w))
}

// WalletAddress returns the primary address. h may hold a seed or a wallet.
func (o *OTS) WalletAddress(h *Handle) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	return StringResult(w.Address().String())
}

// WalletSubaddress returns the address at (account, index).
func (o *OTS) WalletSubaddress(h *Handle, account, index uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	a, err := w.Subaddress(account, index)
	if err != nil {
		return Fail(err)
	}
	return StringResult(a.String())
}

func addressStrings(as []address.Address) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.String()
	}
	return out
}

// WalletAccounts returns the first address of max accounts from offset.
func (o *OTS) WalletAccounts(h *Handle, max, offset uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	as, err := w.Accounts(max, offset)
	if err != nil {
		return Fail(err)
	}
	return ArrayResult(OwnArray(addressStrings(as)))
}

// WalletSubAddresses returns max addresses of account from offset.
func (o *OTS) WalletSubAddresses(h *Handle, account, max, offset uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	as, err := w.SubAddresses(account, max, offset)
	if err != nil {
		return Fail(err)
	}
	return ArrayResult(OwnArray(addressStrings(as)))
}

// WalletFindAddress searches the configured bounds for addr.
func (o *OTS) WalletFindAddress(h *Handle, addr string) Result {
	maxAccount, maxIndex := o.settings.Depth()
	return o.WalletFindAddressWithDepth(h, addr, maxAccount, maxIndex)
}

// WalletFindAddressWithDepth searches accounts [0, maxAccount) and
// indices [0, maxIndex) for addr, ignoring the configured bounds.
func (o *OTS) WalletFindAddressWithDepth(h *Handle, addr string, maxAccount, maxIndex uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	if maxAccount == 0 || maxIndex == 0 {
		return Fail(errorf(ErrInvalidInput, "search depth must be positive, got %d x %d", maxAccount, maxIndex))
	}
	idx, err := w.FindAddress(addr, maxAccount, maxIndex)
	return result(idx, err, IndexResult)
}

// WalletHasAddress reports whether addr lies within the configured bounds.
func (o *OTS) WalletHasAddress(h *Handle, addr string) Result {
	maxAccount, maxIndex := o.settings.Depth()
	return o.WalletHasAddressWithDepth(h, addr, maxAccount, maxIndex)
}

// WalletHasAddressWithDepth is WalletHasAddress with explicit bounds.
func (o *OTS) WalletHasAddressWithDepth(h *Handle, addr string, maxAccount, maxIndex uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	if maxAccount == 0 || maxIndex == 0 {
		return Fail(errorf(ErrInvalidInput, "search depth must be positive, got %d x %d", maxAccount, maxIndex))
	}
	return BoolResult(w.HasAddress(addr, maxAccount, maxIndex))
}

// WalletKeys exports the wallet keys as an owned KeyExport.
func (o *OTS) WalletKeys(h *Handle) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(w.Keys()))
}

// WalletHeight returns the restore height.
func (o *OTS) WalletHeight(h *Handle) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	return NumberResult(int64(w.Height()))
}

// WalletNetwork returns the network.
func (o *OTS) WalletNetwork(h *Handle) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	return NetworkResult(w.Network())
}

// SignData signs data with the primary address.
func (o *OTS) SignData(h *Handle, data []byte) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	sig, err := w.SignData(data)
	return result(sig, err, StringResult)
}

// SignDataWithIndex signs data with the subaddress at (account, index).
func (o *OTS) SignDataWithIndex(h *Handle, data []byte, account, index uint32) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	sig, err := w.SignDataWithIndex(data, account, index)
	return result(sig, err, StringResult)
}

// SignDataWithAddress signs data with the subaddress addr, searched within
// the configured bounds.
func (o *OTS) SignDataWithAddress(h *Handle, data []byte, addr string) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	maxAccount, maxIndex := o.settings.Depth()
	sig, err := w.SignDataWithAddress(data, addr, maxAccount, maxIndex)
	return result(sig, err, StringResult)
}

// VerifyData checks a message signature against addr.
func (o *OTS) VerifyData(data []byte, signature, addr string, legacyFallback bool) Result {
	ok, err := wallet.VerifyDataWithAddress(data, signature, addr, legacyFallback)
	return result(ok, err, BoolResult)
}

// ImportOutputs imports an outputs blob and returns the owned count.
func (o *OTS) ImportOutputs(h *Handle, blob []byte) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	n, err := w.ImportOutputs(blob)
	if err != nil {
		return Fail(err)
	}
	return NumberResult(int64(n))
}

// ExportKeyImages returns the key-image blob of the imported outputs.
func (o *OTS) ExportKeyImages(h *Handle) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	blob, err := w.ExportKeyImages()
	if err != nil {
		return Fail(err)
	}
	return StringResult(string(blob))
}

// DescribeTransaction decodes an unsigned set into an owned description.
func (o *OTS) DescribeTransaction(h *Handle, blob []byte) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	d, err := w.DescribeTransaction(blob)
	if err != nil {
		return Fail(err)
	}
	return HandleResult(Own(d))
}

// CheckTransaction returns the warnings raised by an unsigned set.
func (o *OTS) CheckTransaction(h *Handle, blob []byte) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	maxAccount, maxIndex := o.settings.Depth()
	ws, err := w.CheckTransaction(blob, maxAccount, maxIndex)
	if err != nil {
		return Fail(err)
	}
	return ArrayResult(OwnArray(ws))
}

// SignTransaction signs an unsigned set and returns the signed blob.
func (o *OTS) SignTransaction(h *Handle, blob []byte) Result {
	w, err := walletOf(h)
	if err != nil {
		return Fail(err)
	}
	signed, err := w.SignTransaction(blob)
	if err != nil {
		return Fail(err)
	}
	return StringResult(string(signed))
}

// VerifySigned checks a signed set against its unsigned set.
func (o *OTS) VerifySigned(unsigned, signed []byte) Result {
	ok, err := wallet.VerifySigned(o.codec, unsigned, signed)
	return result(ok, err, BoolResult)
}

// SaveJar writes the jar to ks, encrypted with password.
func (o *OTS) SaveJar(ks *wallet.Keystore, password []byte, params wallet.EncryptionParams) Result {
	if err := o.jar.Save(ks, password, params); err != nil {
		return Fail(err)
	}
	return NumberResult(int64(o.jar.Count()))
}

// LoadJar adds the seeds stored in ks to the jar and returns how many
// were added.
func (o *OTS) LoadJar(ks *wallet.Keystore, password []byte) Result {
	n, err := o.jar.Load(ks, password)
	if err != nil {
		return Fail(err)
	}
	seeds := o.jar.Seeds()
	for i := 0; i < seeds.Len(); i++ {
		if s, err := ArrayAt[seed.Seed](seeds, i); err == nil {
			o.adopt(s)
		}
	}
	return NumberResult(int64(n))
}
