package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"filippo.io/edwards25519"

	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/pkg/address"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/tx"
	"github.com/Klingon-tech/ots/pkg/types"
)

// payTo builds an output paying the primary address addr, the way a
// sender would: R = r·G, P = Hs(8·r·V || i)·G + S.
func payTo(t *testing.T, addr string, outIndex, amount uint64) tx.Output {
	t.Helper()
	a, err := address.Parse(addr)
	if err != nil {
		t.Fatalf("address.Parse() error: %v", err)
	}
	r, err := crypto.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar() error: %v", err)
	}
	R := new(edwards25519.Point).ScalarBaseMult(r)
	derivation, err := crypto.GenerateKeyDerivation(a.View, crypto.KeyFromScalar(r))
	if err != nil {
		t.Fatalf("GenerateKeyDerivation() error: %v", err)
	}
	P, err := crypto.DerivePublicKey(derivation, outIndex, a.Spend)
	if err != nil {
		t.Fatalf("DerivePublicKey() error: %v", err)
	}
	return tx.Output{TxPubKey: crypto.KeyFromPoint(R), OutputKey: P, Index: outIndex, Amount: amount}
}

// walletFlow is a funded signer seed plus an unsigned set spending it.
type walletFlow struct {
	env      *testEnv
	signer   *SeedResult
	dest     string
	outputs  json.RawMessage
	unsigned json.RawMessage
}

func setupWalletFlow(t *testing.T) *walletFlow {
	t.Helper()
	env := setupTestEnv(t)
	signer := createSeed(t, env, 0x61, "signer")
	dest := createSeed(t, env, 0x62, "dest").Address

	o1 := payTo(t, signer.Address, 0, 600_000)
	o2 := payTo(t, signer.Address, 1, 400_000)
	outputs, err := (tx.EnvelopeCodec{}).EncodeOutputs(types.NetworkMain, []tx.Output{o1, o2})
	if err != nil {
		t.Fatalf("EncodeOutputs() error: %v", err)
	}

	var subs AddressListResult
	call(t, env, "wallet_subaddresses", map[string]interface{}{"fingerprint": signer.Fingerprint, "max": 2}, &subs)

	u := &tx.Unsigned{
		Network: types.NetworkMain,
		Transfers: []tx.UnsignedTransfer{{
			Inputs: []tx.Input{
				{OutputKey: o1.OutputKey, Amount: o1.Amount},
				{OutputKey: o2.OutputKey, Amount: o2.Amount},
			},
			Destinations: []tx.Flow{{Address: dest, Amount: 500_000}},
			Change:       &tx.Flow{Address: subs.Addresses[1], Amount: 499_990},
			Fee:          10,
			RingSize:     16,
		}},
	}
	unsigned, err := (tx.EnvelopeCodec{}).EncodeUnsigned(u)
	if err != nil {
		t.Fatalf("EncodeUnsigned() error: %v", err)
	}

	return &walletFlow{
		env:      env,
		signer:   signer,
		dest:     dest,
		outputs:  outputs,
		unsigned: unsigned,
	}
}

func TestWallet_OutputsImport(t *testing.T) {
	f := setupWalletFlow(t)

	// Nothing to export before any outputs are known.
	resp := rpcCall(t, f.env.url, "keyimages_export", map[string]interface{}{"fingerprint": f.signer.Fingerprint})
	if code := otsCode(t, resp); code != ots.CodeNoKeyImages {
		t.Errorf("early export code = %d, want %d", code, ots.CodeNoKeyImages)
	}

	var count CountResult
	call(t, f.env, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.outputs}, &count)
	if count.Count != 2 {
		t.Fatalf("outputs_import = %d, want 2", count.Count)
	}

	// A blob sent as a JSON string is accepted too.
	call(t, f.env, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": string(f.outputs)}, &count)

	var exported BlobResult
	call(t, f.env, "keyimages_export", map[string]interface{}{"fingerprint": f.signer.Fingerprint}, &exported)
	network, images, err := (tx.EnvelopeCodec{}).DecodeKeyImages(exported.Blob)
	if err != nil {
		t.Fatalf("DecodeKeyImages() error: %v", err)
	}
	if network != types.NetworkMain || len(images) != 2 {
		t.Errorf("key images: network %v, %d images", network, len(images))
	}

	resp = rpcCall(t, f.env.url, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": "junk"})
	if code := otsCode(t, resp); code != ots.CodeInvalidOutputs {
		t.Errorf("junk outputs code = %d, want %d", code, ots.CodeInvalidOutputs)
	}
	resp = rpcCall(t, f.env.url, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("missing blob error = %+v", resp.Error)
	}
}

// Blobs pass through the server untouched: member order, number
// precision and indentation of the payload must all survive.
func TestWallet_OutputsImport_RawPayload(t *testing.T) {
	f := setupWalletFlow(t)
	o := payTo(t, f.signer.Address, 0, 1)

	payload := fmt.Sprintf(`[
  {
    "tx_pub_key": %q,
    "output_key": %q,
    "index": 0,
    "amount": %d,
    "subaddress": {"account": 0, "index": 0}
  }
]`, o.TxPubKey, o.OutputKey, uint64(1)<<60+1)
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(payload)); err != nil {
		t.Fatal(err)
	}
	blob := fmt.Sprintf(`{
  "magic": "ots",
  "version": 1,
  "kind": "outputs",
  "network": "main",
  "digest": %q,
  "payload": %s
}`, crypto.Hash(compact.Bytes()), payload)

	body := fmt.Sprintf(`{"jsonrpc":"2.0","method":"outputs_import","params":{"fingerprint":%q,"blob":%s},"id":7}`,
		f.signer.Fingerprint, blob)
	resp, err := http.Post(f.env.url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rpcResp.Error != nil {
		t.Fatalf("outputs_import error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	data, _ := json.Marshal(rpcResp.Result)
	var count CountResult
	if err := json.Unmarshal(data, &count); err != nil || count.Count != 1 {
		t.Errorf("outputs_import = %s", data)
	}
}

func TestWallet_TxDescribe(t *testing.T) {
	f := setupWalletFlow(t)
	call(t, f.env, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.outputs}, nil)

	var d TxDescribeResult
	call(t, f.env, "tx_describe", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.unsigned}, &d)
	if d.Fee != tx.FormatAmount(10) || d.AmountIn != tx.FormatAmount(1_000_000) {
		t.Errorf("amounts: in %s fee %s", d.AmountIn, d.Fee)
	}
	if len(d.Flows) != 1 || d.Flows[0].Address != f.dest || d.Flows[0].Amount != tx.FormatAmount(500_000) {
		t.Errorf("flows = %+v", d.Flows)
	}
	if d.Change == nil || d.Change.Amount != tx.FormatAmount(499_990) {
		t.Errorf("change = %+v", d.Change)
	}
	if d.Transfers != 1 || d.Raw == nil {
		t.Errorf("transfers = %d, raw = %v", d.Transfers, d.Raw)
	}
	for _, w := range d.Warnings {
		if w.Severity == tx.SeverityCritical {
			t.Errorf("unexpected critical warning: %s", w.Message)
		}
	}

	resp := rpcCall(t, f.env.url, "tx_describe", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": "{}"})
	if code := otsCode(t, resp); code != ots.CodeInvalidTransaction {
		t.Errorf("bad set code = %d, want %d", code, ots.CodeInvalidTransaction)
	}
}

func TestWallet_TxSignAndHistory(t *testing.T) {
	f := setupWalletFlow(t)
	call(t, f.env, "outputs_import", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.outputs}, nil)

	var signed TxSignResult
	call(t, f.env, "tx_sign", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.unsigned}, &signed)
	if len(signed.Signed) == 0 || len(signed.TxSet) != 64 {
		t.Fatalf("tx_sign = %+v", signed)
	}
	if want := crypto.Hash(f.unsigned).String(); signed.TxSet != want {
		t.Errorf("txset = %s, want %s", signed.TxSet, want)
	}

	var valid ValidResult
	call(t, f.env, "tx_verify", map[string]interface{}{"unsigned": f.unsigned, "signed": signed.Signed}, &valid)
	if !valid.Valid {
		t.Error("signed set did not verify")
	}

	// Re-signing is journaled as well.
	call(t, f.env, "tx_sign", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.unsigned}, &signed)

	var hist TxHistoryResult
	call(t, f.env, "tx_history", map[string]interface{}{"fingerprint": f.signer.Fingerprint}, &hist)
	if hist.Total < 1 || len(hist.Entries) != hist.Total {
		t.Fatalf("tx_history = %+v", hist)
	}
	e := hist.Entries[0]
	if e.TxSet != signed.TxSet || e.Network != "main" || e.Fee != tx.FormatAmount(10) || e.Transfers != 1 {
		t.Errorf("entry = %+v", e)
	}

	// Purging the seed drops its history.
	call(t, f.env, "jar_remove", map[string]interface{}{"fingerprint": f.signer.Fingerprint}, nil)
	call(t, f.env, "tx_history", map[string]interface{}{"fingerprint": f.signer.Fingerprint}, &hist)
	if hist.Total != 0 || len(hist.Entries) != 0 {
		t.Errorf("history after purge = %+v", hist)
	}
}

func TestWallet_TxSign_UnknownInputs(t *testing.T) {
	f := setupWalletFlow(t)

	// The outputs were never imported, so the inputs are not ours.
	resp := rpcCall(t, f.env.url, "tx_sign", map[string]interface{}{"fingerprint": f.signer.Fingerprint, "blob": f.unsigned})
	if resp.Error == nil || resp.Error.Code != CodeOTSError {
		t.Fatalf("tx_sign error = %+v", resp.Error)
	}

	var hist TxHistoryResult
	call(t, f.env, "tx_history", map[string]interface{}{"fingerprint": f.signer.Fingerprint}, &hist)
	if hist.Total != 0 {
		t.Errorf("failed signing was recorded: %+v", hist)
	}
}

func TestWallet_TxHistoryDisabled(t *testing.T) {
	env := setupTestEnv(t)
	env.server.SetSignLog(nil)

	resp := rpcCall(t, env.url, "tx_history", map[string]interface{}{"fingerprint": "ABCDEF"})
	if resp.Error == nil || resp.Error.Code != CodeNotFound {
		t.Errorf("tx_history without log = %+v", resp.Error)
	}
}
