package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/pkg/tx"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	// CodeOTSError carries an ots.Error in the data member.
	CodeOTSError = -32001
)

// Request is a JSON-RPC 2.0 request.
// Params is kept raw so that embedded blobs reach the codec byte for byte.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData is the data member of CodeOTSError errors.
type ErrorData struct {
	Code  ots.Code `json:"code"`
	Class string   `json:"class"`
}

// ── Param types ─────────────────────────────────────────────────────────

// SeedParam selects a jar seed by fingerprint.
type SeedParam struct {
	Fingerprint string `json:"fingerprint"`
}

// SeedOptions are the construction options shared by seed endpoints.
type SeedOptions struct {
	Network    string `json:"network,omitempty"`
	Height     uint64 `json:"height,omitempty"`
	Timestamp  uint64 `json:"timestamp,omitempty"`
	Language   string `json:"language,omitempty"`
	Password   string `json:"password,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Name       string `json:"name,omitempty"`
}

// SeedGenerateParam is used by seed_generate.
type SeedGenerateParam struct {
	Type string `json:"type"`
	SeedOptions
}

// SeedCreateParam is used by seed_create. Key is hex: 32 bytes for Monero
// seeds, 19 for Polyseed.
type SeedCreateParam struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	SeedOptions
}

// SeedDecodeParam is used by seed_decode. An empty type infers the kind
// from the word count.
type SeedDecodeParam struct {
	Phrase string `json:"phrase"`
	Type   string `json:"type,omitempty"`
	SeedOptions
}

// SeedPhraseParam is used by seed_phrase and seed_indices.
type SeedPhraseParam struct {
	Fingerprint string `json:"fingerprint"`
	Language    string `json:"language,omitempty"`
	Password    string `json:"password,omitempty"`
	Hex         bool   `json:"hex,omitempty"`
}

// SeedMergeParam is used by seed_merge.
type SeedMergeParam struct {
	Fingerprints []string `json:"fingerprints"`
	SeedOptions
}

// JarRenameParam is used by jar_rename.
type JarRenameParam struct {
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
}

// JarPasswordParam is used by jar_save and jar_load.
type JarPasswordParam struct {
	Password string `json:"password"`
}

// AddressParam is used by endpoints that take a single address.
type AddressParam struct {
	Address string `json:"address"`
}

// WalletAddressParam is used by wallet_findAddress. Accounts and Indices
// override the configured search depth when both are set.
type WalletAddressParam struct {
	Fingerprint string `json:"fingerprint"`
	Address     string `json:"address"`
	Accounts    uint32 `json:"accounts,omitempty"`
	Indices     uint32 `json:"indices,omitempty"`
}

// WalletListParam is used by wallet_accounts and wallet_subaddresses.
type WalletListParam struct {
	Fingerprint string `json:"fingerprint"`
	Account     uint32 `json:"account,omitempty"`
	Max         uint32 `json:"max"`
	Offset      uint32 `json:"offset,omitempty"`
}

// SignDataParam is used by sign_data. Address takes precedence over an
// explicit account/index pair.
type SignDataParam struct {
	Fingerprint string  `json:"fingerprint"`
	Data        string  `json:"data"`
	Address     string  `json:"address,omitempty"`
	Account     *uint32 `json:"account,omitempty"`
	Index       *uint32 `json:"index,omitempty"`
}

// VerifyDataParam is used by sign_verify.
type VerifyDataParam struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
	Address   string `json:"address"`
	Legacy    bool   `json:"legacy,omitempty"`
}

// BlobParam is used by endpoints that take an OTS envelope.
type BlobParam struct {
	Fingerprint string          `json:"fingerprint"`
	Blob        json.RawMessage `json:"blob"`
}

// TxVerifyParam is used by tx_verify.
type TxVerifyParam struct {
	Unsigned json.RawMessage `json:"unsigned"`
	Signed   json.RawMessage `json:"signed"`
}

// TxHistoryParam is used by tx_history.
type TxHistoryParam struct {
	Fingerprint string `json:"fingerprint"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// IndicesMergeParam is used by indices_merge. Type selects the modulus.
type IndicesMergeParam struct {
	Sets []string `json:"sets"`
	Type string   `json:"type"`
	Hex  bool     `json:"hex,omitempty"`
}

// IndicesSplitParam is used by indices_split.
type IndicesSplitParam struct {
	Set    string `json:"set"`
	Shares int    `json:"shares"`
	Type   string `json:"type"`
	Hex    bool   `json:"hex,omitempty"`
}

// HeightParam is used by util_height and util_timestamp.
type HeightParam struct {
	Network   string `json:"network,omitempty"`
	Height    uint64 `json:"height,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// EntropyParam is used by util_entropy. Data is hex.
type EntropyParam struct {
	Data string `json:"data"`
}

// LanguageListParam is used by language_list.
type LanguageListParam struct {
	Type string `json:"type,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// VersionResult is returned by ots_version.
type VersionResult struct {
	Version    string `json:"version"`
	Components []int  `json:"components"`
}

// SeedResult is a jar entry as returned by seed and jar endpoints.
type SeedResult struct {
	Name        string `json:"name,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Address     string `json:"address"`
	Type        string `json:"type"`
	Legacy      bool   `json:"legacy"`
	Network     string `json:"network"`
	Height      uint64 `json:"height"`
	Timestamp   uint64 `json:"timestamp"`
}

// NewSeedResult converts a jar snapshot.
func NewSeedResult(it ots.JarItem) *SeedResult {
	return &SeedResult{
		Name:        it.Name,
		Fingerprint: it.Fingerprint,
		Address:     it.Address,
		Type:        it.SeedType.String(),
		Legacy:      it.IsLegacy,
		Network:     it.Network.String(),
		Height:      it.Height,
		Timestamp:   it.Timestamp,
	}
}

// JarListResult is returned by jar_list.
type JarListResult struct {
	Seeds []*SeedResult `json:"seeds"`
}

// PhraseResult is returned by seed_phrase.
type PhraseResult struct {
	Phrase string `json:"phrase"`
}

// IndicesResult is returned by seed_indices and indices_merge.
type IndicesResult struct {
	Indices string `json:"indices"`
}

// SharesResult is returned by indices_split.
type SharesResult struct {
	Shares []string `json:"shares"`
}

// CountResult is returned by endpoints that report a count.
type CountResult struct {
	Count int64 `json:"count"`
}

// ValidResult is returned by verification endpoints.
type ValidResult struct {
	Valid bool `json:"valid"`
}

// LanguageResult describes a phrase language.
type LanguageResult struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	EnglishName string   `json:"english_name"`
	Types       []string `json:"types"`
	Default     []string `json:"default_for,omitempty"`
}

// AddressInfoResult is returned by address_info.
type AddressInfoResult struct {
	Address     string `json:"address"`
	Type        string `json:"type"`
	Network     string `json:"network"`
	Fingerprint string `json:"fingerprint"`
	Integrated  bool   `json:"integrated"`
	PaymentID   string `json:"payment_id,omitempty"`
	Base        string `json:"base"`
}

// AddressListResult is returned by wallet_accounts and wallet_subaddresses.
type AddressListResult struct {
	Addresses []string `json:"addresses"`
}

// SignatureResult is returned by sign_data.
type SignatureResult struct {
	Signature string `json:"signature"`
}

// BlobResult wraps an OTS envelope.
type BlobResult struct {
	Blob json.RawMessage `json:"blob"`
}

// FlowResult is an amount sent to an address, in coins.
type FlowResult struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// TxDescribeResult is returned by tx_describe.
type TxDescribeResult struct {
	AmountIn  string          `json:"amount_in"`
	AmountOut string          `json:"amount_out"`
	Fee       string          `json:"fee"`
	FeeRatio  uint64          `json:"fee_permille"`
	Flows     []FlowResult    `json:"flows"`
	Change    *FlowResult     `json:"change,omitempty"`
	Transfers int             `json:"transfers"`
	Warnings  []tx.Warning    `json:"warnings"`
	Raw       *tx.Description `json:"raw"`
}

// NewTxDescribeResult formats a description and its warnings.
func NewTxDescribeResult(d *tx.Description, warnings []tx.Warning) *TxDescribeResult {
	res := &TxDescribeResult{
		AmountIn:  tx.FormatAmount(d.AmountIn),
		AmountOut: tx.FormatAmount(d.AmountOut),
		Fee:       tx.FormatAmount(d.Fee),
		FeeRatio:  tx.FeePermille(d.Fee, d.AmountOut),
		Flows:     make([]FlowResult, len(d.Flows)),
		Transfers: len(d.Transfers),
		Warnings:  warnings,
		Raw:       d,
	}
	for i, f := range d.Flows {
		res.Flows[i] = FlowResult{Address: f.Address, Amount: tx.FormatAmount(f.Amount)}
	}
	if d.HasChange() {
		res.Change = &FlowResult{Address: d.Change.Address, Amount: tx.FormatAmount(d.Change.Amount)}
	}
	if res.Warnings == nil {
		res.Warnings = []tx.Warning{}
	}
	return res
}

// TxSignResult is returned by tx_sign.
type TxSignResult struct {
	Signed json.RawMessage `json:"signed"`
	TxSet  string          `json:"txset"`
}

// TxHistoryResult is returned by tx_history.
type TxHistoryResult struct {
	Entries []SignEntry `json:"entries"`
	Total   int         `json:"total"`
}

// HeightResult is returned by util_height and util_timestamp.
type HeightResult struct {
	Network   string `json:"network"`
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
}

// EntropyResult is returned by util_entropy.
type EntropyResult struct {
	Level string `json:"level"`
	Low   bool   `json:"low"`
}
