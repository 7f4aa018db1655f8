package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/tx"
)

// maxListed caps wallet_accounts and wallet_subaddresses.
const maxListed = 1000

// maxSearchDepth caps the addresses scanned by one wallet_findAddress.
const maxSearchDepth = 1 << 20

// addressList collects an array of address strings.
func addressList(r ots.Result) (interface{}, *Error) {
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	arr, _ := r.Array()
	res := &AddressListResult{Addresses: make([]string, arr.Len())}
	for i := range res.Addresses {
		a, err := ots.ArrayAt[string](arr, i)
		if err != nil {
			return nil, otsError(err)
		}
		res.Addresses[i] = a
	}
	return res, nil
}

func checkMax(max uint32) *Error {
	if max == 0 || max > maxListed {
		return &Error{Code: CodeInvalidParams, Message: "max must be in range [1, 1000]"}
	}
	return nil
}

// ── Address endpoints ───────────────────────────────────────────────────

func (s *Server) handleWalletFindAddress(req *Request) (interface{}, *Error) {
	var params WalletAddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var res ots.Result
	switch {
	case params.Accounts == 0 && params.Indices == 0:
		res = s.api.WalletFindAddress(h, params.Address)
	case params.Accounts == 0 || params.Indices == 0:
		return nil, &Error{Code: CodeInvalidParams, Message: "accounts and indices must be set together"}
	case uint64(params.Accounts)*uint64(params.Indices) > maxSearchDepth:
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("accounts x indices must not exceed %d", maxSearchDepth)}
	default:
		res = s.api.WalletFindAddressWithDepth(h, params.Address, params.Accounts, params.Indices)
	}
	idx, err := res.AddressIndex()
	if err != nil {
		return nil, otsError(err)
	}
	return &idx, nil
}

func (s *Server) handleWalletAccounts(req *Request) (interface{}, *Error) {
	var params WalletListParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if err := checkMax(params.Max); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return addressList(s.api.WalletAccounts(h, params.Max, params.Offset))
}

func (s *Server) handleWalletSubaddresses(req *Request) (interface{}, *Error) {
	var params WalletListParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if err := checkMax(params.Max); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return addressList(s.api.WalletSubAddresses(h, params.Account, params.Max, params.Offset))
}

// ── Message signing ─────────────────────────────────────────────────────

func (s *Server) handleSignData(req *Request) (interface{}, *Error) {
	var params SignDataParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	data := []byte(params.Data)

	var r ots.Result
	switch {
	case params.Address != "":
		r = s.api.SignDataWithAddress(h, data, params.Address)
	case params.Account != nil || params.Index != nil:
		var account, index uint32
		if params.Account != nil {
			account = *params.Account
		}
		if params.Index != nil {
			index = *params.Index
		}
		r = s.api.SignDataWithIndex(h, data, account, index)
	default:
		r = s.api.SignData(h, data)
	}
	sig, err := r.Text()
	if err != nil {
		return nil, otsError(err)
	}
	return &SignatureResult{Signature: sig}, nil
}

func (s *Server) handleSignVerify(req *Request) (interface{}, *Error) {
	var params VerifyDataParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	ok, err := s.api.VerifyData([]byte(params.Data), params.Signature, params.Address, params.Legacy).Bool()
	if err != nil {
		return nil, otsError(err)
	}
	return &ValidResult{Valid: ok}, nil
}

// ── Outputs and key images ──────────────────────────────────────────────

func blobOf(raw json.RawMessage) ([]byte, *Error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &Error{Code: CodeInvalidParams, Message: "blob is required"}
	}
	// A blob may be sent as the envelope object or as a JSON string.
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []byte(text), nil
	}
	return raw, nil
}

func (s *Server) handleOutputsImport(req *Request) (interface{}, *Error) {
	var params BlobParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blob, rpcErr := blobOf(params.Blob)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n, err := s.api.ImportOutputs(h, blob).Number()
	if err != nil {
		return nil, otsError(err)
	}
	s.logger.Info().Str("fingerprint", params.Fingerprint).Int64("outputs", n).Msg("Outputs imported")
	return &CountResult{Count: n}, nil
}

func (s *Server) handleKeyImagesExport(req *Request) (interface{}, *Error) {
	var params SeedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blob, err := s.api.ExportKeyImages(h).Text()
	if err != nil {
		return nil, otsError(err)
	}
	return &BlobResult{Blob: json.RawMessage(blob)}, nil
}

// ── Transactions ────────────────────────────────────────────────────────

// describe returns the description and warnings of an unsigned set.
func (s *Server) describe(h *ots.Handle, blob []byte) (*tx.Description, []tx.Warning, *Error) {
	r := s.api.DescribeTransaction(h, blob)
	if rpcErr := failed(r); rpcErr != nil {
		return nil, nil, rpcErr
	}
	dh, _ := r.Handle()
	d, err := ots.As[*tx.Description](dh)
	if err != nil {
		return nil, nil, otsError(err)
	}

	wr := s.api.CheckTransaction(h, blob)
	defer wr.Release()
	if rpcErr := failed(wr); rpcErr != nil {
		return nil, nil, rpcErr
	}
	arr, _ := wr.Array()
	warnings := make([]tx.Warning, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		w, err := ots.ArrayAt[tx.Warning](arr, i)
		if err != nil {
			return nil, nil, otsError(err)
		}
		warnings = append(warnings, w)
	}
	return d, warnings, nil
}

func (s *Server) handleTxDescribe(req *Request) (interface{}, *Error) {
	var params BlobParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blob, rpcErr := blobOf(params.Blob)
	if rpcErr != nil {
		return nil, rpcErr
	}
	d, warnings, rpcErr := s.describe(h, blob)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return NewTxDescribeResult(d, warnings), nil
}

func (s *Server) handleTxSign(req *Request) (interface{}, *Error) {
	var params BlobParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blob, rpcErr := blobOf(params.Blob)
	if rpcErr != nil {
		return nil, rpcErr
	}
	d, _, rpcErr := s.describe(h, blob)
	if rpcErr != nil {
		return nil, rpcErr
	}

	signed, err := s.api.SignTransaction(h, blob).Text()
	if err != nil {
		return nil, otsError(err)
	}
	digest := crypto.Hash(blob)

	if s.signLog != nil {
		network, _ := s.api.WalletNetwork(h).Network()
		entry := SignEntry{
			TxSet:       digest.String(),
			Fingerprint: params.Fingerprint,
			Network:     network.String(),
			AmountOut:   tx.FormatAmount(d.AmountOut),
			Fee:         tx.FormatAmount(d.Fee),
			Transfers:   len(d.Transfers),
			SignedAt:    time.Now().Unix(),
		}
		if err := s.signLog.Record(entry, digest); err != nil {
			s.logger.Warn().Err(err).Str("fingerprint", params.Fingerprint).Msg("Failed to record signature")
		}
	}

	s.logger.Info().
		Str("fingerprint", params.Fingerprint).
		Str("txset", digest.String()).
		Int("transfers", len(d.Transfers)).
		Msg("Transaction set signed")

	return &TxSignResult{Signed: json.RawMessage(signed), TxSet: digest.String()}, nil
}

func (s *Server) handleTxVerify(req *Request) (interface{}, *Error) {
	var params TxVerifyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	unsigned, rpcErr := blobOf(params.Unsigned)
	if rpcErr != nil {
		return nil, rpcErr
	}
	signed, rpcErr := blobOf(params.Signed)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := s.api.VerifySigned(unsigned, signed).Bool()
	if err != nil {
		return nil, otsError(err)
	}
	return &ValidResult{Valid: ok}, nil
}

func (s *Server) handleTxHistory(req *Request) (interface{}, *Error) {
	if s.signLog == nil {
		return nil, &Error{Code: CodeNotFound, Message: "signing log not enabled"}
	}
	var params TxHistoryParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Fingerprint == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "fingerprint is required"}
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	entries, total, err := s.signLog.Query(params.Fingerprint, limit, params.Offset)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &TxHistoryResult{Entries: entries, Total: total}, nil
}
