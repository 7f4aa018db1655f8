package rpc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Klingon-tech/ots/internal/indices"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/pkg/types"
)

// ── Helpers ─────────────────────────────────────────────────────────────

// seedParams converts request options. An empty network selects the
// server's network.
func (s *Server) seedParams(o SeedOptions) (ots.SeedParams, *Error) {
	p := ots.SeedParams{
		Network:    s.network,
		Height:     o.Height,
		Timestamp:  o.Timestamp,
		Password:   o.Password,
		Passphrase: o.Passphrase,
	}
	if o.Network != "" {
		n, err := types.ParseNetwork(o.Network)
		if err != nil {
			return p, &Error{Code: CodeInvalidParams, Message: err.Error()}
		}
		p.Network = n
	}
	lang, rpcErr := parseLanguage(o.Language)
	if rpcErr != nil {
		return p, rpcErr
	}
	p.Language = lang
	return p, nil
}

// parseLanguage resolves an optional language code.
func parseLanguage(code string) (*mnemonic.Language, *Error) {
	if code == "" {
		return nil, nil
	}
	lang, err := mnemonic.FromCode(code)
	if err != nil {
		return nil, otsError(err)
	}
	return lang, nil
}

func parseSeedType(s string) (types.SeedType, *Error) {
	kind, err := types.ParseSeedType(s)
	if err != nil {
		return 0, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return kind, nil
}

func (s *Server) networkOf(name string) (types.Network, *Error) {
	if name == "" {
		return s.network, nil
	}
	n, err := types.ParseNetwork(name)
	if err != nil {
		return 0, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return n, nil
}

// seedRef returns a reference to the jar seed with the fingerprint.
func (s *Server) seedRef(fingerprint string) (*ots.Handle, *Error) {
	if fingerprint == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "fingerprint is required"}
	}
	h, err := s.api.Jar().ForFingerprint(fingerprint)
	if err != nil {
		return nil, otsError(err)
	}
	return h, nil
}

// jarItem returns the public view of the jar seed with the fingerprint.
func (s *Server) jarItem(fingerprint string) (*SeedResult, *Error) {
	for _, it := range s.api.Jar().Items() {
		if it.Fingerprint == fingerprint {
			return NewSeedResult(it), nil
		}
	}
	return nil, otsError(fmt.Errorf("seed %s: %w", fingerprint, ots.ErrNotFound))
}

// keep moves the seed owned by r into the jar under name.
func (s *Server) keep(r ots.Result, name string) (interface{}, *Error) {
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	h, err := r.Handle()
	if err != nil {
		return nil, otsError(err)
	}
	ref, err := s.api.Jar().TransferIn(h, name)
	if err != nil {
		r.Release()
		return nil, otsError(err)
	}
	fp, err := s.api.SeedFingerprint(ref).Text()
	if err != nil {
		return nil, otsError(err)
	}
	s.logger.Info().Str("fingerprint", fp).Str("name", name).Msg("Seed added to jar")
	return s.jarItem(fp)
}

// parseSet parses a whitespace separated numeric or hex index set.
func (s *Server) parseSet(text string, hex bool) (*ots.Handle, *Error) {
	r := s.api.ParseIndices(text, " ", hex)
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	h, _ := r.Handle()
	return h, nil
}

// setText renders an index set and releases the rendering.
func (s *Server) setText(h *ots.Handle, hex bool) (string, *Error) {
	r := s.api.IndicesText(h, " ", hex)
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return "", rpcErr
	}
	text, _ := r.Text()
	return text, nil
}

// ── General endpoints ───────────────────────────────────────────────────

func (s *Server) handleVersion(_ *Request) (interface{}, *Error) {
	r := s.api.VersionComponents()
	defer r.Release()
	arr, err := r.Array()
	if err != nil {
		return nil, otsError(err)
	}
	components := make([]int, arr.Len())
	for i := range components {
		components[i], _ = ots.ArrayAt[int](arr, i)
	}
	version, _ := s.api.Version().Text()
	return &VersionResult{Version: version, Components: components}, nil
}

func (s *Server) handleUtilEntropy(req *Request) (interface{}, *Error) {
	var params EntropyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(params.Data)
	if err != nil || len(data) == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "data must be non-empty hex"}
	}
	level, _ := s.api.EntropyLevel(data).Text()
	low, _ := s.api.CheckLowEntropy(data).Bool()
	return &EntropyResult{Level: level, Low: low}, nil
}

func (s *Server) handleUtilHeight(req *Request) (interface{}, *Error) {
	var params HeightParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	n, rpcErr := s.networkOf(params.Network)
	if rpcErr != nil {
		return nil, rpcErr
	}
	r := s.api.HeightFromTimestamp(params.Timestamp, n)
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	height, _ := r.Number()
	return &HeightResult{Network: n.String(), Height: uint64(height), Timestamp: params.Timestamp}, nil
}

func (s *Server) handleUtilTimestamp(req *Request) (interface{}, *Error) {
	var params HeightParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	n, rpcErr := s.networkOf(params.Network)
	if rpcErr != nil {
		return nil, rpcErr
	}
	r := s.api.TimestampFromHeight(params.Height, n)
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	ts, _ := r.Number()
	return &HeightResult{Network: n.String(), Height: params.Height, Timestamp: uint64(ts)}, nil
}

func (s *Server) handleLanguageList(req *Request) (interface{}, *Error) {
	var params LanguageListParam
	if hasParams(req) {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	r := s.api.Languages()
	if params.Type != "" {
		kind, rpcErr := parseSeedType(params.Type)
		if rpcErr != nil {
			return nil, rpcErr
		}
		r = s.api.LanguagesForKind(kind)
	}
	arr, err := r.Array()
	if err != nil {
		return nil, otsError(err)
	}

	kinds := []types.SeedType{types.SeedTypeMonero, types.SeedTypePolyseed}
	settings := s.api.Settings()
	out := make([]LanguageResult, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		l, err := ots.ArrayAt[*mnemonic.Language](arr, i)
		if err != nil {
			return nil, otsError(err)
		}
		entry := LanguageResult{Code: l.Code, Name: l.Name, EnglishName: l.EnglishName, Types: []string{}}
		for _, k := range kinds {
			if l.Supports(k) {
				entry.Types = append(entry.Types, k.String())
			}
			if settings.IsDefaultLanguage(k, l) {
				entry.Default = append(entry.Default, k.String())
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// ── Seed endpoints ──────────────────────────────────────────────────────

func (s *Server) handleSeedGenerate(req *Request) (interface{}, *Error) {
	var params SeedGenerateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	kind, rpcErr := parseSeedType(params.Type)
	if rpcErr != nil {
		return nil, rpcErr
	}
	p, rpcErr := s.seedParams(params.SeedOptions)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.keep(s.api.GenerateSeed(kind, p), params.Name)
}

func (s *Server) handleSeedCreate(req *Request) (interface{}, *Error) {
	var params SeedCreateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	kind, rpcErr := parseSeedType(params.Type)
	if rpcErr != nil {
		return nil, rpcErr
	}
	p, rpcErr := s.seedParams(params.SeedOptions)
	if rpcErr != nil {
		return nil, rpcErr
	}
	key, err := hex.DecodeString(params.Key)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "key must be hex"}
	}
	defer clear(key)

	switch kind {
	case types.SeedTypeMonero:
		return s.keep(s.api.CreateMoneroSeed(key, p), params.Name)
	case types.SeedTypePolyseed:
		return s.keep(s.api.CreatePolyseed(key, p), params.Name)
	default:
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("cannot create %s seeds from a key", kind)}
	}
}

func (s *Server) handleSeedDecode(req *Request) (interface{}, *Error) {
	var params SeedDecodeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Phrase) == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "phrase is required"}
	}
	p, rpcErr := s.seedParams(params.SeedOptions)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if params.Type == "" {
		return s.keep(s.api.DecodeAnySeed(params.Phrase, p), params.Name)
	}
	kind, rpcErr := parseSeedType(params.Type)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.keep(s.api.DecodeSeed(params.Phrase, kind, p), params.Name)
}

func (s *Server) handleSeedPhrase(req *Request) (interface{}, *Error) {
	var params SeedPhraseParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	lang, rpcErr := parseLanguage(params.Language)
	if rpcErr != nil {
		return nil, rpcErr
	}
	r := s.api.SeedPhrase(h, lang, params.Password)
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	phrase, _ := r.Text()
	return &PhraseResult{Phrase: phrase}, nil
}

func (s *Server) handleSeedIndices(req *Request) (interface{}, *Error) {
	var params SeedPhraseParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	lang, rpcErr := parseLanguage(params.Language)
	if rpcErr != nil {
		return nil, rpcErr
	}
	r := s.api.SeedIndices(h, lang, params.Password)
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	set, _ := r.Handle()
	text, rpcErr := s.setText(set, params.Hex)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return &IndicesResult{Indices: text}, nil
}

func (s *Server) handleSeedMerge(req *Request) (interface{}, *Error) {
	var params SeedMergeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	p, rpcErr := s.seedParams(params.SeedOptions)
	if rpcErr != nil {
		return nil, rpcErr
	}
	handles := make([]*ots.Handle, 0, len(params.Fingerprints))
	for _, fp := range params.Fingerprints {
		h, rpcErr := s.seedRef(fp)
		if rpcErr != nil {
			return nil, rpcErr
		}
		handles = append(handles, h)
	}
	return s.keep(s.api.SeedMerge(handles, p), params.Name)
}

// ── Jar endpoints ───────────────────────────────────────────────────────

func (s *Server) handleJarList(_ *Request) (interface{}, *Error) {
	items := s.api.Jar().Items()
	res := &JarListResult{Seeds: make([]*SeedResult, len(items))}
	for i, it := range items {
		res.Seeds[i] = NewSeedResult(it)
	}
	return res, nil
}

func (s *Server) handleJarGet(req *Request) (interface{}, *Error) {
	var params SeedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	return s.jarItem(params.Fingerprint)
}

func (s *Server) handleJarRemove(req *Request) (interface{}, *Error) {
	var params SeedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.api.Jar().PurgeForFingerprint(params.Fingerprint); err != nil {
		return nil, otsError(err)
	}
	if s.signLog != nil {
		if err := s.signLog.Clear(params.Fingerprint); err != nil {
			s.logger.Warn().Err(err).Str("fingerprint", params.Fingerprint).Msg("Failed to clear signing log")
		}
	}
	s.logger.Info().Str("fingerprint", params.Fingerprint).Msg("Seed purged from jar")
	return &CountResult{Count: int64(s.api.Jar().Count())}, nil
}

func (s *Server) handleJarRename(req *Request) (interface{}, *Error) {
	var params JarRenameParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	h, rpcErr := s.seedRef(params.Fingerprint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.api.Jar().Rename(h, params.Name); err != nil {
		return nil, otsError(err)
	}
	return s.jarItem(params.Fingerprint)
}

func (s *Server) handleJarClear(_ *Request) (interface{}, *Error) {
	n := s.api.Jar().Count()
	s.api.Jar().Clear()
	s.logger.Info().Int("seeds", n).Msg("Jar cleared")
	return &CountResult{Count: int64(n)}, nil
}

func (s *Server) handleJarSave(req *Request) (interface{}, *Error) {
	if s.keystore == nil {
		return nil, &Error{Code: CodeNotFound, Message: "jar persistence not enabled"}
	}
	var params JarPasswordParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Password == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "password is required"}
	}
	r := s.api.SaveJar(s.keystore, []byte(params.Password), s.params)
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	n, _ := r.Number()
	s.logger.Info().Int64("seeds", n).Msg("Jar saved")
	return &CountResult{Count: n}, nil
}

func (s *Server) handleJarLoad(req *Request) (interface{}, *Error) {
	if s.keystore == nil {
		return nil, &Error{Code: CodeNotFound, Message: "jar persistence not enabled"}
	}
	var params JarPasswordParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	r := s.api.LoadJar(s.keystore, []byte(params.Password))
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	n, _ := r.Number()
	s.logger.Info().Int64("seeds", n).Msg("Jar loaded")
	return &CountResult{Count: n}, nil
}

// ── Address endpoints ───────────────────────────────────────────────────

func (s *Server) handleAddressInfo(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr := params.Address
	typ, err := s.api.AddressType(addr).AddressType()
	if err != nil {
		return nil, otsError(err)
	}
	n, _ := s.api.AddressNetwork(addr).Network()
	fp, _ := s.api.AddressFingerprint(addr).Text()
	integrated, _ := s.api.AddressIsIntegrated(addr).Bool()

	res := &AddressInfoResult{
		Address:     strings.TrimSpace(addr),
		Type:        typ.String(),
		Network:     n.String(),
		Fingerprint: fp,
		Integrated:  integrated,
		Base:        strings.TrimSpace(addr),
	}
	if integrated {
		res.PaymentID, _ = s.api.AddressPaymentID(addr).Text()
		res.Base, _ = s.api.AddressBase(addr).Text()
	}
	return res, nil
}

// ── Index set endpoints ─────────────────────────────────────────────────

func (s *Server) handleIndicesMerge(req *Request) (interface{}, *Error) {
	var params IndicesMergeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	kind, rpcErr := parseSeedType(params.Type)
	if rpcErr != nil {
		return nil, rpcErr
	}

	handles := make([]*ots.Handle, 0, len(params.Sets))
	defer func() {
		for _, h := range handles {
			h.Release()
		}
	}()
	for _, text := range params.Sets {
		h, rpcErr := s.parseSet(text, params.Hex)
		if rpcErr != nil {
			return nil, rpcErr
		}
		handles = append(handles, h)
	}
	if len(handles) < 2 {
		return nil, otsError(ots.ErrTooFewSets)
	}

	r := s.api.MergeIndices(handles, kind)
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	merged, _ := r.Handle()
	text, rpcErr := s.setText(merged, params.Hex)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return &IndicesResult{Indices: text}, nil
}

func (s *Server) handleIndicesSplit(req *Request) (interface{}, *Error) {
	var params IndicesSplitParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	kind, rpcErr := parseSeedType(params.Type)
	if rpcErr != nil {
		return nil, rpcErr
	}
	h, rpcErr := s.parseSet(params.Set, params.Hex)
	if rpcErr != nil {
		return nil, rpcErr
	}
	defer h.Release()

	r := s.api.SplitIndices(h, params.Shares, kind)
	defer r.Release()
	if rpcErr := failed(r); rpcErr != nil {
		return nil, rpcErr
	}
	arr, _ := r.Array()
	res := &SharesResult{Shares: make([]string, arr.Len())}
	for i := range res.Shares {
		set, err := ots.ArrayAt[*indices.Set](arr, i)
		if err != nil {
			return nil, otsError(err)
		}
		text, rpcErr := s.setText(ots.Ref(set), params.Hex)
		if rpcErr != nil {
			return nil, rpcErr
		}
		res.Shares[i] = text
	}
	return res, nil
}
