// Package rpc implements the JSON-RPC 2.0 signer API.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Klingon-tech/ots/config"
	klog "github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/internal/wallet"
	"github.com/Klingon-tech/ots/pkg/types"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	api         *ots.OTS
	network     types.Network           // Network of seeds created without one.
	keystore    *wallet.Keystore        // For jar_save/jar_load (nil = disabled).
	params      wallet.EncryptionParams // Keystore sealing parameters.
	signLog     *SignLog                // For tx_history (nil = disabled).
	mu          sync.RWMutex            // Held for writing by jar-mutating methods.
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
}

// New creates a new RPC server over api. The rpcCfg parameter controls IP
// filtering and CORS. A zero-value RPCConfig allows all IPs and disables CORS.
func New(addr string, api *ots.OTS, rpcCfg ...config.RPCConfig) *Server {
	s := &Server{
		addr:   addr,
		api:    api,
		params: wallet.DefaultParams(),
		logger: klog.RPC,
	}

	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.corsOrigins = rpcCfg[0].CORSOrigins
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// Deep address searches and keystore sealing can take a while.
		WriteTimeout: 5 * time.Minute,
	}

	return s
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// SetNetwork sets the network of seeds created without an explicit one.
func (s *Server) SetNetwork(n types.Network) {
	s.network = n
}

// SetKeystore enables jar_save and jar_load over ks.
func (s *Server) SetKeystore(ks *wallet.Keystore, params wallet.EncryptionParams) {
	s.keystore = ks
	s.params = params
}

// SetSignLog enables the signing journal and tx_history.
func (s *Server) SetSignLog(l *SignLog) {
	s.signLog = l
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	// IP filtering.
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		s.logger.Debug().Str("method", req.Method).Int("code", rpcErr.Code).Msg(rpcErr.Message)
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

// mutating lists the methods that change the jar or a wallet in it.
var mutating = map[string]bool{
	"seed_generate":  true,
	"seed_create":    true,
	"seed_decode":    true,
	"seed_merge":     true,
	"jar_remove":     true,
	"jar_rename":     true,
	"jar_clear":      true,
	"jar_load":       true,
	"jar_save":       true,
	"outputs_import": true,
	"tx_sign":        true,
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	if mutating[req.Method] {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	switch req.Method {
	case "ots_version":
		return s.handleVersion(req)
	case "util_entropy":
		return s.handleUtilEntropy(req)
	case "util_height":
		return s.handleUtilHeight(req)
	case "util_timestamp":
		return s.handleUtilTimestamp(req)
	case "language_list":
		return s.handleLanguageList(req)
	case "seed_generate":
		return s.handleSeedGenerate(req)
	case "seed_create":
		return s.handleSeedCreate(req)
	case "seed_decode":
		return s.handleSeedDecode(req)
	case "seed_phrase":
		return s.handleSeedPhrase(req)
	case "seed_indices":
		return s.handleSeedIndices(req)
	case "seed_merge":
		return s.handleSeedMerge(req)
	case "jar_list":
		return s.handleJarList(req)
	case "jar_get":
		return s.handleJarGet(req)
	case "jar_remove":
		return s.handleJarRemove(req)
	case "jar_rename":
		return s.handleJarRename(req)
	case "jar_clear":
		return s.handleJarClear(req)
	case "jar_save":
		return s.handleJarSave(req)
	case "jar_load":
		return s.handleJarLoad(req)
	case "address_info":
		return s.handleAddressInfo(req)
	case "indices_merge":
		return s.handleIndicesMerge(req)
	case "indices_split":
		return s.handleIndicesSplit(req)
	case "wallet_findAddress":
		return s.handleWalletFindAddress(req)
	case "wallet_accounts":
		return s.handleWalletAccounts(req)
	case "wallet_subaddresses":
		return s.handleWalletSubaddresses(req)
	case "sign_data":
		return s.handleSignData(req)
	case "sign_verify":
		return s.handleSignVerify(req)
	case "outputs_import":
		return s.handleOutputsImport(req)
	case "keyimages_export":
		return s.handleKeyImagesExport(req)
	case "tx_describe":
		return s.handleTxDescribe(req)
	case "tx_sign":
		return s.handleTxSign(req)
	case "tx_verify":
		return s.handleTxVerify(req)
	case "tx_history":
		return s.handleTxHistory(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, msg string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: msg},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// hasParams reports whether the request carries a non-null params member.
func hasParams(req *Request) bool {
	p := bytes.TrimSpace(req.Params)
	return len(p) > 0 && !bytes.Equal(p, []byte("null"))
}

// parseParams unmarshals the request params into the given target.
func parseParams(req *Request, target interface{}) *Error {
	if !hasParams(req) {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}

	if err := json.Unmarshal(req.Params, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

// otsError converts a facade error into a JSON-RPC error carrying the OTS
// code in its data member.
func otsError(err error) *Error {
	e := ots.FromError(err)
	code := CodeOTSError
	switch e.Code {
	case ots.CodeNotFound, ots.CodeAddressNotFound:
		code = CodeNotFound
	case ots.CodeInternal:
		code = CodeInternalError
	}
	return &Error{Code: code, Message: e.Message, Data: ErrorData{Code: e.Code, Class: e.Class}}
}

// failed returns the JSON-RPC error of r, or nil on success.
func failed(r ots.Result) *Error {
	if !r.IsError() {
		return nil
	}
	return otsError(r.Err())
}
