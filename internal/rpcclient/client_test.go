package rpcclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	klog "github.com/Klingon-tech/ots/internal/log"
	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/internal/rpc"
	"github.com/Klingon-tech/ots/pkg/types"
)

type testEnv struct {
	client *Client
	api    *ots.OTS
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	api := ots.New(ots.NewSettings())

	// Create and start RPC server on random port.
	srv := rpc.New("127.0.0.1:0", api)
	srv.SetNetwork(types.NetworkStage)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	url := "http://" + srv.Addr() + "/"
	return &testEnv{client: New(url), api: api}
}

func TestClient_Version(t *testing.T) {
	env := setupTestEnv(t)

	var result rpc.VersionResult
	if err := env.client.Call("ots_version", nil, &result); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if result.Version != ots.Version {
		t.Errorf("version = %q, want %q", result.Version, ots.Version)
	}
}

func TestClient_SeedRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	var seed rpc.SeedResult
	err := env.client.Call("seed_generate", rpc.SeedGenerateParam{Type: "monero", SeedOptions: rpc.SeedOptions{Name: "c"}}, &seed)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if seed.Network != "stage" {
		t.Errorf("network = %q, want server default stage", seed.Network)
	}
	if env.api.Jar().Count() != 1 {
		t.Errorf("jar count = %d, want 1", env.api.Jar().Count())
	}

	var phrase rpc.PhraseResult
	if err := env.client.Call("seed_phrase", rpc.SeedPhraseParam{Fingerprint: seed.Fingerprint}, &phrase); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if len(strings.Fields(phrase.Phrase)) != 25 {
		t.Errorf("phrase = %q", phrase.Phrase)
	}
}

func TestClient_OTSError(t *testing.T) {
	env := setupTestEnv(t)

	err := env.client.Call("seed_phrase", rpc.SeedPhraseParam{Fingerprint: "ABCDEF"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown seed")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != rpc.CodeNotFound || rpcErr.OTSCode != ots.CodeNotFound {
		t.Errorf("codes = %d/%d", rpcErr.Code, rpcErr.OTSCode)
	}
	if !errors.Is(err, ots.ErrNotFound) {
		t.Error("errors.Is(err, ots.ErrNotFound) = false")
	}
	if errors.Is(err, ots.ErrInvalidSeed) {
		t.Error("errors.Is(err, ots.ErrInvalidSeed) = true")
	}
}

func TestClient_Call_InvalidEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1/") // nothing listens on port 1

	var result rpc.VersionResult
	err := client.Call("ots_version", nil, &result)
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	err := env.client.Call("nonexistent_method", nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T", err)
	}
	if rpcErr.Code != rpc.CodeMethodNotFound || rpcErr.OTSCode != 0 {
		t.Errorf("error = %+v", rpcErr)
	}
}

func TestClient_CallContext_Canceled(t *testing.T) {
	env := setupTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := env.client.CallContext(ctx, "ots_version", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("CallContext() error = %v, want context.Canceled", err)
	}
}

func TestClient_Call_RequestIDs(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 3; i++ {
		if err := env.client.Call("ots_version", nil, nil); err != nil {
			t.Fatalf("Call() #%d error: %v", i, err)
		}
	}
	if got := env.client.nextID.Load(); got != 3 {
		t.Errorf("nextID = %d, want 3", got)
	}
}

func TestClient_Call_BadResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"forbidden", http.StatusForbidden, "forbidden", "http status 403"},
		{"not json", http.StatusOK, "<html>", "decode response"},
		{"wrong id", http.StatusOK, `{"jsonrpc":"2.0","result":{},"id":99}`, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := New(ts.URL).Call("ots_version", nil, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Call() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
