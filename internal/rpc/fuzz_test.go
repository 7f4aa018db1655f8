package rpc

import (
	"encoding/json"
	"testing"
)

// FuzzRPCRequestUnmarshal tests that arbitrary JSON does not panic
// when parsed as a JSON-RPC 2.0 request.
func FuzzRPCRequestUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"ots_version","params":null,"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"seed_phrase","params":{"fingerprint":"ABCDEF"},"id":"test"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":[]}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"tx_sign","params":{"blob":"{}"},"id":999}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		_ = req.Method
		_ = req.ID

		// Every param shape must either parse or fail cleanly.
		var blob BlobParam
		if parseParams(&req, &blob) == nil {
			blobOf(blob.Blob)
		}
		var sign SignDataParam
		parseParams(&req, &sign)
	})
}

// FuzzBlobOf tests that blob extraction never panics and never returns
// an empty blob without an error.
func FuzzBlobOf(f *testing.F) {
	f.Add([]byte(`"{\"kind\":\"outputs\"}"`))
	f.Add([]byte(`{"kind":"unsigned"}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`""`))

	f.Fuzz(func(t *testing.T, data []byte) {
		blob, err := blobOf(json.RawMessage(data))
		if err == nil && blob == nil {
			t.Fatalf("blobOf(%q) returned nil blob without error", data)
		}
	})
}
