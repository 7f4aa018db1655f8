package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseWhen(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"unix", "1458748658", 1458748658, false},
		{"date", "2016-03-23", 1458691200, false},
		{"epoch", "0", 0, false},
		{"garbage", "yesterday", 0, true},
		{"negative", "-5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWhen(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseWhen(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWhen(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseWhen(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadBlob(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "set.json")
	if err := os.WriteFile(jsonPath, []byte("  {\"version\":1}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	blob, err := readBlob(jsonPath)
	if err != nil {
		t.Fatalf("readBlob() error: %v", err)
	}
	if string(blob) != `{"version":1}` {
		t.Errorf("readBlob() = %s", blob)
	}

	textPath := filepath.Join(dir, "set.txt")
	if err := os.WriteFile(textPath, []byte("not json\n"), 0600); err != nil {
		t.Fatal(err)
	}
	blob, err = readBlob(textPath)
	if err != nil {
		t.Fatalf("readBlob() error: %v", err)
	}
	var s string
	if err := json.Unmarshal(blob, &s); err != nil || s != "not json" {
		t.Errorf("readBlob() = %s, want quoted text", blob)
	}

	if _, err := readBlob(filepath.Join(dir, "missing")); err == nil {
		t.Error("readBlob() of a missing file should fail")
	}
}

func TestWriteBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeBlob(path, json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("writeBlob() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\"a\":1}\n" {
		t.Errorf("file = %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}
