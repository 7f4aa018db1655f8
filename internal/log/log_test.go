package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponentLoggers(t *testing.T) {
	saved := Logger
	defer SetLogger(saved)

	var buf bytes.Buffer
	SetLogger(NewJSONLogger(&buf, "debug"))
	Jar.Info().Str("fingerprint", "35B3F5").Msg("added")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if entry["component"] != "jar" {
		t.Errorf("component = %v, want jar", entry["component"])
	}
	if entry["fingerprint"] != "35B3F5" {
		t.Errorf("fingerprint = %v", entry["fingerprint"])
	}
}

func TestInitWithFile(t *testing.T) {
	saved := Logger
	defer SetLogger(saved)

	path := filepath.Join(t.TempDir(), "otsd.log")
	if err := Init("warn", true, path); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Wallet.Info().Msg("dropped")
	Wallet.Warn().Uint32("account", 3).Msg("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log file has %d lines, want 1: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if entry["component"] != "wallet" || entry["message"] != "kept" {
		t.Errorf("entry = %v", entry)
	}
}

func TestInitBadPath(t *testing.T) {
	saved := Logger
	defer SetLogger(saved)

	if err := Init("info", false, filepath.Join(t.TempDir(), "missing", "otsd.log")); err == nil {
		t.Error("Init() with an unwritable file should fail")
	}
}
