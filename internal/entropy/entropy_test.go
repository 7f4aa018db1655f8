package entropy

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math"
	"testing"
)

func TestBitsPerByte(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{"empty", nil, 0},
		{"all zero", make([]byte, 32), 0},
		{"two symbols", []byte{0, 1, 0, 1}, 1},
		{"every byte once", all, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BitsPerByte(tt.data); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BitsPerByte() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeetsThreshold(t *testing.T) {
	zero := make([]byte, 32)
	if MeetsThreshold(zero, DefaultLevel) {
		t.Error("all-zero buffer should fail the default threshold")
	}
	if got := Level(zero); got != "0.00" {
		t.Errorf("Level(zero) = %q, want 0.00", got)
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		t.Fatal(err)
	}
	if !MeetsThreshold(random, DefaultLevel) {
		t.Errorf("random buffer failed threshold: %s bits/byte", Level(random))
	}
}

func TestGate(t *testing.T) {
	g := DefaultGate()
	if !g.Enforce || g.Level != DefaultLevel {
		t.Fatalf("DefaultGate() = %+v", g)
	}

	if _, err := g.Read(bytes.NewReader(make([]byte, 32)), 32); !errors.Is(err, ErrLowEntropy) {
		t.Errorf("Read(zeros) error = %v, want ErrLowEntropy", err)
	}
	// Five bytes can carry at most log2(5) bits per byte.
	if _, err := g.Random(5); !errors.Is(err, ErrLowEntropy) {
		t.Errorf("Random(5) error = %v, want ErrLowEntropy", err)
	}

	buf, err := g.Random(32)
	if err != nil {
		t.Fatalf("Random(32) error: %v", err)
	}
	if len(buf) != 32 {
		t.Errorf("Random(32) = %d bytes", len(buf))
	}

	off := Gate{Enforce: false, Level: DefaultLevel}
	if _, err := off.Read(bytes.NewReader(make([]byte, 32)), 32); err != nil {
		t.Errorf("non-enforcing gate rejected data: %v", err)
	}
}
