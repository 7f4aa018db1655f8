package base58

import (
	"bytes"
	"encoding/hex"
	"testing"

	"pgregory.net/rapid"
)

func TestEncode_Blocks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"00", "11"},
		{"39", "1z"},
		{"ff", "5Q"},
		{"0000", "111"},
		{"0039", "11z"},
		{"0100", "15R"},
		{"ffff", "LUv"},
		{"000000", "11111"},
		{"000039", "1111z"},
		{"ffffffffffffffff", "jpXCZedGfVQ"},
		{"0000000000000000", "11111111111"},
	}

	for _, tt := range tests {
		in, _ := hex.DecodeString(tt.in)
		if got := Encode(in); got != tt.want {
			t.Errorf("Encode(%s) = %q, want %q", tt.in, got, tt.want)
		}
		back, err := Decode(tt.want)
		if err != nil {
			t.Errorf("Decode(%q) error: %v", tt.want, err)
			continue
		}
		if !bytes.Equal(back, in) {
			t.Errorf("Decode(%q) = %x, want %s", tt.want, back, tt.in)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad length", "1"},
		{"bad digit", "0O"},
		{"block overflow", "zz"},
		{"full block overflow", "zzzzzzzzzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.in); err == nil {
				t.Errorf("Decode(%q) should fail", tt.in)
			}
		})
	}
}

func TestEncode_LengthDependsOnlyOnInput(t *testing.T) {
	// 69-byte standard address payload encodes to 95 characters.
	if got := len(Encode(make([]byte, 69))); got != 95 {
		t.Errorf("encoded length = %d, want 95", got)
	}
	// 77-byte integrated address payload encodes to 106 characters.
	if got := len(Encode(bytes.Repeat([]byte{0xff}, 77))); got != 106 {
		t.Errorf("encoded length = %d, want 106", got)
	}
}

func TestRoundtrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 128).Draw(rt, "data")
		decoded, err := Decode(Encode(data))
		if err != nil {
			rt.Fatalf("Decode() error: %v", err)
		}
		if !bytes.Equal(decoded, data) {
			rt.Fatalf("roundtrip = %x, want %x", decoded, data)
		}
	})
}
