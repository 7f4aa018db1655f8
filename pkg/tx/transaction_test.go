package tx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/ots/pkg/crypto"
	"github.com/Klingon-tech/ots/pkg/types"
)

const (
	mainAddr = "4957vKkr9wUAA4a2rRjLmbT4uJadSZxzrW1nJh3NJYDr87hEdiFhaCcGyK87kb8u1i1DWtwKTUnoZ6uobbotLGqX3zZKdtK"
	mainSub  = "83HfRN12ujdNR9AtzmMotUaKo3avrzjfbHefaZ4muku5cJuBc3qaf81Xovo88FxRgoGYqp1cJycSiZF4554cd5Lt6PfQBXm"
	testAddr = "9xftLeckEQ5S5S2FHDGKZAUAHZKPdYRtVJAgyYERcEvaa8YjV7z5yXrVKmfse2mnePUCJUB6L8yCWfvUj1LBQHyRDhg7bzw"
)

// validSet returns a balanced single-transfer set on mainnet.
func validSet() *Unsigned {
	return &Unsigned{
		Network: types.NetworkMain,
		Transfers: []UnsignedTransfer{{
			Inputs: []Input{
				{OutputKey: types.Key{0x01}, Amount: 3_000_000_000_000},
				{OutputKey: types.Key{0x02}, Amount: 1_000_000_000_000},
			},
			Destinations: []Flow{{Address: mainSub, Amount: 2_500_000_000_000}},
			Change:       &Flow{Address: mainAddr, Amount: 1_499_000_000_000},
			Fee:          1_000_000_000,
			RingSize:     16,
		}},
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		atomic uint64
		want   string
	}{
		{0, "0.000000000000"},
		{1, "0.000000000001"},
		{1_000_000_000_000, "1.000000000000"},
		{18446744073709551615, "18446744.073709551615"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.atomic); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.atomic, got, tt.want)
		}
		back, err := ParseAmount(tt.want)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tt.want, err)
		}
		if back != tt.atomic {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.want, back, tt.atomic)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", "-1", "0.0000000000001", "18446744.073709551616"} {
		if _, err := ParseAmount(s); err == nil {
			t.Errorf("ParseAmount(%q) should fail", s)
		}
	}
}

func TestFeePermille(t *testing.T) {
	if got := FeePermille(1, 1000); got != 1 {
		t.Errorf("FeePermille(1, 1000) = %d, want 1", got)
	}
	if got := FeePermille(0, 0); got != 0 {
		t.Errorf("FeePermille(0, 0) = %d, want 0", got)
	}
	if got := FeePermille(5, 0); got != CriticalFeePermille {
		t.Errorf("FeePermille(5, 0) = %d, want %d", got, CriticalFeePermille)
	}
}

func TestValidate(t *testing.T) {
	if err := validSet().Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(u *Unsigned)
		want   error
	}{
		{"no transfers", func(u *Unsigned) { u.Transfers = nil }, ErrNoTransfers},
		{"no inputs", func(u *Unsigned) { u.Transfers[0].Inputs = nil }, ErrNoInputs},
		{"no destinations", func(u *Unsigned) { u.Transfers[0].Destinations = nil }, ErrNoDestinations},
		{"duplicate input", func(u *Unsigned) { u.Transfers[0].Inputs[1].OutputKey = types.Key{0x01} }, ErrDuplicateInput},
		{"wrong network", func(u *Unsigned) { u.Transfers[0].Destinations[0].Address = testAddr }, ErrBadDestination},
		{"bad change", func(u *Unsigned) { u.Transfers[0].Change.Address = "nope" }, ErrBadDestination},
		{"unbalanced", func(u *Unsigned) { u.Transfers[0].Fee = 2_000_000_000 }, ErrUnbalanced},
		{"overflow", func(u *Unsigned) { u.Transfers[0].Inputs[1].Amount = ^uint64(0) }, ErrAmountOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validSet()
			tt.mutate(u)
			err := u.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidTransaction) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidTransaction", err)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	u := validSet()
	d, err := Describe(u, []byte("raw"))
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if d.AmountIn != 4_000_000_000_000 {
		t.Errorf("AmountIn = %d", d.AmountIn)
	}
	if d.AmountOut != 3_999_000_000_000 {
		t.Errorf("AmountOut = %d", d.AmountOut)
	}
	if d.Fee != 1_000_000_000 {
		t.Errorf("Fee = %d", d.Fee)
	}
	if !d.HasChange() || d.Change.Address != mainAddr {
		t.Errorf("Change = %+v", d.Change)
	}
	if len(d.Flows) != 1 || d.Flows[0].Address != mainSub {
		t.Errorf("Flows = %+v", d.Flows)
	}
	if len(d.Transfers) != 1 || !d.Transfers[0].HasChange() {
		t.Errorf("Transfers = %+v", d.Transfers)
	}
	if string(d.TxSet) != "raw" {
		t.Errorf("TxSet = %q", d.TxSet)
	}
	if w := d.Warnings(); len(w) != 0 {
		t.Errorf("Warnings() = %+v, want none", w)
	}
}

func TestWarnings(t *testing.T) {
	u := validSet()
	tr := &u.Transfers[0]
	tr.RingSize = 11
	tr.UnlockTime = 3_000_000
	tr.PaymentID = "59f3832901727c06"
	tr.Change.Amount -= 500_000_000_000
	tr.Fee += 300_000_000_000

	d, err := Describe(u, nil)
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	got := map[Severity][]string{}
	for _, w := range d.Warnings() {
		got[w.Severity] = append(got[w.Severity], w.Message)
	}
	if len(got[SeverityCritical]) != 2 {
		t.Errorf("critical warnings = %q, want fee and unaccounted input", got[SeverityCritical])
	}
	if len(got[SeverityWarning]) != 2 {
		t.Errorf("warnings = %q, want ring size and unlock time", got[SeverityWarning])
	}
	if len(got[SeverityInfo]) != 1 || !strings.Contains(got[SeverityInfo][0], "payment id") {
		t.Errorf("info = %q, want payment id", got[SeverityInfo])
	}
}

func TestEnvelope_Roundtrip(t *testing.T) {
	c := EnvelopeCodec{}

	outputs := []Output{{
		TxPubKey:   types.Key{0xaa},
		OutputKey:  types.Key{0xbb},
		Index:      3,
		Amount:     42,
		Subaddress: types.AddressIndex{Account: 1, Index: 2},
	}}
	blob, err := c.EncodeOutputs(types.NetworkStage, outputs)
	if err != nil {
		t.Fatalf("EncodeOutputs() error: %v", err)
	}
	network, got, err := c.DecodeOutputs(blob)
	if err != nil {
		t.Fatalf("DecodeOutputs() error: %v", err)
	}
	if network != types.NetworkStage || len(got) != 1 || got[0] != outputs[0] {
		t.Errorf("DecodeOutputs() = %v %+v", network, got)
	}

	u := validSet()
	blob, err = c.EncodeUnsigned(u)
	if err != nil {
		t.Fatalf("EncodeUnsigned() error: %v", err)
	}
	back, err := c.DecodeUnsigned(blob)
	if err != nil {
		t.Fatalf("DecodeUnsigned() error: %v", err)
	}
	h1, _ := UnsignedHash(u)
	h2, _ := UnsignedHash(back)
	if h1 != h2 {
		t.Error("unsigned set changed across the envelope")
	}

	kp, err := crypto.NewKeyPair(crypto.Reduce32([]byte("01234567890123456789012345678901")))
	if err != nil {
		t.Fatalf("NewKeyPair() error: %v", err)
	}
	msg := KeyImageMessage(kp.Public, types.Key{0x07})
	sig, err := crypto.GenerateSignature(msg, kp.Public, kp.Secret)
	if err != nil {
		t.Fatalf("GenerateSignature() error: %v", err)
	}
	images := []KeyImage{{OutputKey: kp.Public, Image: types.Key{0x07}, Signature: sig}}
	blob, err = c.EncodeKeyImages(types.NetworkMain, images)
	if err != nil {
		t.Fatalf("EncodeKeyImages() error: %v", err)
	}
	_, gotImages, err := c.DecodeKeyImages(blob)
	if err != nil {
		t.Fatalf("DecodeKeyImages() error: %v", err)
	}
	if len(gotImages) != 1 || !crypto.CheckSignature(msg, gotImages[0].OutputKey, gotImages[0].Signature) {
		t.Error("key image signature lost in the envelope")
	}
}

func TestEnvelope_Indented(t *testing.T) {
	c := EnvelopeCodec{}
	outputs := []Output{{OutputKey: types.Key{0x01}, Amount: 1<<60 + 1}}
	blob, err := c.EncodeOutputs(types.NetworkMain, outputs)
	if err != nil {
		t.Fatalf("EncodeOutputs() error: %v", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, blob, "", "  "); err != nil {
		t.Fatalf("json.Indent() error: %v", err)
	}
	_, got, err := c.DecodeOutputs(pretty.Bytes())
	if err != nil {
		t.Fatalf("DecodeOutputs(indented) error: %v", err)
	}
	if len(got) != 1 || got[0].Amount != 1<<60+1 {
		t.Errorf("DecodeOutputs(indented) = %+v", got)
	}

	// Reordering payload members changes the bytes the digest covers.
	var env map[string]json.RawMessage
	if err := json.Unmarshal(blob, &env); err != nil {
		t.Fatal(err)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(env["payload"], &payload); err != nil {
		t.Fatal(err)
	}
	env["payload"], _ = json.Marshal(payload)
	reordered, _ := json.Marshal(env)
	if _, _, err := c.DecodeOutputs(reordered); !errors.Is(err, ErrInvalidOutputs) {
		t.Errorf("DecodeOutputs(reordered) error = %v, want ErrInvalidOutputs", err)
	}
}

func TestEnvelope_Rejects(t *testing.T) {
	c := EnvelopeCodec{}
	blob, err := c.EncodeOutputs(types.NetworkMain, []Output{{Amount: 1}})
	if err != nil {
		t.Fatalf("EncodeOutputs() error: %v", err)
	}

	if _, err := c.DecodeUnsigned(blob); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("DecodeUnsigned(outputs) error = %v, want ErrInvalidTransaction", err)
	}
	if _, _, err := c.DecodeOutputs([]byte("garbage")); !errors.Is(err, ErrInvalidOutputs) {
		t.Errorf("DecodeOutputs(garbage) error = %v, want ErrInvalidOutputs", err)
	}

	var env map[string]any
	if err := json.Unmarshal(blob, &env); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	env["payload"] = json.RawMessage(`[{"amount":2}]`)
	tampered, _ := json.Marshal(env)
	if _, _, err := c.DecodeOutputs(tampered); !errors.Is(err, ErrInvalidOutputs) {
		t.Errorf("DecodeOutputs(tampered) error = %v, want ErrInvalidOutputs", err)
	}

	if _, err := c.EncodeOutputs(types.Network(9), nil); err == nil {
		t.Error("EncodeOutputs should reject an unknown network")
	}
}
