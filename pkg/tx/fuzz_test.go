package tx

import (
	"testing"
)

// FuzzDecodeUnsigned tests that arbitrary input does not panic when decoded
// as an unsigned set and then described.
func FuzzDecodeUnsigned(f *testing.F) {
	if blob, err := (EnvelopeCodec{}).EncodeUnsigned(validSet()); err == nil {
		f.Add(blob)
	}
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"magic":"ots","version":1,"kind":"unsigned_tx","network":"main","payload":null}`))
	f.Add([]byte(`{"magic":"ots","version":1,"kind":"unsigned_tx","network":"test","payload":{"transfers":[{"inputs":null}]}}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		u, err := (EnvelopeCodec{}).DecodeUnsigned(data)
		if err != nil {
			return
		}
		// If decoding succeeded, these must not panic.
		if d, err := Describe(u, data); err == nil {
			d.Warnings()
		}
		UnsignedHash(u)
	})
}
