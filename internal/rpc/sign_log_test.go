package rpc

import (
	"testing"

	"github.com/Klingon-tech/ots/internal/storage"
	"github.com/Klingon-tech/ots/pkg/crypto"
)

func TestSignLog_RecordAndQuery(t *testing.T) {
	db := storage.NewMemory()
	l := NewSignLog(db)

	for i := int64(1); i <= 5; i++ {
		digest := crypto.Hash([]byte{byte(i)})
		e := SignEntry{TxSet: digest.String(), Fingerprint: "AAAAAA", Network: "main", SignedAt: 1000 + i}
		if err := l.Record(e, digest); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}
	other := crypto.Hash([]byte("other"))
	if err := l.Record(SignEntry{TxSet: other.String(), Fingerprint: "BBBBBB", SignedAt: 1}, other); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	entries, total, err := l.Query("AAAAAA", 0, 0)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if total != 5 || len(entries) != 5 {
		t.Fatalf("Query() = %d entries, total %d", len(entries), total)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].SignedAt < entries[i].SignedAt {
			t.Fatalf("entries not newest first: %d before %d", entries[i-1].SignedAt, entries[i].SignedAt)
		}
	}

	page, total, err := l.Query("AAAAAA", 2, 1)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if total != 5 || len(page) != 2 || page[0].SignedAt != 1004 || page[1].SignedAt != 1003 {
		t.Errorf("page = %+v (total %d)", page, total)
	}

	past, _, err := l.Query("AAAAAA", 10, 10)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if past == nil || len(past) != 0 {
		t.Errorf("Query() past the end = %v", past)
	}

	meta, err := l.Meta("AAAAAA")
	if err != nil {
		t.Fatalf("Meta() error: %v", err)
	}
	if meta.Count != 5 || meta.LastSigned != 1005 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestSignLog_RecordIdempotent(t *testing.T) {
	l := NewSignLog(storage.NewMemory())
	digest := crypto.Hash([]byte("set"))
	e := SignEntry{TxSet: digest.String(), Fingerprint: "CCCCCC", SignedAt: 42}

	for i := 0; i < 3; i++ {
		if err := l.Record(e, digest); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}
	meta, _ := l.Meta("CCCCCC")
	if meta.Count != 1 {
		t.Errorf("meta.Count = %d, want 1", meta.Count)
	}
}

func TestSignLog_Clear(t *testing.T) {
	db := storage.NewMemory()
	l := NewSignLog(db)

	for _, fp := range []string{"AAAAAA", "BBBBBB"} {
		digest := crypto.Hash([]byte(fp))
		if err := l.Record(SignEntry{Fingerprint: fp, SignedAt: 7}, digest); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}
	if err := l.Clear("AAAAAA"); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	if _, total, _ := l.Query("AAAAAA", 0, 0); total != 0 {
		t.Errorf("cleared seed still has %d entries", total)
	}
	if meta, _ := l.Meta("AAAAAA"); meta.Count != 0 {
		t.Errorf("cleared meta = %+v", meta)
	}
	if _, total, _ := l.Query("BBBBBB", 0, 0); total != 1 {
		t.Errorf("other seed has %d entries, want 1", total)
	}

	// Clearing an unknown seed is not an error.
	if err := l.Clear("ZZZZZZ"); err != nil {
		t.Errorf("Clear(unknown) error: %v", err)
	}
}
