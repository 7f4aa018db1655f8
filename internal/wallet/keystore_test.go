package wallet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Klingon-tech/ots/internal/storage"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	return NewKeystore(storage.NewMemory())
}

func TestKeystore_CreateAndLoad(t *testing.T) {
	ks := testKeystore(t)
	secret := []byte("seed material")
	password := []byte("test-password")

	if err := ks.Create(Item{Name: "main", Kind: "polyseed", Secret: secret}, password, fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	loaded, err := ks.Load("main", password)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(loaded, secret) {
		t.Error("loaded secret does not match original")
	}

	if _, err := ks.Load("main", []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Load() with wrong password error = %v, want ErrWrongPassword", err)
	}
	if _, err := ks.Load("missing", password); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrRecordNotFound", err)
	}
}

func TestKeystore_CreateDuplicate(t *testing.T) {
	ks := testKeystore(t)
	it := Item{Name: "dup", Kind: "monero", Secret: []byte("x")}

	if err := ks.Create(it, []byte("pass"), fastParams()); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	if err := ks.Create(it, []byte("pass"), fastParams()); err == nil {
		t.Error("Create() with duplicate name should fail")
	}
}

func TestKeystore_ListOrder(t *testing.T) {
	ks := testKeystore(t)
	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := ks.Create(Item{Name: n, Kind: "monero", Secret: []byte(n)}, []byte("p"), fastParams()); err != nil {
			t.Fatalf("Create(%q) error: %v", n, err)
		}
	}

	entries, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != len(names) {
		t.Fatalf("List() = %d entries, want %d", len(entries), len(names))
	}
	for i, e := range entries {
		if e.Name != names[i] || e.Position != i {
			t.Errorf("entry %d = %+v, want %q", i, e, names[i])
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entry %d has no creation time", i)
		}
	}
}

func TestKeystore_Delete(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create(Item{Name: "gone", Secret: []byte("x")}, []byte("p"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := ks.Delete("gone"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := ks.Delete("gone"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("second Delete() error = %v, want ErrRecordNotFound", err)
	}
}

func TestKeystore_ReplaceAll(t *testing.T) {
	ks := testKeystore(t)
	password := []byte("jar-password")
	if err := ks.Create(Item{Name: "stale", Secret: []byte("old")}, password, fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	items := []Item{
		{Name: "b", Kind: "legacy", Secret: []byte("second")},
		{Name: "a", Kind: "monero", Secret: []byte("first")},
	}
	if err := ks.ReplaceAll(items, password, fastParams()); err != nil {
		t.Fatalf("ReplaceAll() error: %v", err)
	}

	got, err := ks.LoadAll(password)
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadAll() = %d items, want 2", len(got))
	}
	for i := range items {
		if got[i].Name != items[i].Name || got[i].Kind != items[i].Kind || !bytes.Equal(got[i].Secret, items[i].Secret) {
			t.Errorf("item %d = %+v, want %+v", i, got[i], items[i])
		}
	}

	dup := []Item{{Name: "x"}, {Name: "x"}}
	if err := ks.ReplaceAll(dup, password, fastParams()); err == nil {
		t.Error("ReplaceAll() with duplicate names should fail")
	}
	if _, err := ks.LoadAll([]byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("LoadAll() with wrong password error = %v, want ErrWrongPassword", err)
	}
}

func TestKeystore_Badger(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	ks := NewKeystore(db)
	if err := ks.ReplaceAll([]Item{{Name: "disk", Kind: "polyseed", Secret: []byte("s")}}, []byte("p"), fastParams()); err != nil {
		t.Fatalf("ReplaceAll() error: %v", err)
	}
	db.Close()

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db.Close()
	got, err := NewKeystore(db).LoadAll([]byte("p"))
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "disk" || string(got[0].Secret) != "s" {
		t.Errorf("LoadAll() after reopen = %+v", got)
	}
}
