package ots

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/types"
)

func TestSettings_Depth(t *testing.T) {
	s := NewSettings()
	if a, i := s.Depth(); a != DefaultMaxAccountDepth || i != DefaultMaxIndexDepth {
		t.Fatalf("Depth() = %d x %d", a, i)
	}
	if err := s.SetMaxAccountDepth(3); err != nil {
		t.Fatalf("SetMaxAccountDepth() error: %v", err)
	}
	if err := s.SetMaxIndexDepth(0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetMaxIndexDepth(0) error = %v", err)
	}
	if a, i := s.Depth(); a != 3 || i != DefaultMaxIndexDepth {
		t.Errorf("Depth() = %d x %d", a, i)
	}
	s.ResetDepth()
	if a, _ := s.Depth(); a != DefaultMaxAccountDepth {
		t.Errorf("Depth() after reset = %d", a)
	}
}

func TestSettings_Entropy(t *testing.T) {
	s := NewSettings()
	if g := s.Gate(); !g.Enforce || g.Level != 3.5 {
		t.Fatalf("Gate() = %+v", g)
	}
	if err := s.SetEntropyLevel(8.5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetEntropyLevel(8.5) error = %v", err)
	}
	if err := s.SetEntropyLevel(2); err != nil {
		t.Fatalf("SetEntropyLevel() error: %v", err)
	}
	s.SetEntropyEnforced(false)
	if g := s.Gate(); g.Enforce || g.Level != 2 {
		t.Errorf("Gate() = %+v", g)
	}
}

func TestSettings_Language(t *testing.T) {
	s := NewSettings()
	if s.DefaultLanguage(types.SeedTypeMonero) != nil {
		t.Fatal("fresh settings have a default language")
	}
	en, _ := mnemonic.FromCode("en")
	es, _ := mnemonic.FromCode("es")

	if err := s.SetDefaultLanguage(types.SeedTypeLegacy, en); err != nil {
		t.Fatalf("SetDefaultLanguage() error: %v", err)
	}
	if !s.IsDefaultLanguage(types.SeedTypeMonero, en) {
		t.Error("legacy default does not apply to monero")
	}
	if err := s.SetDefaultLanguage(types.SeedTypeMonero, es); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetDefaultLanguage(es, monero) error = %v", err)
	}
	if err := s.SetDefaultLanguage(types.SeedTypePolyseed, es); err != nil {
		t.Fatalf("SetDefaultLanguage() error: %v", err)
	}
	if s.DefaultLanguage(types.SeedTypePolyseed) != es {
		t.Error("polyseed default not set")
	}
	s.SetDefaultLanguage(types.SeedTypePolyseed, nil)
	if s.DefaultLanguage(types.SeedTypePolyseed) != nil {
		t.Error("nil did not clear the default")
	}

	s.SetStrict(true)
	if !s.Strict() {
		t.Error("Strict() = false")
	}
}
