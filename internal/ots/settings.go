package ots

import (
	"sync"

	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Default address search bounds.
const (
	DefaultMaxAccountDepth = 10
	DefaultMaxIndexDepth   = 100
)

// Settings is the mutable process state of the facade: the entropy gate,
// address search bounds, default languages and language detection mode.
// The zero value is not usable; use NewSettings.
type Settings struct {
	mu sync.Mutex

	gate       entropy.Gate
	maxAccount uint32
	maxIndex   uint32
	languages  map[types.SeedType]*mnemonic.Language
	strict     bool
}

// NewSettings returns settings with an enforcing entropy gate, the
// default search bounds and no default languages.
func NewSettings() *Settings {
	return &Settings{
		gate:       entropy.DefaultGate(),
		maxAccount: DefaultMaxAccountDepth,
		maxIndex:   DefaultMaxIndexDepth,
		languages:  make(map[types.SeedType]*mnemonic.Language),
	}
}

// Gate returns the entropy gate for fresh randomness.
func (s *Settings) Gate() entropy.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}

// SetEntropyEnforced turns the entropy gate on or off.
func (s *Settings) SetEntropyEnforced(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate.Enforce = on
}

// SetEntropyLevel sets the minimum bits per byte, between 0 and 8.
func (s *Settings) SetEntropyLevel(level float64) error {
	if level < 0 || level > 8 {
		return errorf(ErrInvalidInput, "entropy level %.2f outside [0, 8]", level)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate.Level = level
	return nil
}

// Depth returns the address search bounds.
func (s *Settings) Depth() (maxAccount, maxIndex uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxAccount, s.maxIndex
}

// SetDepth sets both search bounds. Zero bounds are rejected.
func (s *Settings) SetDepth(maxAccount, maxIndex uint32) error {
	if maxAccount == 0 || maxIndex == 0 {
		return errorf(ErrInvalidInput, "search depth must be positive, got %d x %d", maxAccount, maxIndex)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAccount, s.maxIndex = maxAccount, maxIndex
	return nil
}

// SetMaxAccountDepth sets the account bound.
func (s *Settings) SetMaxAccountDepth(n uint32) error {
	_, idx := s.Depth()
	return s.SetDepth(n, idx)
}

// SetMaxIndexDepth sets the index bound.
func (s *Settings) SetMaxIndexDepth(n uint32) error {
	acc, _ := s.Depth()
	return s.SetDepth(acc, n)
}

// ResetDepth restores the default search bounds.
func (s *Settings) ResetDepth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAccount, s.maxIndex = DefaultMaxAccountDepth, DefaultMaxIndexDepth
}

// DefaultLanguage returns the default language for kind, or nil.
func (s *Settings) DefaultLanguage(kind types.SeedType) *mnemonic.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.languages[kind.Family()]
}

// SetDefaultLanguage makes lang the default for kind. A nil lang clears
// the default.
func (s *Settings) SetDefaultLanguage(kind types.SeedType, lang *mnemonic.Language) error {
	if lang != nil && !lang.Supports(kind) {
		return errorf(ErrInvalidInput, "%s has no %s word table", lang.Code, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if lang == nil {
		delete(s.languages, kind.Family())
		return nil
	}
	s.languages[kind.Family()] = lang
	return nil
}

// IsDefaultLanguage reports whether lang is the default for kind.
func (s *Settings) IsDefaultLanguage(kind types.SeedType, lang *mnemonic.Language) bool {
	return lang != nil && s.DefaultLanguage(kind) == lang
}

// Strict reports whether ambiguous phrases are rejected.
func (s *Settings) Strict() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strict
}

// SetStrict sets the language detection mode.
func (s *Settings) SetStrict(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strict = on
}
