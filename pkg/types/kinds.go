package types

import (
	"fmt"
	"strings"
)

// Phrase lengths per seed type.
const (
	MoneroSeedWords = 25
	LegacySeedWords = 13
	PolyseedWords   = 16
)

// SeedType identifies a mnemonic scheme.
type SeedType uint8

const (
	SeedTypeMonero SeedType = iota
	SeedTypeLegacy
	SeedTypePolyseed
)

// String returns the seed type name.
func (s SeedType) String() string {
	switch s {
	case SeedTypeMonero:
		return "monero"
	case SeedTypeLegacy:
		return "legacy"
	case SeedTypePolyseed:
		return "polyseed"
	default:
		return fmt.Sprintf("seedtype(%d)", uint8(s))
	}
}

// Family returns the seed type whose word tables s uses.
// Legacy phrases share the Monero tables.
func (s SeedType) Family() SeedType {
	if s == SeedTypeLegacy {
		return SeedTypeMonero
	}
	return s
}

// WordCount returns the phrase length for s, or 0 if unknown.
func (s SeedType) WordCount() int {
	switch s {
	case SeedTypeMonero:
		return MoneroSeedWords
	case SeedTypeLegacy:
		return LegacySeedWords
	case SeedTypePolyseed:
		return PolyseedWords
	default:
		return 0
	}
}

// ParseSeedType parses a seed type name.
func ParseSeedType(s string) (SeedType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monero", "25":
		return SeedTypeMonero, nil
	case "legacy", "13":
		return SeedTypeLegacy, nil
	case "polyseed", "16":
		return SeedTypePolyseed, nil
	default:
		return SeedTypeMonero, fmt.Errorf("unknown seed type %q", s)
	}
}

// AddressType distinguishes standard, sub- and integrated addresses.
type AddressType uint8

const (
	AddressStandard AddressType = iota
	AddressSubaddress
	AddressIntegrated
)

// String returns the address type name.
func (a AddressType) String() string {
	switch a {
	case AddressStandard:
		return "standard"
	case AddressSubaddress:
		return "subaddress"
	case AddressIntegrated:
		return "integrated"
	default:
		return fmt.Sprintf("addresstype(%d)", uint8(a))
	}
}

// AddressIndex identifies a subaddress by account and index.
// (0, 0) is the primary address.
type AddressIndex struct {
	Account uint32 `json:"account"`
	Index   uint32 `json:"index"`
}

// IsPrimary reports whether the index denotes the primary address.
func (i AddressIndex) IsPrimary() bool {
	return i.Account == 0 && i.Index == 0
}

// String returns "account/index".
func (i AddressIndex) String() string {
	return fmt.Sprintf("%d/%d", i.Account, i.Index)
}
