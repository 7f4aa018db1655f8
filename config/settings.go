package config

import (
	"fmt"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/internal/ots"
	"github.com/Klingon-tech/ots/pkg/types"
)

// NetworkID returns the ledger network of the config.
func (c *Config) NetworkID() (types.Network, error) {
	return types.ParseNetwork(string(c.Network))
}

// LoadWordlists installs the word tables found under WordlistDir.
func (c *Config) LoadWordlists() error {
	_, err := mnemonic.LoadDir(c.WordlistDir())
	return err
}

// Settings builds the runtime settings store from the config.
func (c *Config) Settings() (*ots.Settings, error) {
	s := ots.NewSettings()
	s.SetEntropyEnforced(c.Entropy.Enforce)
	if err := s.SetEntropyLevel(c.Entropy.Level); err != nil {
		return nil, err
	}
	if err := s.SetDepth(c.Search.Accounts, c.Search.Indices); err != nil {
		return nil, err
	}
	s.SetStrict(c.Seed.StrictLanguage)

	langs := []struct {
		code string
		kind types.SeedType
	}{
		{c.Seed.MoneroLanguage, types.SeedTypeMonero},
		{c.Seed.PolyseedLanguage, types.SeedTypePolyseed},
	}
	for _, l := range langs {
		if l.code == "" {
			continue
		}
		lang, err := mnemonic.FromCode(l.code)
		if err != nil {
			return nil, fmt.Errorf("default %s language: %w", l.kind, err)
		}
		if err := s.SetDefaultLanguage(l.kind, lang); err != nil {
			return nil, err
		}
	}
	return s, nil
}
