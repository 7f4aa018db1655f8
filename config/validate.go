package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/Klingon-tech/ots/internal/mnemonic"
	"github.com/Klingon-tech/ots/pkg/types"
)

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Stagenet:
	default:
		return fmt.Errorf("network must be %q, %q or %q", Mainnet, Testnet, Stagenet)
	}

	if err := validateLanguage(cfg.Seed.MoneroLanguage, types.SeedTypeMonero, "seed.language.monero"); err != nil {
		return err
	}
	if err := validateLanguage(cfg.Seed.PolyseedLanguage, types.SeedTypePolyseed, "seed.language.polyseed"); err != nil {
		return err
	}

	if cfg.Entropy.Level < 0 || cfg.Entropy.Level > 8 {
		return fmt.Errorf("entropy.level must be in range [0, 8]")
	}
	if cfg.Search.Accounts == 0 || cfg.Search.Indices == 0 {
		return fmt.Errorf("search.accounts and search.indices must be positive")
	}

	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for i, ip := range cfg.RPC.AllowedIPs {
		if net.ParseIP(ip) == nil {
			if _, _, err := net.ParseCIDR(ip); err != nil {
				return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, ip)
			}
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("log.level %q is not a log level", cfg.Log.Level)
	}
	return nil
}

func validateLanguage(code string, kind types.SeedType, field string) error {
	if code == "" {
		return nil
	}
	lang, err := mnemonic.FromCode(code)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !lang.Supports(kind) {
		return fmt.Errorf("%s: %s has no %s word table", field, code, kind)
	}
	return nil
}
