package config

import (
	"github.com/Klingon-tech/ots/internal/entropy"
	"github.com/Klingon-tech/ots/internal/ots"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Seed: SeedConfig{
			MoneroLanguage:   "en",
			PolyseedLanguage: "en",
		},
		Entropy: EntropyConfig{
			Enforce: true,
			Level:   entropy.DefaultLevel,
		},
		Search: SearchConfig{
			Accounts: ots.DefaultMaxAccountDepth,
			Indices:  ots.DefaultMaxIndexDepth,
		},
		Jar: JarConfig{
			Persist: false,
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       18090,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.Port = 28090
	return cfg
}

// DefaultStagenet returns the default configuration for stagenet.
func DefaultStagenet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Stagenet
	cfg.RPC.Port = 38090
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Stagenet:
		return DefaultStagenet()
	default:
		return DefaultMainnet()
	}
}
