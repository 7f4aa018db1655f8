// Package config handles application configuration.
//
// Settings come, in increasing precedence, from built-in defaults, the
// ots.conf file in the data directory, OTS_* environment variables and
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType names the ledger network.
type NetworkType string

const (
	Mainnet  NetworkType = "mainnet"
	Testnet  NetworkType = "testnet"
	Stagenet NetworkType = "stagenet"
)

// Config holds the runtime configuration of the CLI and the daemon.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Seed phrases
	Seed SeedConfig

	// Entropy gate
	Entropy EntropyConfig

	// Address search bounds
	Search SearchConfig

	// Seed jar persistence
	Jar JarConfig

	// RPC server
	RPC RPCConfig

	// Logging
	Log LogConfig
}

// SeedConfig holds the default phrase languages. Empty means none.
type SeedConfig struct {
	// Wordlists is the directory of extra word tables.
	Wordlists        string `conf:"seed.wordlists"`
	MoneroLanguage   string `conf:"seed.language.monero"`
	PolyseedLanguage string `conf:"seed.language.polyseed"`
	// StrictLanguage rejects phrases valid in several languages.
	StrictLanguage bool `conf:"seed.language.strict"`
}

// EntropyConfig holds the entropy gate settings.
type EntropyConfig struct {
	Enforce bool    `conf:"entropy.enforce"`
	Level   float64 `conf:"entropy.level"`
}

// SearchConfig holds the subaddress search bounds.
type SearchConfig struct {
	Accounts uint32 `conf:"search.accounts"`
	Indices  uint32 `conf:"search.indices"`
}

// JarConfig holds seed jar persistence settings.
type JarConfig struct {
	Persist bool   `conf:"jar.persist"`
	File    string `conf:"jar.file"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ots
//	macOS:   ~/Library/Application Support/OTS
//	Windows: %APPDATA%\OTS
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ots"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "OTS")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "OTS")
		}
		return filepath.Join(home, "AppData", "Roaming", "OTS")
	default:
		return filepath.Join(home, ".ots")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the directory of the on-disk seed jar.
func (c *Config) KeystoreDir() string {
	if c.Jar.File != "" {
		if filepath.IsAbs(c.Jar.File) {
			return c.Jar.File
		}
		return filepath.Join(c.NetworkDataDir(), c.Jar.File)
	}
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// WordlistDir returns the directory of extra word tables.
func (c *Config) WordlistDir() string {
	if c.Seed.Wordlists != "" {
		if filepath.IsAbs(c.Seed.Wordlists) {
			return c.Seed.Wordlists
		}
		return filepath.Join(c.DataDir, c.Seed.Wordlists)
	}
	return filepath.Join(c.DataDir, "wordlists")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ots.conf")
}
