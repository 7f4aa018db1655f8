package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by LoadEnv.
const EnvPrefix = "OTS"

// Env holds configuration from OTS_* environment variables. Empty fields
// were not set and leave the config untouched.
type Env struct {
	Network string `envconfig:"NETWORK"`
	DataDir string `envconfig:"DATADIR"`

	Wordlists        string `envconfig:"SEED_WORDLISTS"`
	MoneroLanguage   string `envconfig:"SEED_LANGUAGE_MONERO"`
	PolyseedLanguage string `envconfig:"SEED_LANGUAGE_POLYSEED"`
	StrictLanguage   string `envconfig:"SEED_LANGUAGE_STRICT"`

	EntropyEnforce string `envconfig:"ENTROPY_ENFORCE"`
	EntropyLevel   string `envconfig:"ENTROPY_LEVEL"`

	SearchAccounts string `envconfig:"SEARCH_ACCOUNTS"`
	SearchIndices  string `envconfig:"SEARCH_INDICES"`

	JarPersist string `envconfig:"JAR_PERSIST"`
	JarFile    string `envconfig:"JAR_FILE"`

	RPCAddr    string `envconfig:"RPC_ADDR"`
	RPCPort    string `envconfig:"RPC_PORT"`
	RPCAllowed string `envconfig:"RPC_ALLOWED"`

	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`
	LogJSON  string `envconfig:"LOG_JSON"`
}

// LoadEnv reads the OTS_* environment variables.
func LoadEnv() (*Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &e, nil
}

// values maps the set variables to config file keys.
func (e *Env) values() map[string]string {
	pairs := map[string]string{
		"network":                e.Network,
		"datadir":                e.DataDir,
		"seed.wordlists":         e.Wordlists,
		"seed.language.monero":   e.MoneroLanguage,
		"seed.language.polyseed": e.PolyseedLanguage,
		"seed.language.strict":   e.StrictLanguage,
		"entropy.enforce":        e.EntropyEnforce,
		"entropy.level":          e.EntropyLevel,
		"search.accounts":        e.SearchAccounts,
		"search.indices":         e.SearchIndices,
		"jar.persist":            e.JarPersist,
		"jar.file":               e.JarFile,
		"rpc.addr":               e.RPCAddr,
		"rpc.port":               e.RPCPort,
		"rpc.allowed":            e.RPCAllowed,
		"log.level":              e.LogLevel,
		"log.file":               e.LogFile,
		"log.json":               e.LogJSON,
	}
	for k, v := range pairs {
		if v == "" {
			delete(pairs, k)
		}
	}
	return pairs
}

// ApplyEnv applies the set environment variables to cfg.
func ApplyEnv(cfg *Config, e *Env) error {
	for key, value := range e.values() {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("environment %s_%s: %w", EnvPrefix, key, err)
		}
	}
	return nil
}
