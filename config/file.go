package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Seeds
	case "seed.wordlists":
		cfg.Seed.Wordlists = value
	case "seed.language.monero":
		cfg.Seed.MoneroLanguage = value
	case "seed.language.polyseed":
		cfg.Seed.PolyseedLanguage = value
	case "seed.language.strict":
		cfg.Seed.StrictLanguage = parseBool(value)

	// Entropy
	case "entropy.enforce":
		cfg.Entropy.Enforce = parseBool(value)
	case "entropy.level":
		level, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Entropy.Level = level

	// Search
	case "search.accounts":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Search.Accounts = uint32(n)
	case "search.indices":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Search.Indices = uint32(n)

	// Jar
	case "jar.persist":
		cfg.Jar.Persist = parseBool(value)
	case "jar.file":
		cfg.Jar.File = value

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# OTS Configuration
#
# Offline signing toolkit settings. Environment variables (OTS_*) and
# command-line flags override the values below.

# Network: mainnet, testnet or stagenet
network = ` + string(network) + `

# Data directory (default: ~/.ots)
# datadir = ~/.ots

# ============================================================================
# Seeds
# ============================================================================

# Default phrase languages (language codes, empty for none)
seed.language.monero = en
seed.language.polyseed = en

# Reject phrases that are valid in more than one language
# seed.language.strict = false

# Extra word tables: <dir>/monero/<code>.txt and <dir>/polyseed/<code>.txt
# seed.wordlists = wordlists

# ============================================================================
# Entropy
# ============================================================================

# Reject generated randomness below the level (bits per byte, 0-8)
entropy.enforce = true
entropy.level = 3.5

# ============================================================================
# Address search
# ============================================================================

search.accounts = 10
search.indices = 100

# ============================================================================
# Seed jar
# ============================================================================

# Keep the jar in an encrypted keystore between runs
jar.persist = false
# jar.file = keystore

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + defaultRPCPort(network) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultRPCPort(network NetworkType) string {
	return strconv.Itoa(Default(network).RPC.Port)
}
