package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags of the daemon.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Seeds
	Language       string
	StrictLanguage bool

	// Entropy
	EntropyLevel float64
	NoEntropy    bool

	// Search
	Accounts uint
	Indices  uint

	// Jar
	Persist bool
	JarFile string

	// RPC
	RPCAddr    string
	RPCPort    int
	RPCAllowed string
	RPCCORS    string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetStrict  bool
	SetPersist bool
	SetLogJSON bool
	SetLevel   bool
}

// ParseFlags parses daemon flags from args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("otsd", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet or stagenet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Seeds
	fs.StringVar(&f.Language, "language", "", "Default phrase language code for every seed kind")
	fs.BoolVar(&f.StrictLanguage, "strict-language", false, "Reject phrases valid in several languages")

	// Entropy
	fs.Float64Var(&f.EntropyLevel, "entropy-level", 0, "Minimum entropy of generated randomness (bits per byte)")
	fs.BoolVar(&f.NoEntropy, "no-entropy-check", false, "Disable the entropy gate")

	// Search
	fs.UintVar(&f.Accounts, "accounts", 0, "Accounts searched when matching addresses")
	fs.UintVar(&f.Indices, "indices", 0, "Indices per account searched when matching addresses")

	// Jar
	fs.BoolVar(&f.Persist, "persist", false, "Keep the seed jar in an encrypted keystore")
	fs.StringVar(&f.JarFile, "jar-file", "", "Keystore directory of the seed jar")

	// RPC
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed IPs for RPC")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Allowed CORS origins for RPC (comma-separated)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = PrintUsage

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.SetStrict = isFlagSet(fs, "strict-language")
	f.SetPersist = isFlagSet(fs, "persist")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.SetLevel = isFlagSet(fs, "entropy-level")

	f.Args = fs.Args()
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Seeds
	if f.Language != "" {
		cfg.Seed.MoneroLanguage = f.Language
		cfg.Seed.PolyseedLanguage = f.Language
	}
	if f.SetStrict {
		cfg.Seed.StrictLanguage = f.StrictLanguage
	}

	// Entropy
	if f.SetLevel {
		cfg.Entropy.Level = f.EntropyLevel
	}
	if f.NoEntropy {
		cfg.Entropy.Enforce = false
	}

	// Search
	if f.Accounts != 0 {
		cfg.Search.Accounts = uint32(f.Accounts)
	}
	if f.Indices != 0 {
		cfg.Search.Indices = uint32(f.Indices)
	}

	// Jar
	if f.SetPersist {
		cfg.Jar.Persist = f.Persist
	}
	if f.JarFile != "" {
		cfg.Jar.File = f.JarFile
	}

	// RPC
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = parseStringList(f.RPCCORS)
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the daemon help text to stderr.
func PrintUsage() {
	usage := `otsd - offline signing daemon

Usage:
  otsd [options]
  otsd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network type: mainnet (default), testnet or stagenet
  --datadir       Data directory (default: ~/.ots)
  --config, -c    Config file path (default: <datadir>/ots.conf)

Seed Options:
  --language          Default phrase language code (default: en)
  --strict-language   Reject phrases valid in several languages

Entropy Options:
  --entropy-level     Minimum bits per byte of generated randomness (default: 3.5)
  --no-entropy-check  Disable the entropy gate

Search Options:
  --accounts      Accounts searched when matching addresses (default: 10)
  --indices       Indices per account (default: 100)

Jar Options:
  --persist       Keep the seed jar in an encrypted keystore
  --jar-file      Keystore directory (default: <datadir>/<network>/keystore)

RPC Options:
  --rpc-addr      RPC listen address (default: 127.0.0.1)
  --rpc-port      RPC port (mainnet: 18090, testnet: 28090, stagenet: 38090)
  --rpc-allowed   Allowed IPs for RPC (comma-separated)
  --rpc-cors      Allowed CORS origins for RPC (comma-separated)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stderr)
  --log-json      Output logs as JSON

Environment:
  Every config key can also be set as OTS_<KEY>, with dots replaced by
  underscores, e.g. OTS_SEARCH_ACCOUNTS=20.

Examples:
  # Serve the signer on stagenet
  otsd --network=stagenet

  # Keep seeds between runs
  otsd --persist
`
	fmt.Fprint(os.Stderr, usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. OTS_* environment variables
// 5. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	env, err := LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	// Determine network first (needed for defaults)
	network := NetworkType(strings.ToLower(flags.Network))
	if network == "" {
		network = NetworkType(strings.ToLower(env.Network))
	}
	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	} else if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := ApplyEnv(cfg, env); err != nil {
		return nil, nil, err
	}

	// Flags have the highest precedence.
	ApplyFlags(cfg, flags)
	if err := cfg.LoadWordlists(); err != nil {
		return nil, nil, fmt.Errorf("loading word tables: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// LoadFromFile loads config from defaults, the conf file and the
// environment, without flags. The CLI applies its own flags on top.
func LoadFromFile(dataDir string, network NetworkType) (*Config, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	if network == "" {
		network = NetworkType(strings.ToLower(env.Network))
	}
	cfg := Default(network)
	if dataDir != "" {
		cfg.DataDir = dataDir
	} else if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	fileValues, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config: %w", err)
	}
	if err := ApplyEnv(cfg, env); err != nil {
		return nil, err
	}
	if network != "" {
		cfg.Network = network
	}
	if err := cfg.LoadWordlists(); err != nil {
		return nil, fmt.Errorf("loading word tables: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. It is safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
