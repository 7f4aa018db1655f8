// Package log provides structured logging for OTS.
//
// Output goes to stderr so command output on stdout stays machine readable.
// Seeds are identified by fingerprint; key material is never logged.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Seed    zerolog.Logger
	Wallet  zerolog.Logger
	Jar     zerolog.Logger
	RPC     zerolog.Logger
	Storage zerolog.Logger
)

const consoleTimeFormat = "15:04:05"

func init() {
	SetLogger(newLogger(console(os.Stderr), "info"))
}

// Init configures the global logger. The console gets colored text, or JSON
// when jsonOutput is set. When file is non-empty every event is also
// appended to it as JSON.
func Init(level string, jsonOutput bool, file string) error {
	var out io.Writer = os.Stderr
	if !jsonOutput {
		out = console(os.Stderr)
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(out, f)
	}
	SetLogger(newLogger(out, level))
	return nil
}

// NewJSONLogger creates a JSON logger writing to w.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func console(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// parseLevel maps a config level to zerolog. Unknown levels mean info.
func parseLevel(level string) zerolog.Level {
	switch level {
	case "disabled", "off":
		return zerolog.Disabled
	case "trace", "debug", "info", "warn", "error":
		lvl, _ := zerolog.ParseLevel(level)
		return lvl
	default:
		return zerolog.InfoLevel
	}
}

// SetLogger replaces the global logger and rebuilds the component loggers.
func SetLogger(l zerolog.Logger) {
	Logger = l
	Seed = WithComponent("seed")
	Wallet = WithComponent("wallet")
	Jar = WithComponent("jar")
	RPC = WithComponent("rpc")
	Storage = WithComponent("storage")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Benchmark logs the duration of an operation at debug level when the
// returned function is called.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
