package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/ots/config"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// logPath returns the daemon log file, creating the logs directory when
// the default location is used.
func logPath(cfg *config.Config) (string, error) {
	if cfg.Log.File != "" {
		return expandHome(cfg.Log.File), nil
	}
	dir := expandHome(cfg.LogsDir())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating logs dir: %w", err)
	}
	return filepath.Join(dir, "otsd.log"), nil
}

// keystorePath returns the keystore directory. Seed records are secret,
// so the directory is owner-only.
func keystorePath(cfg *config.Config) (string, error) {
	dir := expandHome(cfg.KeystoreDir())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating keystore dir: %w", err)
	}
	return dir, nil
}
