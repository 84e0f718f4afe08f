// Package paths resolves where keepsake keeps its configuration, its
// database and its exported backups.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "keepsake"

// Working-directory-relative names.
const (
	DefaultDataDirName = ".keepsake-db"
	BackupDirName      = "backups"
)

// Environment overrides.
const (
	EnvConfigDir = "KEEPSAKE_CONFIG_DIR"
	EnvDataDir   = "KEEPSAKE_DATA_DIR"
)

// platform holds the OS lookups; tests replace them.
var platform = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/keepsake or ~/.config/keepsake on Linux, and
// os.UserConfigDir()/keepsake elsewhere.
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory:
// $XDG_DATA_HOME/keepsake or ~/.local/share/keepsake on Linux, and the
// configuration directory elsewhere.
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformDir(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir applies the precedence flag > KEEPSAKE_CONFIG_DIR >
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies the precedence flag > data_dir from config.yaml >
// KEEPSAKE_DATA_DIR > $(CWD)/.keepsake-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return abs(v)
		}
	}
	cwd, err := platform.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveBackupDir returns flag when set and dataDir/backups otherwise.
func ResolveBackupDir(flag, dataDir string) (string, error) {
	if flag != "" {
		return abs(flag)
	}
	return filepath.Join(dataDir, BackupDirName), nil
}

// abs expands a leading ~ and makes p absolute.
func abs(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		home, err := platform.homeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
