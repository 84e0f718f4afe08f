// Config loading for the keepsake CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/keepsake/internal/favorites"
	"github.com/mesh-intelligence/keepsake/internal/logging"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "KEEPSAKE"

	cfgKeyDataDir          = "data_dir"
	cfgKeyBackupDir        = "backup_dir"
	cfgKeyLogLevel         = "log.level"
	cfgKeyLogFormat        = "log.format"
	cfgKeyPageSize         = "pager.page_size"
	cfgKeyPrefetchDistance = "pager.prefetch_distance"
	cfgKeyInitialLoadSize  = "pager.initial_load_size"
	cfgKeyConcurrency      = "pager.resolve_concurrency"
	cfgKeyLocalRoots       = "local.roots"
	cfgKeyServerAddr       = "server.addr"

	defaultServerAddr = "127.0.0.1:7878"
)

// envKeys are the settings that KEEPSAKE_* variables override. data_dir
// is left out so the config file wins over KEEPSAKE_DATA_DIR.
var envKeys = map[string]string{
	cfgKeyLogLevel:   "KEEPSAKE_LOG_LEVEL",
	cfgKeyLogFormat:  "KEEPSAKE_LOG_FORMAT",
	cfgKeyPageSize:   "KEEPSAKE_PAGE_SIZE",
	cfgKeyServerAddr: "KEEPSAKE_SERVER_ADDR",
	cfgKeyBackupDir:  "KEEPSAKE_BACKUP_DIR",
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Keepsake configuration

# Data directory (optional; overridable by --data-dir)
# data_dir:

# Backup directory (default: <data_dir>/backups)
# backup_dir:

log:
  level: info
  format: auto   # auto, text, json, color

pager:
  page_size: 24
  # prefetch_distance: 24
  # initial_load_size: 72
  resolve_concurrency: 4

local:
  # Directories local favorites may live in; empty allows any path.
  roots: []

server:
  addr: 127.0.0.1:7878
`

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run. A .env file next to it is loaded into the
// environment first; variables already set are not overridden.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}
	if err := loadEnvFile(configDir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, logging.FormatAuto)
	v.SetDefault(cfgKeyPageSize, favorites.DefaultPageSize)
	v.SetDefault(cfgKeyConcurrency, favorites.DefaultConcurrency)
	v.SetDefault(cfgKeyServerAddr, defaultServerAddr)
	v.SetEnvPrefix(envPrefix)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes defaultConfigYAML unless config.yaml exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func loadEnvFile(configDir string) error {
	path := filepath.Join(configDir, envFileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func pagerConfig(v *viper.Viper) favorites.PagerConfig {
	return favorites.PagerConfig{
		PageSize:         v.GetInt(cfgKeyPageSize),
		PrefetchDistance: v.GetInt(cfgKeyPrefetchDistance),
		InitialLoadSize:  v.GetInt(cfgKeyInitialLoadSize),
		Concurrency:      v.GetInt(cfgKeyConcurrency),
	}
}

func loggingConfig(v *viper.Viper, w io.Writer) logging.Config {
	return logging.Config{
		Writer: w,
		Level:  v.GetString(cfgKeyLogLevel),
		Format: v.GetString(cfgKeyLogFormat),
	}
}
