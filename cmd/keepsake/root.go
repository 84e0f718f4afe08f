// Root command for the keepsake CLI.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/keepsake/internal/logging"
	"github.com/mesh-intelligence/keepsake/internal/paths"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagLogLevel  string
)

// Set by PersistentPreRunE for all subcommands.
var (
	cfg    *viper.Viper
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "keepsake",
	Short:         "Keepsake keeps wallpaper favorites, saved searches and backups",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			v.Set(cfgKeyLogLevel, flagLogLevel)
		}
		l, err := logging.New(loggingConfig(v, cmd.ErrOrStderr()))
		if err != nil {
			return usageError(err)
		}
		slog.SetDefault(l)
		cfg, logger = v, l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.keepsake-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(serveCmd)
}

// resolveDataDir returns the data directory: --data-dir flag > config.yaml
// data_dir > KEEPSAKE_DATA_DIR env > $(CWD)/.keepsake-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, cfg.GetString(cfgKeyDataDir))
}
