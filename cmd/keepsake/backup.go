// Backup commands for the keepsake CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/keepsake/internal/backup"
	"github.com/mesh-intelligence/keepsake/internal/paths"
)

var (
	backupOpts backup.Options
	backupOut  string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup file",
	Long: `Export writes the selected parts to a new backup file in the backup
directory. Without part flags everything is exported.

Example:
  keepsake backup export
  keepsake backup export --favorites --out ~/Backups`,
	Args: cobra.NoArgs,
	RunE: runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a backup file",
	Long: `Import restores the selected parts of a backup file. Without part flags
everything in the file is restored. Importing the same file twice changes
nothing the second time.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupImport,
}

func init() {
	for _, c := range []*cobra.Command{backupExportCmd, backupImportCmd} {
		c.Flags().BoolVar(&backupOpts.Settings, "settings", false, "include preferences")
		c.Flags().BoolVar(&backupOpts.Favorites, "favorites", false, "include favorites and the catalog items they need")
		c.Flags().BoolVar(&backupOpts.SavedSearches, "saved-searches", false, "include saved searches")
	}
	backupExportCmd.Flags().StringVar(&backupOut, "out", "", "backup directory (default: <data-dir>/backups)")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
}

// selectedOptions returns the part flags, or every part when none is set.
func selectedOptions(flags *pflag.FlagSet) backup.Options {
	if flags.Changed("settings") || flags.Changed("favorites") || flags.Changed("saved-searches") {
		return backupOpts
	}
	return backup.AllOptions
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	opts := selectedOptions(cmd.Flags())
	if !opts.Any() {
		return usageError(fmt.Errorf("nothing selected to export"))
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.writer.Write(cmd.Context(), opts)
	if err != nil {
		return err
	}
	data, err := backup.Encode(snap)
	if err != nil {
		return err
	}

	outFlag := backupOut
	if outFlag == "" {
		outFlag = cfg.GetString(cfgKeyBackupDir)
	}
	dir, err := paths.ResolveBackupDir(outFlag, a.dataDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, backup.FileName(time.Now()))
	if err := paths.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"path":      path,
			"bytes":     len(data),
			"favorites": len(snap.Favorites),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d favorite(s))\n",
		path, humanize.Bytes(uint64(len(data))), len(snap.Favorites))
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return usageError(fmt.Errorf("read backup: %w", err))
	}
	snap, err := backup.Read(raw)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := a.restorer.Restore(cmd.Context(), snap, selectedOptions(cmd.Flags()))
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), rc)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "restored backup version %d (run %s)\n", rc.Version, rc.RunID)
	fmt.Fprintf(out, "  preferences:     %t\n", rc.PreferencesRestored)
	fmt.Fprintf(out, "  saved searches:  %d\n", rc.SavedSearches)
	fmt.Fprintf(out, "  cached items:    %d (%d skipped)\n", rc.CachedItems, rc.CachedItemsSkipped)
	fmt.Fprintf(out, "  favorites:       %d new, %d already present\n", rc.FavoritesInserted, rc.FavoritesExisting)
	if n := len(rc.DroppedFavorites); n > 0 {
		fmt.Fprintf(out, "  dropped:         %d favorite(s) not available here\n", n)
		for _, f := range rc.DroppedFavorites {
			fmt.Fprintf(out, "    %s %s\n", f.SourceKind, f.SourceID)
		}
	}
	return nil
}
