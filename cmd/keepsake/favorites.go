// Favorites commands for the keepsake CLI.
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

var (
	favListLimit int
	favSource    string
	favID        string
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List and edit favorites",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, newest first",
	Long: `List resolves favorites from every source, newest first. Favorites
whose item can no longer be found are skipped and counted.

Example:
  keepsake favorites list
  keepsake favorites list --limit 10
  keepsake favorites list --json`,
	Args: cobra.NoArgs,
	RunE: runFavoritesList,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Add a favorite, or remove it if it exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := types.ParseSourceKind(favSource)
		if err != nil {
			return usageError(err)
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		on, err := a.favorites.Toggle(cmd.Context(), source, favID)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"favorited": on})
		}
		state := "removed from"
		if on {
			state = "added to"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %q %s favorites\n", source, favID, state)
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a favorite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := types.ParseSourceKind(favSource)
		if err != nil {
			return usageError(err)
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.favorites.Add(cmd.Context(), source, favID)
	},
}

var favoritesRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Print one favorite chosen at random",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.favorites.Random(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), item)
		}
		fmt.Fprintln(cmd.OutOrStdout(), item.URL)
		return nil
	},
}

func init() {
	favoritesListCmd.Flags().IntVar(&favListLimit, "limit", 0, "maximum number of favorites (0 = no limit)")
	for _, c := range []*cobra.Command{favoritesToggleCmd, favoritesAddCmd} {
		c.Flags().StringVar(&favSource, "source", "", "source of the item (cached, local)")
		c.Flags().StringVar(&favID, "id", "", "catalog id for cached items, path for local ones")
		c.MarkFlagRequired("source")
		c.MarkFlagRequired("id")
	}

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRandomCmd)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	if favListLimit < 0 {
		return usageError(fmt.Errorf("--limit must not be negative"))
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var items []types.Item
	for item, err := range a.pager.Items(cmd.Context()) {
		if err != nil {
			return fmt.Errorf("list favorites: %w", err)
		}
		items = append(items, item)
		if favListLimit > 0 && len(items) == favListLimit {
			break
		}
	}

	if flagJSON {
		if items == nil {
			items = []types.Item{}
		}
		return printJSON(cmd.OutOrStdout(), items)
	}
	printFavoriteTable(cmd.OutOrStdout(), items, a.pager.Dropped())
	return nil
}

// printFavoriteTable prints items in a human-readable table.
func printFavoriteTable(out io.Writer, items []types.Item, dropped int64) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No favorites found.")
	} else {
		var sb strings.Builder
		w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tID\tSIZE\tDIMENSIONS\tURL")
		fmt.Fprintln(w, "------\t--\t----\t----------\t---")
		for _, it := range items {
			id := it.SourceID
			if len(id) > 32 {
				id = "..." + id[len(id)-29:]
			}
			size, dims := "-", "-"
			if it.FileSize > 0 {
				size = humanize.Bytes(uint64(it.FileSize))
			}
			if it.Width > 0 && it.Height > 0 {
				dims = fmt.Sprintf("%dx%d", it.Width, it.Height)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Source, id, size, dims, it.URL)
		}
		w.Flush()
		for line := range strings.SplitSeq(strings.TrimRight(sb.String(), "\n"), "\n") {
			fmt.Fprintln(out, strings.TrimRight(line, " "))
		}
		fmt.Fprintf(out, "Total: %s favorite(s)\n", humanize.Comma(int64(len(items))))
	}
	if dropped > 0 {
		fmt.Fprintf(out, "Skipped: %d favorite(s) no longer available\n", dropped)
	}
}
