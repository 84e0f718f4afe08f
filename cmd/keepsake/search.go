// Saved-search commands for the keepsake CLI.
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

var (
	searchID      int64
	searchName    string
	searchQuery   string
	searchFilters string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Manage saved searches",
}

var searchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved searches by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		searches, err := a.searches.List(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			if searches == nil {
				searches = []types.SavedSearch{}
			}
			return printJSON(cmd.OutOrStdout(), searches)
		}
		printSearchTable(cmd.OutOrStdout(), searches)
		return nil
	},
}

var searchSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a saved search",
	Long: `Save writes a saved search. With --id the search with that id is
updated (and may be renamed); otherwise the search named --name is
updated, or created when there is none.

Example:
  keepsake search save --name Nature --query forest
  keepsake search save --name Nature --query lake --filters "purity=100&sorting=toplist"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := a.searches.UpsertOne(cmd.Context(), types.SavedSearch{
			ID:      searchID,
			Name:    searchName,
			Query:   searchQuery,
			Filters: searchFilters,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %q (id %d)\n", saved.Name, saved.ID)
		return nil
	},
}

var searchDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a saved search by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.searches.Delete(cmd.Context(), searchName)
	},
}

func init() {
	searchSaveCmd.Flags().Int64Var(&searchID, "id", 0, "id of the search to update")
	searchSaveCmd.Flags().StringVar(&searchName, "name", "", "search name")
	searchSaveCmd.Flags().StringVar(&searchQuery, "query", "", "query text")
	searchSaveCmd.Flags().StringVar(&searchFilters, "filters", "", "filter expression in query-string form")
	searchSaveCmd.MarkFlagRequired("name")

	searchDeleteCmd.Flags().StringVar(&searchName, "name", "", "search name")
	searchDeleteCmd.MarkFlagRequired("name")

	searchCmd.AddCommand(searchListCmd)
	searchCmd.AddCommand(searchSaveCmd)
	searchCmd.AddCommand(searchDeleteCmd)
}

func printSearchTable(out io.Writer, searches []types.SavedSearch) {
	if len(searches) == 0 {
		fmt.Fprintln(out, "No saved searches.")
		return
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQUERY\tFILTERS")
	fmt.Fprintln(w, "--\t----\t-----\t-------")
	for _, s := range searches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.Query, s.Filters)
	}
	w.Flush()
	for line := range strings.SplitSeq(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}
