package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

var (
	searchLimit        int
	searchCategory     int
	searchIncludeStale bool
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog",
	Long: `Full-text search over parts or sets.

Every word must match. Parts match on number, name and category; sets
match on name and category.`,
}

var searchPartsCmd = &cobra.Command{
	Use:   "parts <query>",
	Short: "Search parts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchParts,
}

var searchSetsCmd = &cobra.Command{
	Use:   "sets <query>",
	Short: "Search sets",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchSets,
}

func init() {
	pf := searchCmd.PersistentFlags()
	pf.IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	pf.IntVarP(&searchCategory, "category", "c", 0, "only results in this category id")
	pf.BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchPartsCmd.Flags().BoolVar(&searchIncludeStale, "include-stale", false, "include parts missing from the latest dump")

	searchCmd.AddCommand(searchPartsCmd)
	searchCmd.AddCommand(searchSetsCmd)
	rootCmd.AddCommand(searchCmd)
}

func searchOptions() domain.SearchOptions {
	return domain.SearchOptions{
		Limit:        searchLimit,
		CategoryID:   searchCategory,
		IncludeStale: searchIncludeStale,
	}
}

func runSearchParts(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	parts, err := catalogService.SearchParts(commandContext(cmd), strings.Join(args, " "), searchOptions())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, parts)
	}
	if len(parts) == 0 {
		cmd.Println("No parts found.")
		return nil
	}
	for i := range parts {
		printPartLine(cmd, &parts[i])
	}
	return nil
}

func runSearchSets(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	sets, err := catalogService.SearchSets(commandContext(cmd), strings.Join(args, " "), searchOptions())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, sets)
	}
	return outputSets(cmd, sets)
}

func outputSets(cmd *cobra.Command, sets []domain.Set) error {
	if len(sets) == 0 {
		cmd.Println("No sets found.")
		return nil
	}
	for i := range sets {
		s := &sets[i]
		cmd.Printf("  %-10s %s (%d) [%s]\n", s.ID, s.Name, s.Year, s.CategoryName)
	}
	return nil
}

func printPartLine(cmd *cobra.Command, p *domain.Part) {
	stale := ""
	if p.Stale {
		stale = " (stale)"
	}
	cmd.Printf("  %-10s %s [%s]%s\n", p.ID, p.Name, p.CategoryName, stale)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
