package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

var categoriesUsedBy string

var partCmd = &cobra.Command{
	Use:   "part <id>",
	Short: "Show a part",
	Args:  cobra.ExactArgs(1),
	RunE:  runPart,
}

var setsCmd = &cobra.Command{
	Use:   "sets <prefix>",
	Short: "List sets whose number starts with a prefix",
	Long: `Lists sets whose number starts with a prefix. "6080" matches 6080-1
and 6080-2 as well as 60800-1.`,
	Args: cobra.ExactArgs(1),
	RunE: runSets,
}

var colorCmd = &cobra.Command{
	Use:     "color <id>",
	Aliases: []string{"colour"},
	Short:   "Show a colour",
	Long:    `Shows a colour by id. Unknown ids show colour 0 ("not applicable").`,
	Args:    cobra.ExactArgs(1),
	RunE:    runColor,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	RunE:  runCategories,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List parts added by the latest import",
	Long: `Lists parts first seen within 15 minutes of the newest part in the
catalog, which in practice means the parts new to the latest import.`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

func init() {
	categoriesCmd.Flags().StringVar(&categoriesUsedBy, "used-by", "", "only categories used by parts or sets")

	rootCmd.AddCommand(partCmd)
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(recentCmd)
}

func runPart(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	p, err := catalogService.GetPart(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("part %s: %w", args[0], err)
	}

	cmd.Printf("Part:     %s\n", p.ID)
	cmd.Printf("Name:     %s\n", p.Name)
	cmd.Printf("Category: %s (%d)\n", p.CategoryName, p.CategoryID)
	if p.Weight > 0 {
		cmd.Printf("Weight:   %gg\n", p.Weight)
	}
	if p.DimX != 0 || p.DimY != 0 || p.DimZ != 0 {
		cmd.Printf("Size:     %g x %g x %g\n", p.DimX, p.DimY, p.DimZ)
	}
	if p.Stale {
		cmd.Println("Status:   stale (missing from the latest import)")
	}
	if !p.CreatedAt.IsZero() {
		cmd.Printf("Added:    %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runSets(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	sets, err := catalogService.SetsByPrefix(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("sets %s: %w", args[0], err)
	}
	return outputSets(cmd, sets)
}

func runColor(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: colour id %q is not a number", domain.ErrInvalidInput, args[0])
	}

	c, err := catalogService.GetColor(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("colour %d: %w", id, err)
	}

	if c.ID != id {
		cmd.Printf("Colour %d not found, showing %d.\n", id, c.ID)
	}
	cmd.Printf("Colour: %d %s\n", c.ID, c.Name)
	cmd.Printf("RGB:    %s\n", c.RGB)
	if c.Type != "" {
		cmd.Printf("Type:   %s\n", c.Type)
	}
	if c.YearFrom > 0 {
		cmd.Printf("Years:  %d-%d\n", c.YearFrom, c.YearTo)
	}
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	var usedBy domain.Kind
	if categoriesUsedBy != "" {
		kind, err := domain.ParseKind(categoriesUsedBy)
		if err != nil {
			return err
		}
		usedBy = kind
	}

	cats, err := catalogService.Categories(commandContext(cmd), usedBy)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		cmd.Println("No categories found.")
		return nil
	}
	for _, c := range cats {
		cmd.Printf("  %5d  %s\n", c.ID, c.Name)
	}
	return nil
}

func runRecent(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	parts, err := catalogService.RecentParts(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("recent parts: %w", err)
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
