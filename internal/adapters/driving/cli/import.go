package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/blcat/internal/adapters/driving/tui/progress"
	"github.com/custodia-labs/blcat/internal/core/domain"
)

var importNoProgress bool

var importCmd = &cobra.Command{
	Use:   "import <kind> <file>",
	Short: "Import one catalog dump",
	Long: `Imports a catalog XML dump into one table.

Kinds: categories, colors, parts, sets.

Parts are upserted: rows missing from the dump are flagged stale, and an
empty dump leaves the table untouched. The other tables are dropped and
rebuilt from the dump. Import categories before parts and sets so that
category names resolve.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

var importAllCmd = &cobra.Command{
	Use:   "import-all <dir>",
	Short: "Import every catalog dump in a directory",
	Long: `Imports categories.xml, colors.xml, parts.xml and sets.xml from a
directory, in that order. Missing files are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportAll,
}

func init() {
	importCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "print plain progress lines instead of a bar")
	importAllCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "print plain progress lines instead of a bar")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importAllCmd)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runImport(cmd *cobra.Command, args []string) error {
	if catalogSync == nil {
		return errors.New("sync service not configured")
	}

	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}

	return importOne(cmd, kind, args[1])
}

func runImportAll(cmd *cobra.Command, args []string) error {
	if catalogSync == nil {
		return errors.New("sync service not configured")
	}

	imported := 0
	for _, kind := range domain.Kinds() {
		path := filepath.Join(args[0], kind.DefaultFile())
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cmd.Printf("Skipping %s: %s not found\n", kind, path)
			continue
		}
		if err := importOne(cmd, kind, path); err != nil {
			return err
		}
		imported++
	}

	if imported == 0 {
		return fmt.Errorf("no catalog dumps found in %s", args[0])
	}
	return nil
}

func importOne(cmd *cobra.Command, kind domain.Kind, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		result *domain.ImportResult
		err    error
	)
	if !importNoProgress && isTerminal(cmd.OutOrStdout()) {
		result, err = importWithBar(ctx, kind, path)
	} else {
		result, err = catalogSync.Import(ctx, kind, path, func(pct int) {
			cmd.Printf("%s: %d%%\n", kind, pct)
		})
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", kind, err)
	}

	printResult(cmd, result)
	return nil
}

func importWithBar(ctx context.Context, kind domain.Kind, path string) (*domain.ImportResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	task, err := catalogSync.Start(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	return progress.Run(kind, path, task, cancel)
}

func printResult(cmd *cobra.Command, r *domain.ImportResult) {
	if r.Aborted {
		cmd.Printf("%s: feed yielded no records, nothing changed\n", r.Kind)
		return
	}
	cmd.Printf("Imported %d %s (%d items read)\n", r.Written, r.Kind, r.Processed)
}
