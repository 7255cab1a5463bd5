package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/adapters/driving/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import dumps dropped into a directory",
	Long: `Watches a directory and imports categories.xml, colors.xml, parts.xml
or sets.xml whenever one is created or rewritten. Runs until interrupted.

Without an argument the import.watch_dir setting is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period before a changed file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if catalogSync == nil {
		return errors.New("sync service not configured")
	}

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else {
		settings, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		dir = settings.Import.WatchDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	w := watch.New(dir, catalogSync,
		watch.WithDebounce(watchDebounce),
		watch.WithEventHandler(func(e watch.Event) {
			if e.Err != nil {
				cmd.PrintErrf("%s: %v\n", e.Path, e.Err)
				return
			}
			printResult(cmd, e.Result)
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return w.Run(commandContext(cmd))
}
