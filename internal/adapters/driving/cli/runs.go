package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show import history",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if catalogSync == nil {
		return errors.New("sync service not configured")
	}

	runs, err := catalogSync.Runs(commandContext(cmd), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No imports recorded.")
		return nil
	}

	for i := range runs {
		r := &runs[i]
		cmd.Printf("%s  %-10s %-9s %6d written  %s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Kind, r.Status, r.Written, r.Duration().Round(time.Millisecond), r.Source)
		if r.Error != "" {
			cmd.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}
