package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tensorscan/internal/config"
	"tensorscan/internal/history"
)

// NewHistoryCommand creates the 'tensorscan history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans",
		Long: `Display recent scan runs recorded in the history database:
  - When and what was scanned
  - Processed, failed and skipped counts
  - Per-file failures with --failures`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "Maximum number of runs to show (0 = all)")
	cmd.Flags().Bool("failures", false, "Show failed files for each run")

	return cmd
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")
	showFailures, _ := cmd.Flags().GetBool("failures")

	// The history database location follows the same config resolution as
	// the scan command
	resolved, err := config.ResolveConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg, err := config.LoadConfig(resolved)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPath := cfg.History.DBPath
	if dbPath == "" {
		dbPath, err = config.GetHistoryDBPath()
		if err != nil {
			return fmt.Errorf("failed to resolve history database path: %w", err)
		}
	}

	// No database means no scan has recorded history yet
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(output, "No scan history found")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(output, "No scan history found")
		return nil
	}

	failures := make(map[string][]*history.FileResult)
	if showFailures {
		for _, run := range runs {
			fails, err := store.FailuresForRun(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("list failures for run %s: %w", run.ID, err)
			}
			failures[run.ID] = fails
		}
	}

	printRunHistory(output, runs, failures)
	return nil
}

// printRunHistory formats and prints recent runs, newest first
func printRunHistory(w io.Writer, runs []*history.Run, failures map[string][]*history.FileResult) {
	// Colors
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== Scan History ===\n\n")
	fmt.Fprintf(w, "Runs shown: %d\n\n", len(runs))

	for i, run := range runs {
		cyan.Fprintf(w, "Run %s\n", shortID(run.ID))

		fmt.Fprintf(w, "  Time: %s ", formatTimestamp(run.Started))
		gray.Fprintf(w, "(%s ago)\n", formatDuration(time.Since(run.Started)))

		fmt.Fprintf(w, "  Target: %s ", run.Root)
		gray.Fprintf(w, "(%s)\n", run.Mode)

		if run.Extension != "" {
			fmt.Fprintf(w, "  Extension: %s\n", run.Extension)
		}

		fmt.Fprintf(w, "  Outcome: ")
		if run.Completed.IsZero() {
			yellow.Fprintf(w, "incomplete\n")
		} else {
			green.Fprintf(w, "%d processed", run.Processed)
			if run.Failed > 0 {
				fmt.Fprintf(w, ", ")
				red.Fprintf(w, "%d failed", run.Failed)
			}
			if run.Skipped > 0 {
				fmt.Fprintf(w, ", ")
				yellow.Fprintf(w, "%d skipped", run.Skipped)
			}
			fmt.Fprintf(w, " in %s\n", run.Duration().Round(time.Millisecond))
		}

		if fails := failures[run.ID]; len(fails) > 0 {
			fmt.Fprintf(w, "  Failures:\n")
			for _, f := range fails {
				red.Fprintf(w, "    %s", f.Path)
				if f.Detail != "" {
					gray.Fprintf(w, " (%s)", f.Detail)
				}
				fmt.Fprintln(w)
			}
		}

		// Separator between runs
		if i < len(runs)-1 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
}

// shortID abbreviates a run ID for display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatDuration formats a duration for human-readable display
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}
