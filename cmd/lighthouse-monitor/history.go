package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/lighthouse-monitor/internal/config"
	"github.com/nao1215/lighthouse-monitor/internal/history"
	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// historyDateLayout is the date format of the history listing.
const historyDateLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stored run history",
		Long: `History lists the runs stored in the history, oldest first.

Only successfully audited URLs are stored in a run, so a URL can be
missing from some runs.

Examples:
  # List stored runs
  lighthouse-monitor history

  # Show the stored scores of one URL
  lighthouse-monitor history --url https://example.com

  # Dump the raw history as JSON
  lighthouse-monitor history --json

  # Read the SQLite history instead of the JSON file
  lighthouse-monitor history --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("url", "u", "",
		"Show the stored scores of this URL")
	cmd.Flags().BoolP("json", "j", false,
		"Output the raw history as JSON")
	cmd.Flags().String("backend", config.BackendJSON,
		"History storage backend (json or sqlite)")
	cmd.Flags().String("data-dir", "",
		"Directory holding the history (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		if cfg.HistoryBackend, err = cmd.Flags().GetString("backend"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("data-dir") {
		if cfg.DataDir, err = cmd.Flags().GetString("data-dir"); err != nil {
			return err
		}
	}
	if cfg.HistoryBackend != config.BackendJSON && cfg.HistoryBackend != config.BackendSQLite {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidBackend)
	}

	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)
	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runs := store.Runs()
	out := cmd.OutOrStdout()

	switch {
	case jsonOutput:
		return writeHistoryJSON(out, runs)
	case url != "":
		printURLHistory(out, runs, url)
	default:
		printRunList(out, runs)
	}
	return nil
}

// writeHistoryJSON writes runs in the shape of the history file.
func writeHistoryJSON(w io.Writer, runs []model.Run) error {
	if runs == nil {
		runs = []model.Run{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Runs []model.Run `json:"runs"`
	}{Runs: runs})
}

// printRunList prints one line per stored run.
func printRunList(w io.Writer, runs []model.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored yet.")
		fmt.Fprintln(w, "\nUse 'lighthouse-monitor run' to audit the configured URLs.")
		return
	}

	fmt.Fprintf(w, "Stored runs (%d of at most %d):\n\n", len(runs), history.MaxRuns)
	fmt.Fprintf(w, "  %-4s  %-20s  %-16s  %s\n", "#", "Date", "Age", "URLs")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 52))

	for i, run := range runs {
		fmt.Fprintf(w, "  %-4d  %-20s  %-16s  %d\n",
			i+1,
			run.Date.Local().Format(historyDateLayout),
			humanize.Time(run.Date),
			len(run.Results),
		)
	}

	fmt.Fprintln(w, "\nUse 'lighthouse-monitor history --url <url>' to see the scores of one URL.")
}

// printURLHistory prints the stored scores of url, one line per run.
func printURLHistory(w io.Writer, runs []model.Run, url string) {
	fmt.Fprintf(w, "Score history for %s:\n\n", url)

	found := false
	for _, run := range runs {
		scores, ok := run.Scores(url)
		if !ok {
			fmt.Fprintf(w, "  %-20s  (not audited)\n", run.Date.Local().Format(historyDateLayout))
			continue
		}
		found = true
		fmt.Fprintf(w, "  %-20s  %s\n", run.Date.Local().Format(historyDateLayout), formatScores(scores))
	}

	if !found {
		fmt.Fprintf(w, "  No stored scores for %s\n", url)
	}
}

// formatScores formats a score record as "Performance 85  SEO 92".
func formatScores(scores model.ScoreRecord) string {
	parts := make([]string, 0, scores.Len())
	for _, entry := range scores.Entries() {
		parts = append(parts, fmt.Sprintf("%s %d", entry.Category.Label(), entry.Score))
	}
	return strings.Join(parts, "  ")
}
