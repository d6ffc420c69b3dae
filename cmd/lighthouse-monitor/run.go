package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/lighthouse-monitor/internal/clierr"
	"github.com/nao1215/lighthouse-monitor/internal/config"
	"github.com/nao1215/lighthouse-monitor/internal/database"
	"github.com/nao1215/lighthouse-monitor/internal/history"
	"github.com/nao1215/lighthouse-monitor/internal/metrics"
	"github.com/nao1215/lighthouse-monitor/internal/model"
	"github.com/nao1215/lighthouse-monitor/internal/notify"
	"github.com/nao1215/lighthouse-monitor/internal/pagespeed"
	"github.com/nao1215/lighthouse-monitor/internal/pipeline"
	"github.com/nao1215/lighthouse-monitor/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Audit all URLs once and report score changes",
		Long: `Run audits every configured URL with PageSpeed Insights, compares the scores
with the previous run, and stores the new run in the history.

A category counts as changed when its score moved by at least the threshold.
URLs that cannot be audited are listed in the report and left out of the
history. The report is written to stdout (or --output) and, when SMTP is
configured, sent by email.

Exit codes:
  0  success
  1  fatal error (no URLs, invalid configuration, history could not be saved)
  3  score changes detected and --fail-on-change was given

Examples:
  # Audit the URLs from the configuration file
  lighthouse-monitor run

  # Audit a single page on desktop with a lower threshold
  lighthouse-monitor run --url https://example.com --strategy desktop --threshold 3

  # Write a Markdown report and skip the email
  lighthouse-monitor run --markdown -o report.md --no-email

  # Fail a cron job or CI step when scores moved
  lighthouse-monitor run --fail-on-change`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	addAuditFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("html", "",
		"Also write the HTML report to the specified file path")

	// Behavior flags
	cmd.Flags().Bool("no-email", false,
		"Do not send the email notification")
	cmd.Flags().Bool("fail-on-change", false,
		"Exit with code 3 when significant score changes were detected")

	return cmd
}

// addAuditFlags registers the flags shared by run and watch.
func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("url", "u", nil,
		"URL to audit (repeatable, replaces the configured URLs)")
	cmd.Flags().IntP("threshold", "t", config.DefaultThreshold,
		"Minimum score change, in points, that counts as significant")
	cmd.Flags().StringSlice("category", nil,
		"Categories to audit (performance, accessibility, best-practices, seo)")
	cmd.Flags().String("strategy", config.DefaultStrategy,
		"Device profile for audits (mobile or desktop)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Timeout of one PageSpeed audit")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for PageSpeed requests (host:port)")
	cmd.Flags().String("backend", config.BackendJSON,
		"History storage backend (json or sqlite)")
	cmd.Flags().String("data-dir", "",
		"Directory holding the history (default: XDG data directory)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus textfile metrics to this path")
}

// runOptions holds the run settings that are not part of the configuration.
type runOptions struct {
	noEmail      bool
	failOnChange bool
	htmlFile     string

	// fetchOpts are appended to the PageSpeed client options.
	fetchOpts []pagespeed.Option

	// stdout receives the report when no report file is set;
	// stderr receives the run summary.
	stdout io.Writer
	stderr io.Writer
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	opts := runOptions{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	if opts.noEmail, err = cmd.Flags().GetBool("no-email"); err != nil {
		return err
	}
	if opts.failOnChange, err = cmd.Flags().GetBool("fail-on-change"); err != nil {
		return err
	}
	if opts.htmlFile, err = cmd.Flags().GetString("html"); err != nil {
		return err
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = executeRun(ctx, cfg, opts, logger)
	return err
}

// buildRunConfig loads the configuration, applies the command flags and
// validates the result.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg.
// Flags left at their default do not override the file or the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("url") {
		urls, err := flags.GetStringArray("url")
		if err != nil {
			return err
		}
		var all []string
		for _, u := range urls {
			all = append(all, config.SplitList(u)...)
		}
		cfg.URLs = config.Unique(all)
	}
	if flags.Changed("threshold") {
		if cfg.Threshold, err = flags.GetInt("threshold"); err != nil {
			return err
		}
	}
	if flags.Changed("category") {
		names, err := flags.GetStringSlice("category")
		if err != nil {
			return err
		}
		if cfg.Categories, err = model.ParseCategories(names); err != nil {
			return err
		}
	}
	if flags.Changed("strategy") {
		if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("backend") {
		if cfg.HistoryBackend, err = flags.GetString("backend"); err != nil {
			return err
		}
	}
	if flags.Changed("data-dir") {
		if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("metrics-file") {
		if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
			return err
		}
	}

	// Report flags exist on run only.
	if flags.Lookup("json") != nil {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}

	return nil
}

// openStore opens the history store selected by cfg.HistoryBackend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*history.Store, error) {
	var backend history.Backend
	switch cfg.HistoryBackend {
	case config.BackendSQLite:
		db, err := database.Open(cfg.DataDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if aside := db.RecoveredFrom(); aside != "" {
			logger.Warn("history database was corrupt, starting with empty history",
				"path", db.Path(), "moved_to", aside)
		}
		backend = db
		logger.Debug("history database opened", "path", db.Path())
	default:
		fb := history.NewFileBackend(filepath.Join(cfg.DataDir, history.DefaultFileName))
		backend = fb
		logger.Debug("history file selected", "path", fb.Path())
	}

	store, err := history.Open(ctx, backend, history.WithLogger(logger))
	if err != nil {
		_ = backend.Close() //nolint:errcheck // the load error is more useful
		return nil, err
	}
	return store, nil
}

// executeRun performs one complete run: audit, persist, report, export
// metrics, notify and print the summary. It returns the batch whenever
// one was produced, even together with an error.
func executeRun(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) (*model.Batch, error) {
	logger = logger.With("run_id", uuid.NewString())

	logger.Info("starting run",
		"urls", len(cfg.URLs),
		"threshold", cfg.Threshold,
		"strategy", cfg.Strategy,
		"backend", cfg.HistoryBackend,
	)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close history", "error", err)
		}
	}()

	fetchOpts := []pagespeed.Option{
		pagespeed.WithStrategy(cfg.Strategy),
		pagespeed.WithTimeout(cfg.Timeout),
	}
	if cfg.Proxy != "" {
		fetchOpts = append(fetchOpts, pagespeed.WithProxy(cfg.Proxy))
	}
	fetchOpts = append(fetchOpts, opts.fetchOpts...)

	client, err := pagespeed.NewClient(cfg.APIKey, cfg.Categories, fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create PageSpeed client: %w", err)
	}

	startTime := time.Now()
	aggregator := pipeline.New(client, store, cfg.Threshold, pipeline.WithLogger(logger))
	batch, runErr := aggregator.Run(ctx, cfg.URLs)
	if batch == nil {
		return nil, runErr
	}
	logger.Info("audits finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	// A persistence failure is reported only after the results went out.
	if err := outputReport(cfg, opts, batch); err != nil {
		logger.Error("report failed", "error", err)
		fmt.Fprintf(opts.stderr, "Report error: %v\n", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, batch); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		} else {
			logger.Debug("metrics written", "path", cfg.MetricsFile)
		}
	}

	emailStatus := sendNotification(ctx, cfg, opts, batch, logger)

	printSummary(opts.stderr, batch, emailStatus)

	if runErr != nil {
		return batch, clierr.Wrap(clierr.ExitFailure, "history could not be saved", runErr)
	}
	if opts.failOnChange && batch.HasChanges {
		return batch, clierr.New(clierr.ExitChanges, "significant score changes detected")
	}
	return batch, nil
}

// outputReport writes the report in the requested format.
func outputReport(cfg *config.Config, opts runOptions, batch *model.Batch) error {
	output := opts.stdout
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	var primary report.Writer
	switch {
	case cfg.JSONReport:
		primary = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		primary = report.NewMarkdownWriter(output)
	default:
		primary = report.NewTextWriter(output)
	}

	writers := []report.Writer{primary}
	if opts.htmlFile != "" {
		f, err := createReportFile(opts.htmlFile)
		if err != nil {
			return err
		}
		defer f.Close()
		writers = append(writers, report.NewHTMLWriter(f))
	}

	_, err := report.NewMultiWriter(writers...).Write(batch)
	return err
}

// createReportFile creates (or truncates) a report file, creating parent
// directories if needed.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Email status shown in the run summary.
const (
	emailSent          = "sent"
	emailSkipped       = "skipped (--no-email)"
	emailNoResults     = "skipped (no results)"
	emailNotConfigured = "skipped (SMTP not configured)"
	emailFailed        = "failed"
)

// sendNotification emails the report. Delivery problems are logged and
// never fail the run.
func sendNotification(ctx context.Context, cfg *config.Config, opts runOptions, batch *model.Batch, logger *slog.Logger) string {
	if opts.noEmail {
		return emailSkipped
	}
	if batch.Processed() == 0 {
		logger.Warn("no URL was audited successfully, skipping email")
		return emailNoResults
	}

	msg, err := notify.NewMessage(batch)
	if err != nil {
		logger.Error("failed to render email", "error", err)
		return emailFailed
	}

	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
	})

	if err := mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			logger.Info("email not configured, skipping notification")
			return emailNotConfigured
		}
		logger.Error("failed to send email", "error", err)
		return emailFailed
	}

	logger.Info("email sent", "recipients", len(cfg.SMTP.To), "subject", msg.Subject)
	return emailSent
}

// printSummary prints the outcome of the run for the operator.
func printSummary(w io.Writer, batch *model.Batch, emailStatus string) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Run summary")
	fmt.Fprintf(w, "  URLs processed: %d\n", batch.Processed())

	if len(batch.Failures) > 0 {
		yellow.Fprintf(w, "  Failed URLs:    %d\n", len(batch.Failures))
		for _, f := range batch.Failures {
			yellow.Fprintf(w, "    - %s: %s\n", f.URL, f.Reason)
		}
	}

	for _, r := range batch.Results {
		for _, c := range r.Changes {
			line := fmt.Sprintf("  %s %s: %d -> %d (%+d)\n", r.URL, c.Category.Label(), c.Previous, c.Current, c.Diff)
			if c.Direction == model.DirectionDeclined {
				red.Fprint(w, line)
			} else {
				green.Fprint(w, line)
			}
		}
	}

	if batch.HasChanges {
		red.Fprintln(w, "  Changes detected: yes")
	} else {
		green.Fprintln(w, "  Changes detected: no")
	}
	fmt.Fprintf(w, "  Email:          %s\n", emailStatus)
}
