package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/lighthouse-monitor/internal/config"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run audits on a schedule",
		Long: `Watch runs the audit immediately and then once per interval until it is
interrupted. Runs never overlap.

The configuration file is watched for changes; an edited file is picked up
by the next run. An invalid edit is logged and the previous configuration
stays in use. A failed run is logged and the schedule continues.

Examples:
  # Weekly audits
  lighthouse-monitor watch

  # Daily audits on desktop
  lighthouse-monitor watch --interval 24h --strategy desktop`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	addAuditFlags(cmd)
	cmd.Flags().Duration("interval", config.DefaultInterval,
		"Time between runs")
	cmd.Flags().Bool("no-email", false,
		"Do not send email notifications")

	return cmd
}

// errInvalidInterval is returned when --interval is not positive.
var errInvalidInterval = errors.New("interval must be positive")

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("configuration error: %w", errInvalidInterval)
	}

	opts := runOptions{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	if opts.noEmail, err = cmd.Flags().GetBool("no-email"); err != nil {
		return err
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &scheduler{
		cfg:      cfg,
		interval: interval,
		opts:     opts,
		logger:   logger,
		reload: func(c *config.Config) error {
			if err := applyFlags(cmd, c); err != nil {
				return err
			}
			return c.Validate()
		},
	}
	return s.run(ctx)
}

// scheduler runs executeRun once per interval and swaps in reloaded
// configurations between runs.
type scheduler struct {
	mu       sync.Mutex
	cfg      *config.Config
	interval time.Duration
	opts     runOptions
	logger   *slog.Logger

	// reload completes and validates a configuration read from disk.
	reload func(*config.Config) error

	// execute performs one run. Defaults to executeRun.
	execute func(ctx context.Context, cfg *config.Config) error
}

// run starts the schedule and the config watcher under one errgroup and
// blocks until ctx is cancelled or the watcher fails.
func (s *scheduler) run(ctx context.Context) error {
	if s.execute == nil {
		s.execute = func(ctx context.Context, cfg *config.Config) error {
			_, err := executeRun(ctx, cfg, s.opts, s.logger)
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if path := s.current().ConfigFilePath; path != "" {
		g.Go(func() error {
			return config.Watch(ctx, path, s.logger, s.onConfigChange)
		})
	}

	g.Go(func() error {
		return s.loop(ctx)
	})

	return g.Wait()
}

// loop runs immediately and then on every tick.
func (s *scheduler) loop(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.execute(ctx, s.current()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("scheduled run failed", "error", err)
		}

		s.logger.Info("next run scheduled", "at", time.Now().Add(s.interval).Format(time.RFC3339))

		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// onConfigChange installs a reloaded configuration if it is valid.
func (s *scheduler) onConfigChange(cfg *config.Config) {
	if s.reload != nil {
		if err := s.reload(cfg); err != nil {
			s.logger.Warn("reloaded configuration is invalid, keeping previous", "error", err)
			return
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.logger.Info("configuration updated", "urls", len(cfg.URLs), "threshold", cfg.Threshold)
}

// current returns the configuration for the next run.
func (s *scheduler) current() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
