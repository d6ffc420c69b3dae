package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/lighthouse-monitor/internal/clierr"
	"github.com/nao1215/lighthouse-monitor/internal/config"
	"github.com/nao1215/lighthouse-monitor/internal/log"
)

// NewRootCmd creates the root command for lighthouse-monitor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lighthouse-monitor",
		Short: "Track Lighthouse scores and report significant changes",
		Long: `lighthouse-monitor audits web pages with Google PageSpeed Insights and keeps
a history of their Lighthouse category scores (performance, accessibility,
best practices, SEO).

Each run compares the fresh scores with the previous run and flags every
category that moved by at least the alert threshold. The result is written
as a report and, when SMTP is configured, sent by email.

The history keeps the 52 most recent runs, one year of weekly audits.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .lighthouse-monitor.yaml or config.json in current directory, then home and XDG config directories)")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the code carried by the error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger creates the secure structured logger on stderr.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads the configuration file and the environment.
// The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}
