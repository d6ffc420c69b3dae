package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/lighthouse-monitor/internal/config"
)

//go:embed templates/lighthouse-monitor.yaml
var configTemplate embed.FS

// templatePath is the embedded template path.
const templatePath = "templates/lighthouse-monitor.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new lighthouse-monitor configuration file",
		Long: `Initialize creates a new .lighthouse-monitor.yaml configuration file in the
current directory.

The generated file includes:
- The URL list and alert threshold
- Audit settings (categories, strategy, timeout, proxy)
- History storage and metrics export settings
- Commented SMTP settings for email notifications

Examples:
  # Create .lighthouse-monitor.yaml in current directory
  lighthouse-monitor init

  # Create config file at a specific path
  lighthouse-monitor init -o ~/.config/lighthouse-monitor/config.yaml

  # Force overwrite existing file
  lighthouse-monitor init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold SMTP credentials.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - The URLs to audit and the alert threshold")
	fmt.Fprintln(out, "  - SMTP settings for email notifications")
	fmt.Fprintln(out, "\nThe PageSpeed API key is best provided through PAGESPEED_API_KEY.")

	return nil
}
