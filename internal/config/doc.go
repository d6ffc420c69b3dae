// Package config provides configuration structures and loading for
// lighthouse-monitor.
//
// Settings come from three layers, each overriding the previous one:
// the configuration file (YAML, or the JSON config.json of earlier
// deployments), environment variables, and command line flags. The CLI
// applies flags; this package handles the first two and validates the
// result.
package config
