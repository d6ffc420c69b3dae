package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoURLs is returned when no URL to audit is configured.
	ErrNoURLs = errors.New("no URLs configured: add urls to the config file, set LIGHTHOUSE_URLS, or use --url")

	// ErrInvalidThreshold is returned when the alert threshold is negative.
	ErrInvalidThreshold = errors.New("invalid threshold: must be zero or positive")

	// ErrNoCategories is returned when the category list is empty.
	ErrNoCategories = errors.New("no categories configured")

	// ErrInvalidStrategy is returned for a strategy other than mobile or desktop.
	ErrInvalidStrategy = errors.New("invalid strategy: must be mobile or desktop")

	// ErrInvalidBackend is returned for an unknown history backend.
	ErrInvalidBackend = errors.New("invalid history backend: must be json or sqlite")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidSMTPPort is returned when the SMTP port is outside 1-65535.
	ErrInvalidSMTPPort = errors.New("invalid SMTP port: must be between 1 and 65535")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
