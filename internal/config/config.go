package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "lighthouse-monitor"

	// DefaultThreshold is the minimum score move, in points, that counts
	// as a change.
	DefaultThreshold = 5

	// DefaultTimeout bounds one PageSpeed audit. Lighthouse runs the page
	// in a real browser, which takes tens of seconds for heavy pages.
	DefaultTimeout = 120 * time.Second

	// DefaultStrategy is the device profile used for audits.
	DefaultStrategy = StrategyMobile

	// DefaultSMTPHost and DefaultSMTPPort target Gmail with STARTTLS.
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587

	// DefaultInterval is the schedule of the watch command: weekly.
	DefaultInterval = 7 * 24 * time.Hour
)

// Audit strategies.
const (
	StrategyMobile  = "mobile"
	StrategyDesktop = "desktop"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// SMTP holds the email delivery settings.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string

	// From is the sender address. When empty, User is used.
	From string

	// To lists the recipients.
	To []string
}

// Config holds all configuration options for lighthouse-monitor.
// This struct is populated from the config file, the environment and CLI
// flags, and passed through the application rather than kept as global state.
type Config struct {
	// URLs are the pages to audit, in audit order.
	URLs []string

	// APIKey is the PageSpeed Insights API key. It is optional; without a
	// key the API applies a small anonymous quota.
	APIKey string

	// Threshold is the minimum absolute score difference that counts as a change.
	Threshold int

	// Categories are the Lighthouse categories to audit, in report order.
	Categories []model.Category

	// Strategy is the device profile, mobile or desktop.
	Strategy string

	// Timeout bounds each PageSpeed request.
	Timeout time.Duration

	// Proxy is an optional SOCKS5 proxy in "host:port" format.
	Proxy string

	// HistoryBackend selects the history storage, json or sqlite.
	HistoryBackend string

	// DataDir is the directory holding the history.
	// Defaults to XDG data directory (~/.local/share/lighthouse-monitor on Linux).
	DataDir string

	// MetricsFile is the path of the Prometheus textfile export.
	// When empty, no metrics are written.
	MetricsFile string

	// SMTP holds email delivery settings.
	SMTP SMTP

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file that was loaded,
	// or empty when none was found.
	ConfigFilePath string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Threshold:      DefaultThreshold,
		Categories:     model.AllCategories(),
		Strategy:       DefaultStrategy,
		Timeout:        DefaultTimeout,
		HistoryBackend: BackendJSON,
		DataDir:        XDGDataDir(),
		SMTP: SMTP{
			Host: DefaultSMTPHost,
			Port: DefaultSMTPPort,
		},
	}
}

// XDGDataDir returns the XDG data directory for lighthouse-monitor.
// On Linux: ~/.local/share/lighthouse-monitor
// On macOS: ~/Library/Application Support/lighthouse-monitor
// On Windows: %LOCALAPPDATA%\lighthouse-monitor
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for lighthouse-monitor.
// On Linux: ~/.config/lighthouse-monitor
// On macOS: ~/Library/Application Support/lighthouse-monitor
// On Windows: %APPDATA%\lighthouse-monitor
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.URLs) == 0 {
		return ErrNoURLs
	}

	if c.Threshold < 0 {
		return ErrInvalidThreshold
	}

	if len(c.Categories) == 0 {
		return ErrNoCategories
	}

	if c.Strategy != StrategyMobile && c.Strategy != StrategyDesktop {
		return ErrInvalidStrategy
	}

	if c.HistoryBackend != BackendJSON && c.HistoryBackend != BackendSQLite {
		return ErrInvalidBackend
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return ErrInvalidSMTPPort
	}

	return nil
}
