package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// File represents the structure of the configuration file.
//
// The keys are the flat keys of the config.json used by earlier
// deployments, so such a file loads unchanged (JSON is valid YAML).
// Pointer fields distinguish "not set" from a zero value.
type File struct {
	URLs        []string   `yaml:"urls,omitempty"`
	APIKey      string     `yaml:"api_key,omitempty"`
	Threshold   *int       `yaml:"threshold,omitempty"`
	Categories  []string   `yaml:"categories,omitempty"`
	Strategy    string     `yaml:"strategy,omitempty"`
	Timeout     string     `yaml:"timeout,omitempty"`
	Proxy       string     `yaml:"proxy,omitempty"`
	Backend     string     `yaml:"history_backend,omitempty"`
	DataDir     string     `yaml:"data_dir,omitempty"`
	MetricsFile string     `yaml:"metrics_file,omitempty"`
	SMTPHost    string     `yaml:"smtp_host,omitempty"`
	SMTPPort    *int       `yaml:"smtp_port,omitempty"`
	SMTPUser    string     `yaml:"smtp_user,omitempty"`
	SMTPPass    string     `yaml:"smtp_password,omitempty"`
	EmailFrom   string     `yaml:"email_from,omitempty"`
	EmailTo     StringList `yaml:"email_to,omitempty"`
}

// StringList is a list of strings written either as a YAML sequence or as
// one comma separated string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = SplitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = SplitList(strings.Join(items, ","))
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// SplitList splits a comma separated list, trimming spaces and dropping
// blank and repeated items.
func SplitList(s string) []string {
	return Unique(strings.Split(s, ","))
}

// Unique trims items and drops blank entries and repeats, keeping the
// order of first occurrence.
func Unique(items []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Apply copies every setting present in f onto cfg.
func (f *File) Apply(cfg *Config) error {
	if len(f.URLs) > 0 {
		cfg.URLs = normalizeURLs(f.URLs)
	}
	if f.APIKey != "" {
		cfg.APIKey = f.APIKey
	}
	if f.Threshold != nil {
		cfg.Threshold = *f.Threshold
	}
	if len(f.Categories) > 0 {
		cats, err := model.ParseCategories(f.Categories)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		cfg.Categories = cats
	}
	if f.Strategy != "" {
		cfg.Strategy = strings.ToLower(f.Strategy)
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if f.Proxy != "" {
		cfg.Proxy = f.Proxy
	}
	if f.Backend != "" {
		cfg.HistoryBackend = strings.ToLower(f.Backend)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.MetricsFile != "" {
		cfg.MetricsFile = f.MetricsFile
	}
	if f.SMTPHost != "" {
		cfg.SMTP.Host = f.SMTPHost
	}
	if f.SMTPPort != nil {
		cfg.SMTP.Port = *f.SMTPPort
	}
	if f.SMTPUser != "" {
		cfg.SMTP.User = f.SMTPUser
	}
	if f.SMTPPass != "" {
		cfg.SMTP.Password = f.SMTPPass
	}
	if f.EmailFrom != "" {
		cfg.SMTP.From = f.EmailFrom
	}
	if len(f.EmailTo) > 0 {
		cfg.SMTP.To = []string(f.EmailTo)
	}
	return nil
}

// normalizeURLs trims URLs and drops blank and repeated entries.
// A URL listed twice is audited once.
func normalizeURLs(urls []string) []string {
	return Unique(urls)
}
