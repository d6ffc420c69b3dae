package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvURLs         = "LIGHTHOUSE_URLS"
	EnvAPIKey       = "PAGESPEED_API_KEY"
	EnvThreshold    = "ALERT_THRESHOLD"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvEmailFrom    = "EMAIL_FROM"
	EnvEmailTo      = "EMAIL_TO"
)

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv applies the process environment to cfg.
func ApplyEnv(cfg *Config) error {
	return LoadEnv(cfg, os.LookupEnv)
}

// LoadEnv applies environment variables from lookup to cfg.
//
// Every variable that is set and non-empty overrides the file, except
// LIGHTHOUSE_URLS, which is only used when no URL came from the file.
// Malformed numbers are errors.
func LoadEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvURLs); ok && len(cfg.URLs) == 0 {
		cfg.URLs = SplitList(v)
	}
	if v, ok := get(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := get(EnvThreshold); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvThreshold, v)
		}
		cfg.Threshold = n
	}
	if v, ok := get(EnvSMTPHost); ok {
		cfg.SMTP.Host = v
	}
	if v, ok := get(EnvSMTPPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvSMTPPort, v)
		}
		cfg.SMTP.Port = n
	}
	if v, ok := get(EnvSMTPUser); ok {
		cfg.SMTP.User = v
	}
	if v, ok := get(EnvSMTPPassword); ok {
		cfg.SMTP.Password = v
	}
	if v, ok := get(EnvEmailFrom); ok {
		cfg.SMTP.From = v
	}
	if v, ok := get(EnvEmailTo); ok {
		cfg.SMTP.To = SplitList(v)
	}
	return nil
}
