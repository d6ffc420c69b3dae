// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes named after credentials (password, api_key, key, token, ...)
//   - values that look like Google API keys, JWTs, bearer or basic credentials
//   - API keys embedded in request URLs and error messages (key=...)
//
// Even in verbose mode, sensitive values are masked so that logs can be
// shared when reporting problems.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("audit failed",
//	    "url", "https://example.com",
//	    "error", err, // "...?key=AIza..." is masked
//	)
package log
