package pagespeed

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoScores is returned when the API response carries none of the
	// requested categories.
	ErrNoScores = errors.New("response contains no category scores")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidStrategy is returned for a strategy other than mobile or desktop.
	ErrInvalidStrategy = errors.New("invalid strategy: expected mobile or desktop")
)

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Message is the error message from the Google error envelope, if any.
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pagespeed API returned HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("pagespeed API returned HTTP %d: %s", e.StatusCode, e.Message)
}
