// Package clierr provides errors that carry a process exit code.
//
// Commands return these errors instead of calling os.Exit, so that main
// stays the only place deciding how the process ends.
package clierr

import (
	"errors"
	"fmt"
)

// Exit codes used by lighthouse-monitor.
const (
	// ExitFailure is the default code for fatal errors.
	ExitFailure = 1

	// ExitChanges is returned by `run --fail-on-change` when significant
	// score changes were detected.
	ExitChanges = 3
)

// ExitCoder is implemented by errors that choose their exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int { return e.code }

// Unwrap returns the underlying cause.
func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Wrapf is a formatted variant of Wrap.
func Wrapf(code int, cause error, format string, args ...any) error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitFailure
}

// normalize keeps error codes away from 0, which means success.
func normalize(code int) int {
	if code <= 0 {
		return ExitFailure
	}
	return code
}
