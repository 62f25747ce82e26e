// Package errors defines sentinel errors shared across buildwatch components
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Configuration errors, fatal before the watcher starts
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrConfigMalformed = errors.New("configuration malformed")
	ErrInvalidConfig   = errors.New("invalid configuration")

	// Dispatch errors
	ErrUnknownTarget = errors.New("unknown build target")

	// Watcher lifecycle errors
	ErrWatcherNotRunning     = errors.New("watcher not running")
	ErrWatcherAlreadyRunning = errors.New("watcher already running")

	// Project layout errors
	ErrMissingProjectFiles = errors.New("missing required project files")
	ErrNotARepository      = errors.New("not a git repository")
)

// New returns an error with the given text
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
