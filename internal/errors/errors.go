// Package errors defines the error classes shared by the key distribution
// packages. Domain packages wrap these sentinels and the HTTP layer maps the
// class, never the message, to a status code.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by key stores for a principal without a record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized marks requests whose signature or admin token does not check out.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks operations that are never allowed, such as exporting a key.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited marks ticket requests refused by the per-client limiter.
	ErrRateLimited = errors.New("rate limited")

	// ErrConfiguration indicates the process was started with unusable settings
	// (bad master key file, unsupported algorithm). It is never a client error.
	ErrConfiguration = errors.New("configuration error")
)

// classes lists the sentinels Class recognises, most specific first.
var classes = []error{
	ErrInvalidInput,
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrRateLimited,
	ErrConfiguration,
}

// New returns an unclassified error. Unclassified errors surface as internal failures.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Class returns the sentinel from this package that err wraps, or nil.
func Class(err error) error {
	if err == nil {
		return nil
	}
	for _, class := range classes {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}
