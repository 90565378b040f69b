package errors

import (
	"errors"
)

var (
	// General Errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnsupportedFormat = errors.New("unsupported format")

	// File & Directory Errors
	ErrFileNotFound   = errors.New("file not found")
	ErrFileReadError  = errors.New("error reading file")
	ErrFileWriteError = errors.New("error writing to file")
	ErrDirNotFound    = errors.New("directory not found")

	// Network Errors
	ErrInvalidURL = errors.New("invalid URL")

	// Workflow Service Errors
	ErrAPIKeyMissing = errors.New("API key is required")

	// Configuration Errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigParseError = errors.New("error parsing configuration")

	// Record Errors
	ErrRecordStoreUnavailable = errors.New("record store unavailable")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error wrapping the given errors, or nil if there are none.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// New returns an error with the given text.
func New(text string) error {
	return errors.New(text)
}
