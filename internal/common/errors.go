// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Document errors.
	ErrInvalidDocument  = errors.New("invalid document")
	ErrNoDocuments      = errors.New("no documents to analyze")
	ErrUnsupportedInput = errors.New("unsupported input format")

	// Standards errors.
	ErrUnknownStandards = errors.New("unknown standards version")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// DocumentError scopes a failure to a single input document.
type DocumentError struct {
	Err  error
	File string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewDocumentError wraps err with the file it came from.
func NewDocumentError(file string, err error) error {
	return &DocumentError{File: file, Err: err}
}
