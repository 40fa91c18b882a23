// Package errors provides structured error types for the anchorsynth application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the synthesis error taxonomy:
//   - INVALID_*: Input validation failures (fatal to a run)
//   - TEMPLATE_REJECTED / LEARNER_FAILURE: per-template learning failures,
//     recovered locally as empty candidate lists
//   - SMT_*: per-subproblem pruning failures, recovered as empty selections
//   - TIMEOUT: global deadline exhaustion (fatal, partial results returned)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "negative dimensions in view %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors. These surface as a failing top-level result.
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidOptions Code = "INVALID_OPTIONS"
	ErrCodeNonIsomorphic  Code = "NON_ISOMORPHIC"

	// Learning errors. Recovered per template.
	ErrCodeTemplateRejected Code = "TEMPLATE_REJECTED"
	ErrCodeLearnerFailure   Code = "LEARNER_FAILURE"

	// Pruning errors. Recovered per focus view.
	ErrCodeSmtUnsat     Code = "SMT_UNSAT"
	ErrCodeSmtTimeout   Code = "SMT_TIMEOUT"
	ErrCodeSmtUnbounded Code = "SMT_UNBOUNDED"

	// Global deadline exhaustion. Fatal; partial results are returned.
	ErrCodeTimeout Code = "TIMEOUT"

	// Resource not found errors (cache, run store).
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether an error should abort the whole synthesis run.
// Only input validation and the global deadline are fatal; everything else
// is soaked per-subproblem so that synthesis degrades gracefully.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidOptions, ErrCodeNonIsomorphic, ErrCodeTimeout:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
