// Package errors provides structured error types for report generation.
//
// Errors carry a machine-readable [Code] so the export pipeline, the CLI and
// tests can tell the failure categories apart without string matching:
//
//   - VALIDATION: the request cannot start (for example no format selected)
//   - CAPTURE_FAILED: a visual element could not be captured; recovered
//     locally as a placeholder and never surfaced to callers
//   - FORMAT_BUILD: building one artifact failed; siblings continue
//   - DELIVERY: saving one built artifact failed
//   - ALL_FORMATS_FAILED: every requested format failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "no export format selected")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // reject the request
//	}
//
//	err := errors.Wrap(errors.ErrCodeDelivery, cause, "save %s", filename)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the report and export subsystem.
const (
	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeValidation    Code = "VALIDATION"

	// Per-stage failures
	ErrCodeCapture     Code = "CAPTURE_FAILED"
	ErrCodeFormatBuild Code = "FORMAT_BUILD"
	ErrCodeDelivery    Code = "DELIVERY"
	ErrCodeAllFailed   Code = "ALL_FORMATS_FAILED"
	ErrCodeTimeout     Code = "TIMEOUT"

	// Collaborator state
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
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
