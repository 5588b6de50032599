// Package errors provides structured error types for foldview.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the operation queue
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The three codes that matter to callers map onto the failure taxonomy of the
// graph model:
//   - VALIDATION: malformed CRUD input, always synchronous, carries the field name
//   - TIMEOUT: a queued operation exceeded its deadline
//   - OPERATION_FAILED: an operation failed after exhausting its retries
//
// # Usage
//
//	err := errors.Validation("id", "must not be blank")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeOperation, origErr, "layout pass for %d nodes", n)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// ErrCodeValidation marks malformed CRUD input. The Field of the
	// returned *Error names the offending entity field.
	ErrCodeValidation Code = "VALIDATION"

	// ErrCodeTimeout marks a queued operation that exceeded its deadline.
	// The operation's thunk may still be running; its result is discarded.
	ErrCodeTimeout Code = "TIMEOUT"

	// ErrCodeOperation marks an operation that failed after exhausting
	// its retry budget.
	ErrCodeOperation Code = "OPERATION_FAILED"

	// ErrCodeNotFound marks a missing entity or resource.
	ErrCodeNotFound Code = "NOT_FOUND"

	// ErrCodeInvalidInput marks malformed input outside the CRUD surface
	// (unknown formats, bad CLI arguments, unreadable documents).
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// ErrCodeInternal marks unexpected internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, an optional field name and an
// optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Field   string // Offending field for VALIDATION errors (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// Validation creates a VALIDATION error naming the offending field.
func Validation(field, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Timeout creates a TIMEOUT error for the named operation kind.
func Timeout(kind string, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...)),
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

// GetField extracts the offending field from a validation error, if available.
func GetField(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Field != "" {
			return fmt.Sprintf("%s: %s", e.Field, e.Message)
		}
		return e.Message
	}
	return err.Error()
}
