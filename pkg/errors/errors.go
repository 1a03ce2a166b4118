// Package errors provides structured error types for the overmark application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and preview server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Render failures follow a per-unit taxonomy: a metrics failure is recovered
// locally with heuristic metrics, a surface failure aborts only that output
// unit, and a cancelled render is not an error at all: it is discarded
// silently with nothing committed.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpec, "font size must be positive")
//	if errors.Is(err, errors.ErrCodeInvalidSpec) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeContentLoad, origErr, "decode %s", path)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidSpec   Code = "INVALID_SPEC"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Render taxonomy
	ErrCodeMetricsUnavailable Code = "METRICS_UNAVAILABLE"
	ErrCodeSurfaceUnavailable Code = "SURFACE_UNAVAILABLE"
	ErrCodeRenderCancelled    Code = "RENDER_CANCELLED"
	ErrCodeContentLoad        Code = "CONTENT_LOAD_FAILURE"

	// Fonts
	ErrCodeFontNotFound Code = "FONT_NOT_FOUND"

	// Preset store
	ErrCodePresetDuplicate Code = "PRESET_DUPLICATE"
	ErrCodePresetNotFound  Code = "PRESET_NOT_FOUND"

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

// IsCancelled reports whether err represents a superseded or aborted render.
// Cancellation is never surfaced as a failure: callers discard the render and
// report nothing.
func IsCancelled(err error) bool {
	return Is(err, ErrCodeRenderCancelled) || errors.Is(err, context.Canceled)
}
