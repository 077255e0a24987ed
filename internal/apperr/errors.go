// Package apperr defines the error taxonomy shared by the catalog, cart,
// library and purchase layers.  Every business failure is returned as an
// *Error carrying a stable machine-readable Code plus one or more
// human-readable messages.  Handlers translate the code into an HTTP status
// and never expose the wrapped cause of an infrastructure failure.
package apperr

import (
	"errors"
	"strings"
)

// Code is a machine-readable failure reason.
type Code string

const (
	CodeValidation     Code = "VALIDATION"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeInfrastructure Code = "INFRASTRUCTURE"
)

// Sentinel values for errors.Is comparisons.  Matching is by code only, so
// errors.Is(err, ErrConflict) is true for any conflict regardless of its
// messages.
var (
	ErrValidation     = &Error{Code: CodeValidation}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrConflict       = &Error{Code: CodeConflict}
	ErrInfrastructure = &Error{Code: CodeInfrastructure}
)

// Error is the structured failure returned across the core boundary.
type Error struct {
	Code     Code     // stable reason
	Messages []string // user-facing messages, in order
	Cause    error    // wrapped underlying error, never shown to callers
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return strings.ToLower(string(e.Code))
	}
	return strings.ToLower(string(e.Code)) + ": " + strings.Join(e.Messages, "; ")
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Validation builds a VALIDATION error.
func Validation(messages ...string) *Error {
	return &Error{Code: CodeValidation, Messages: messages}
}

// NotFound builds a NOT_FOUND error.
func NotFound(messages ...string) *Error {
	return &Error{Code: CodeNotFound, Messages: messages}
}

// Conflict builds a CONFLICT error.
func Conflict(messages ...string) *Error {
	return &Error{Code: CodeConflict, Messages: messages}
}

// Infrastructure wraps a collaborator failure.  The message is deliberately
// opaque; the cause is kept for logging only.
func Infrastructure(cause error) *Error {
	return &Error{Code: CodeInfrastructure, Messages: []string{"internal error"}, Cause: cause}
}

// CodeOf returns the code carried by err, INFRASTRUCTURE for any error that
// is not an *Error, and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInfrastructure
}

// Wrap converts any error into an *Error.  Domain errors pass through
// unchanged; everything else becomes an infrastructure failure.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Infrastructure(err)
}
