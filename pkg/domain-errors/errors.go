// Package domainerrors provides coded errors for the domain and service
// layers. Codes classify failures so the transport layer can map them to
// HTTP statuses without inspecting message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks business-rule violations in user input
	// (duplicate email, invalid exam type, score out of range).
	CodeValidation Code = "validation"

	// CodeBadRequest marks malformed requests that never reached the
	// business rules (unparseable body, bad identifier).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks lookups for entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness or concurrent-update conflicts.
	CodeConflict Code = "conflict"

	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeInvariantViolation marks broken aggregate invariants. These are
	// programmer-facing and should be converted to CodeValidation before
	// surfacing to callers.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks unexpected failures. Handlers must not leak the
	// underlying message for this code.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with a caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or a generic message for
// uncoded errors so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}
