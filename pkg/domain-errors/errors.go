// Package domainerrors provides coded errors for the service boundary.
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here; transport translates codes into HTTP statuses.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry policy.
type Code string

const (
	// CodeValidation marks caller input that fails field-level validation.
	// The caller's fault; retrying without changing the request cannot succeed.
	CodeValidation Code = "validation"

	// CodeBadRequest marks a structurally invalid request (unparseable body,
	// missing required field).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks an absent entity. With replicated reads this can be
	// transient (replication lag), so callers may retry after a delay.
	CodeNotFound Code = "not_found"

	// CodeForbidden marks an authorization mismatch. Never retried.
	CodeForbidden Code = "forbidden"

	// CodeConflict marks a uniqueness violation surfaced as a domain fact:
	// duplicate session, duplicate attendance, duplicate natural key. Callers
	// should treat it as "already done".
	CodeConflict Code = "conflict"

	// CodeUnauthorized marks a missing or unverifiable credential.
	CodeUnauthorized Code = "unauthorized"

	// CodeUnavailable marks a dependency (broker, store) that could not be
	// reached. Retryable.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks everything unexpected. Details stay in the log.
	CodeInternal Code = "internal"
)

// Error carries a code and a caller-safe message, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not come through this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Uncoded errors map to
// a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
