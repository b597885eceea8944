// Package apperr defines the error taxonomy shared by the payment stack.
// Handlers map these onto HTTP statuses; everything else just wraps and
// returns them.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindInternal
)

// Error carries a machine-readable code plus optional structured details.
// Code is snake_case and goes straight into the JSON error body.
type Error struct {
	Kind    Kind
	Code    string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(code string, details any) *Error {
	return &Error{Kind: KindValidation, Code: code, Details: details}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func Conflict(code string, details any) *Error {
	return &Error{Kind: KindConflict, Code: code, Details: details}
}

// Internal wraps an unexpected failure. The cause is for server-side logs
// only and is never serialized to the client.
func Internal(code string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: code, cause: cause}
}

// From extracts an *Error if err is one, otherwise wraps it as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal_error", err)
}

func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
