package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them to a status
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is the typed failure returned by the service layer
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports missing or malformed input
func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NewForbiddenError reports an authenticated caller acting on a foreign resource
func NewForbiddenError(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// NewNotFoundError reports a referenced entity that does not exist
func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// NewConflictError reports a uniqueness violation
func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewInternalError wraps a storage or collaborator failure
func NewInternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// AsError extracts a *Error from err. Unknown errors are reported as internal.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewInternalError("Unexpected error", err)
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}
