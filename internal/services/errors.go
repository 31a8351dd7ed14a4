package services

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a service error for callers
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindItemNotFound  Kind = "item_not_found"
	KindAlreadyBilled Kind = "already_billed"
	KindInvalidState  Kind = "invalid_state"
	KindInvalidStatus Kind = "invalid_status"
	KindStorage       Kind = "storage"
	KindUnauthorized  Kind = "unauthorized"
)

// Error is a domain error with a machine-checkable kind and a human-readable message
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the storage failure behind a KindStorage error
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// storageError hides err behind an opaque message. The cause is kept for logging.
func storageError(err error, msg string) *Error {
	return &Error{Kind: KindStorage, Message: msg, cause: errors.WithStack(err)}
}

// KindOf returns the kind of err, or "" when err is not a service error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a service error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// asServiceError passes service errors through and turns everything else into a storage error
func asServiceError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return storageError(err, msg)
}
