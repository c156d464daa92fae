package models

import (
	stderrors "errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can map them to a
// user-facing response without parsing messages.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindInvalidState       ErrorKind = "invalid_state"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindConflict           ErrorKind = "conflict"
	KindStorageUnavailable ErrorKind = "storage_unavailable"
)

type AppError struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(kind ErrorKind, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func ErrNotFound(format string, args ...interface{}) error {
	return newAppError(KindNotFound, format, args...)
}

func ErrUnauthorized(format string, args ...interface{}) error {
	return newAppError(KindUnauthorized, format, args...)
}

func ErrInvalidState(format string, args ...interface{}) error {
	return newAppError(KindInvalidState, format, args...)
}

func ErrPreconditionFailed(format string, args ...interface{}) error {
	return newAppError(KindPreconditionFailed, format, args...)
}

func ErrConflict(format string, args ...interface{}) error {
	return newAppError(KindConflict, format, args...)
}

// ErrStorage wraps a transient infrastructure failure; the external
// caller decides whether to retry.
func ErrStorage(cause error, format string, args ...interface{}) error {
	return &AppError{Kind: KindStorageUnavailable, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err (or anything it wraps) carries the kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or empty for unclassified errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
