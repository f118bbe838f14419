package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store failure")
)

var (
	ErrUsernameTaken         = newError(ErrConflict, "username already exists")
	ErrEmailTaken            = newError(ErrConflict, "email already registered")
	ErrAccountNotFound       = newError(ErrNotFound, "user not found")
	ErrBadCredential         = newError(ErrUnauthorized, "invalid credentials")
	ErrQuestNotFound         = newError(ErrNotFound, "quest not found")
	ErrQuestAlreadyCompleted = newError(ErrConflict, "quest already completed")
	ErrUnknownCategory       = newError(ErrValidation, "unknown category")
	ErrVersionConflict       = newError(ErrConflict, "document version changed")
)

// Error is a client-facing message tagged with one of the error kinds above.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Invalid builds a validation error carrying a client-facing reason.
func Invalid(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// StoreFailure wraps an I/O or encoding failure so it matches ErrStore while
// keeping the cause available for logging.
func StoreFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
