package service

import (
	"errors"
	"fmt"

	"github.com/contactbook/contactbook-go/internal/repository"
)

// Kind is the stable, machine-readable class of a service error.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindInvalidToken       Kind = "invalid_token"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindValidation         Kind = "validation_error"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindInternal           Kind = "internal"
)

// Retryable reports whether a caller may repeat a request that failed with this kind.
func (k Kind) Retryable() bool {
	return k == KindStoreUnavailable
}

// Error is the error type returned by every service operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so wrapped
// instances still compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == e.Msg
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "invalid username or password"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Msg: "invalid or missing token"}
	ErrContactNotFound    = &Error{Kind: KindNotFound, Msg: "contact not found"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Msg: "email already exists"}
	ErrUsernameTaken      = &Error{Kind: KindConflict, Msg: "username already taken"}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable, Msg: "store unavailable"}
	ErrInternal           = &Error{Kind: KindInternal, Msg: "internal server error"}
)

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// storeError converts an unexpected repository error into a service error,
// keeping the cause for logging.
func storeError(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return &Error{Kind: KindStoreUnavailable, Msg: ErrStoreUnavailable.Msg, Err: err}
	}
	return &Error{Kind: KindInternal, Msg: ErrInternal.Msg, Err: err}
}
