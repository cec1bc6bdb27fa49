package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Kind is the closed set of failure categories the ledger surfaces to callers.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindInvalidAmount Kind = "INVALID_AMOUNT"
	KindMalformedLine Kind = "MALFORMED_LINE"
	KindUnbalanced    Kind = "UNBALANCED"
	KindPeriodClosed  Kind = "PERIOD_CLOSED"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	// KindPersistence means nothing was durably written.
	KindPersistence Kind = "PERSISTENCE"
	// KindUnconfirmed means the write committed but could not be confirmed afterwards.
	KindUnconfirmed Kind = "UNCONFIRMED"
)

// Error is the typed error returned by every ledger operation.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindPersistence
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetail attaches a key to the error's context, e.g. the totals of an unbalanced entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e == nil {
		return nil
	}
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf reports the kind of err. Untyped errors are treated as persistence failures.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
