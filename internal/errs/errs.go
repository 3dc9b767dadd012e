package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the API layer can map it to a status code
// without inspecting message text.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindNotFound      Kind = "not_found"
	KindStorage       Kind = "storage"
)

// Error carries a kind plus a stable machine-readable code. The code is part
// of the API contract; messages are free to change.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Authorization(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func State(code, message string) *Error {
	return &Error{Kind: KindState, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Storage wraps a persistence failure. Callers on audit-critical paths treat
// it as a denial (fail closed), so the wrapped error never reaches the client.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: "STORAGE_ERROR", Message: "storage failure", Err: err}
}

// KindOf returns the kind of err, or KindStorage for untyped errors: an
// unclassified failure is treated like an infrastructure failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// CodeOf returns the machine-readable code of err, or "INTERNAL" when the
// error carries none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
