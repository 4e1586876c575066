package service

import "fmt"

// ErrorKind classifies service failures so handlers can map them to
// HTTP statuses without inspecting message text.
type ErrorKind int

const (
	// KindInternal is any fault the caller cannot act on.
	KindInternal ErrorKind = iota
	// KindNotFound covers both absent entities and entities owned by
	// another user; the two are deliberately indistinguishable.
	KindNotFound
	// KindInvalidInput is a malformed or out-of-range field.
	KindInvalidInput
	// KindConflict is a structural constraint: has children, in use,
	// depth violation, same-account transfer.
	KindConflict
	// KindUnauthorized is a missing or invalid scoping key.
	KindUnauthorized
)

// Error is the tagged error type returned by all services.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Invalid builds a KindInvalidInput error.
func Invalid(msg string) *Error { return &Error{Kind: KindInvalidInput, Message: msg} }

// Conflict builds a KindConflict error.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Internal wraps a store or runtime fault.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
