package matching

import (
	"errors"
	"fmt"
)

// Kind classifies matching failures for callers across the invocation boundary.
type Kind string

// Error kinds. Too few candidates is a Result.Notice and model failures fall
// back to deterministic output, so neither is an error kind.
const (
	KindUnauthorized   Kind = "unauthorized"
	KindNotOnboarded   Kind = "not_onboarded"
	KindPersistence    Kind = "persistence"
	KindInvalidRequest Kind = "invalid_request"
	KindInternal       Kind = "internal"
)

// Error is a matching failure with a machine-readable kind and a message safe
// to show to the requester. Err holds the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var matchErr *Error
	if errors.As(err, &matchErr) {
		return matchErr.Kind
	}
	return KindInternal
}
