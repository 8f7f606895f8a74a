package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the HTTP boundary can map it to a
// stable status class without inspecting error text.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindState
	KindConflict
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authenticationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Statef(format string, args ...any) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unexpected wraps a store or transport failure. The wrapped detail is for
// server-side logs only; callers see a generic message.
func Unexpected(err error, msg string) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// KindOf extracts the classification from an error chain. Anything that is
// not a *domain.Error counts as unexpected.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// PublicMessage returns the caller-safe message for an error chain.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindUnexpected {
		return de.Message
	}
	return "internal server error"
}
