package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Store-level errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Kind classifies an Error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Error is a classified domain error. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithCause returns a copy of e carrying err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// WithMessage returns a copy of e with a different public message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

const unauthenticatedMessage = "You are not logged in or your session is no longer valid. Please log in again."

var (
	ErrValidation = &Error{Kind: KindValidation, Code: "validation", Message: "Invalid input data."}

	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Code: "invalid_credentials", Message: "Incorrect email or password."}

	ErrMissingToken           = &Error{Kind: KindUnauthenticated, Code: "missing_token", Message: unauthenticatedMessage}
	ErrInvalidToken           = &Error{Kind: KindUnauthenticated, Code: "invalid_token", Message: unauthenticatedMessage}
	ErrExpiredToken           = &Error{Kind: KindUnauthenticated, Code: "expired_token", Message: unauthenticatedMessage}
	ErrStaleToken             = &Error{Kind: KindUnauthenticated, Code: "stale_token", Message: unauthenticatedMessage}
	ErrSessionSubjectNotFound = &Error{Kind: KindUnauthenticated, Code: "subject_not_found", Message: unauthenticatedMessage}

	ErrSubjectNotFound = &Error{Kind: KindNotFound, Code: "subject_not_found", Message: "There is no user with that email address."}

	ErrForbidden = &Error{Kind: KindForbidden, Code: "forbidden", Message: "You do not have permission to perform this action."}

	ErrInvalidOrExpiredResetToken = &Error{Kind: KindValidation, Code: "invalid_reset_token", Message: "Token is invalid or has expired."}

	ErrEmailTaken = &Error{Kind: KindConflict, Code: "email_taken", Message: "An account with that email already exists."}

	ErrRateLimited = &Error{Kind: KindTooManyRequests, Code: "rate_limited", Message: "Too many requests, please try again later."}

	ErrDelivery = &Error{Kind: KindInternal, Code: "delivery_failed", Message: "There was an error sending the email. Try again later."}

	ErrCorruptCredential = &Error{Kind: KindInternal, Code: "corrupt_credential", Message: "Something went wrong."}
)

// AsError extracts a classified error, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
