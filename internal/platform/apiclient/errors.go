package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrTimeout      = errors.New("request timeout")
	ErrNotFound     = errors.New("not found")
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindUnauthorized
	KindForbidden
	KindValidation
	KindNotFound
	KindServer
)

const (
	msgForbidden    = "Access forbidden. Please check your permissions."
	msgUnauthorized = "Authentication failed. Please login again."
	msgValidation   = "Validation error. Please check your input."
	msgTimeout      = "Request timeout. Please try again."
	msgUnexpected   = "An unexpected error occurred. Please try again."
)

// Error is returned for every failed call. Message is safe to show to the
// user; Err holds the underlying transport or decode error, if any.
type Error struct {
	Kind       Kind
	StatusCode int
	Method     string
	Path       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the sentinel errors. A 403 is treated the same as
// a 401: both end the session.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized || e.Kind == KindForbidden
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// UserMessage extracts a displayable message from any error, falling back to
// a generic text for errors that did not come from the client.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgUnexpected
}

func statusError(method, path string, status int, backendMsg string) *Error {
	e := &Error{StatusCode: status, Method: method, Path: path}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, msgUnauthorized
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, msgForbidden
	case status == http.StatusUnprocessableEntity:
		e.Kind, e.Message = KindValidation, msgValidation
		if backendMsg != "" {
			e.Message = backendMsg
		}
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, backendMsg
		if e.Message == "" {
			e.Message = "Data not found"
		}
	default:
		e.Kind, e.Message = KindServer, backendMsg
		if e.Message == "" {
			e.Message = msgUnexpected
		}
	}
	return e
}
