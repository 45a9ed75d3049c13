// Package errors carries the coded errors every storefront layer returns and
// the HTTP metadata the API maps them to.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeSuperseded    Code = "REQUEST_SUPERSEDED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered to API callers.
// ExposeMessage lets the error's own message replace PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ExposeMessage  bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true, ExposeMessage: true},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", ExposeMessage: true},
	CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", ExposeMessage: true},
	CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true, ExposeMessage: true},
	CodeSuperseded:    {HTTPStatus: http.StatusConflict, PublicMessage: "request superseded by a newer one", ExposeMessage: true},
	CodeRateLimit:     {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded", ExposeMessage: true},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error. Values are treated as immutable so package-level
// sentinels can be returned and compared with errors.Is.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.details = details
	return &clone
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost coded error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// Retryable reports whether retrying the failed operation may succeed.
// Uncoded errors are treated as internal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}

// HTTPStatusError records a non-2xx answer from an upstream HTTP service.
type HTTPStatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}
