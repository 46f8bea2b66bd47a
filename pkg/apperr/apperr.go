// Package apperr defines the typed error value returned by every service
// operation in place of a success value. Handlers translate the error kind
// into an HTTP status; services never use errors for control flow beyond
// returning them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error is a (kind, code, message, context) tuple. Code is the stable
// machine-readable identifier (e.g. "schedule_exists"); Message is for
// humans; Context carries optional structured detail.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Internal wraps an unexpected datastore or infrastructure failure. The
// underlying message is propagated, matching the pass-through policy for
// non-business errors.
func Internal(err error) *Error {
	return New(KindInternal, "internal", err.Error())
}

// WithContext attaches one structured detail and returns the error for
// chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// From extracts an *Error from err, wrapping foreign errors as internal.
// A nil error maps to nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// JSON writes the error to the echo response with its mapped status.
func JSON(c echo.Context, err error) error {
	ae := From(err)
	return c.JSON(ae.Status(), map[string]interface{}{"error": ae})
}
