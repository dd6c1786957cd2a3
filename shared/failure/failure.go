// Package failure carries the HTTP status a service error should surface as.
// Anything that is not a *Failure is reported as a 500 by the transport.
package failure

import (
	"errors"
	"net/http"
)

type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrForbidden is returned when a role is not listed for an endpoint.
var ErrForbidden = New(http.StatusForbidden, "You don't have the required permissions")

// Error returns the message only; the code travels separately.
func (e *Failure) Error() string {
	return e.Message
}

func New(code int, msg string) *Failure {
	return &Failure{Code: code, Message: msg}
}

// BadRequest keeps nil errors nil so it can wrap validator output directly.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return New(http.StatusBadRequest, err.Error())
}

func BadRequestFromString(msg string) error {
	return New(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return New(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return New(http.StatusForbidden, msg)
}

func NotFound(msg string) error {
	return New(http.StatusNotFound, msg)
}

func Conflict(msg string) error {
	return New(http.StatusConflict, msg)
}

// GetCode unwraps err looking for a Failure and defaults to 500.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
