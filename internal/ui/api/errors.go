package api

import (
	"fmt"
	"net/http"

	"github.com/learnup/learnup/internal/ui/model"
)

// ErrMalformedResponse is returned when a 2xx response cannot be used.
var ErrMalformedResponse = model.ErrMalformedResponse

// RequestError is a non-2xx answer from the backend.
type RequestError struct {
	Kind    model.AuthKind
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Unauthorized reports whether the backend rejected the credentials.
func (e *RequestError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Conflict reports whether the backend refused a duplicate account.
func (e *RequestError) Conflict() bool {
	return e.Status == http.StatusConflict
}

// TransportError means the request never produced a response.
type TransportError struct {
	Kind model.AuthKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DefaultFailureMessage is used when a non-2xx body carries no error text.
func DefaultFailureMessage(kind model.AuthKind) string {
	if kind == model.AuthSignup {
		return "Signup failed"
	}
	return "Login failed"
}

func malformed(kind model.AuthKind, reason string) error {
	return fmt.Errorf("%s: %w: %s", kind.Label(), ErrMalformedResponse, reason)
}
