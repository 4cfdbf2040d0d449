package model

import "errors"

// ErrMalformedResponse marks a 2xx answer that cannot be used: the body is not
// JSON or carries no user.
var ErrMalformedResponse = errors.New("malformed auth response")

// Field names a single input on an authentication form.
type Field string

const (
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"

	// ErrorKeySubmit holds request-level failures. It is never a form field.
	ErrorKeySubmit Field = "submit"
)

// AuthKind selects the signup or login flavour of the authentication form.
type AuthKind string

const (
	AuthSignup AuthKind = "signup"
	AuthLogin  AuthKind = "login"
)

// Valid reports whether k is a known form kind.
func (k AuthKind) Valid() bool {
	return k == AuthSignup || k == AuthLogin
}

// Label returns the human name used in messages ("signup", "login").
func (k AuthKind) Label() string {
	return string(k)
}

// Fields lists the inputs rendered for the given form kind, in display order.
func Fields(kind AuthKind) []Field {
	if kind == AuthSignup {
		return []Field{FieldEmail, FieldPassword, FieldConfirmPassword}
	}
	return []Field{FieldEmail, FieldPassword}
}

// HasField reports whether field belongs to the form kind.
func HasField(kind AuthKind, field Field) bool {
	for _, f := range Fields(kind) {
		if f == field {
			return true
		}
	}
	return false
}

// FormValues maps field names to their current raw input.
type FormValues map[Field]string

// EmptyValues returns the mount-time values for kind: every field present and blank.
func EmptyValues(kind AuthKind) FormValues {
	values := make(FormValues, 3)
	for _, f := range Fields(kind) {
		values[f] = ""
	}
	return values
}

// Clone returns an independent copy of v.
func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// FieldErrors maps field names (and ErrorKeySubmit) to a message.
type FieldErrors map[Field]string

// Clone returns an independent copy of e. A nil map clones to an empty map.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, msg := range e {
		out[k] = msg
	}
	return out
}

// Empty reports whether no error is recorded.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// SubmissionStatus tracks whether a form has a request in flight.
type SubmissionStatus int

const (
	StatusIdle SubmissionStatus = iota
	StatusSubmitting
)

func (s SubmissionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// AuthFormState is a rendering snapshot of one authentication form.
type AuthFormState struct {
	Kind           AuthKind
	Values         FormValues
	Errors         FieldErrors
	Status         SubmissionStatus
	SuccessMessage string
}

// Disabled reports whether inputs and the submit control should be disabled.
func (s AuthFormState) Disabled() bool {
	return s.Status == StatusSubmitting
}

// Error returns the message recorded for field, if any.
func (s AuthFormState) Error(field Field) string {
	return s.Errors[field]
}

// Value returns the current input for field.
func (s AuthFormState) Value(field Field) string {
	return s.Values[field]
}

// AuthRequest is the JSON body posted to the signup and login endpoints.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account summary returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is the success envelope returned by the signup and login endpoints.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}

// ErrorResponse is the failure envelope returned by the backend.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
