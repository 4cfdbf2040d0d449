package devapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
)

// Messages returned in the error field of the envelope.
const (
	MsgInvalidJSON        = "Invalid JSON format"
	MsgInvalidBody        = "Invalid request body"
	MsgEmailRequired      = "Email is required"
	MsgPasswordRequired   = "Password is required"
	MsgPasswordTooShort   = "Password must be at least 8 characters long"
	MsgPasswordTooLong    = "Password must be at most 72 bytes long"
	MsgEmailTaken         = "A user with this email already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgNotAuthenticated   = "Authentication required"
	MsgUserCreated        = "User created successfully"
	MsgLoginSuccessful    = "Login successful"
)

// userData is the public view of an account.
type userData struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	User    *userData `json:"user,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func publicUser(u User) *userData {
	return &userData{ID: u.ID, Username: u.Username, Email: u.Email}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeUser(w http.ResponseWriter, status int, message string, u User) {
	writeJSON(w, status, authEnvelope{Success: true, Message: message, User: publicUser(u)})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
