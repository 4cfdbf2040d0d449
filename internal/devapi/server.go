// Package devapi is a local implementation of the LearnUp users backend. It
// serves the signup and login endpoints the front ends call, with accounts in
// memory or a JSON file.
package devapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnup/learnup/logging"
)

const (
	signupPath        = "/users/signup/"
	loginPath         = "/users/login/"
	currentUserPath   = "/users/me/"
	defaultListen     = "127.0.0.1:8000"
	minPasswordLength = 8
	maxBodyBytes      = 64 << 10
)

// Options configures the development backend.
type Options struct {
	Listen         string
	AllowedOrigins []string
	Store          *Store
	Sessions       *Sessions
	Logger         *logging.Logger
}

type server struct {
	store    *Store
	sessions *Sessions
	contract *contract
	logger   *logging.Logger
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewHandler builds the backend routes wrapped in request logging and CORS.
func NewHandler(opts Options) (http.Handler, error) {
	opts, err := applyDefaults(opts)
	if err != nil {
		return nil, err
	}
	c, err := loadContract(context.Background())
	if err != nil {
		return nil, err
	}
	srv := &server{
		store:    opts.Store,
		sessions: opts.Sessions,
		contract: c,
		logger:   opts.Logger,
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
	})
	return corsHandler.Handler(logging.NewHTTPLogger(opts.Logger).Middleware(srv.routes())), nil
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(signupPath, s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc(loginPath, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(currentUserPath, s.handleCurrentUser).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	}).Methods(http.MethodGet, http.MethodHead)
	return r
}

func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.readCredentials(w, r, signupPath)
	if !ok {
		return
	}
	if msg := validateCredentials(creds, true); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	user, err := s.store.Create(creds.Email, creds.Password)
	if err != nil {
		s.fail(w, r, "signup", err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		s.fail(w, r, "signup", err)
		return
	}
	s.logFor(r).WithField("user_id", user.ID).WithField("username", user.Username).Info("account created")
	writeUser(w, http.StatusCreated, MsgUserCreated, user)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.readCredentials(w, r, loginPath)
	if !ok {
		return
	}
	if msg := validateCredentials(creds, false); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	user, err := s.store.Authenticate(creds.Email, creds.Password)
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		s.fail(w, r, "login", err)
		return
	}
	s.logFor(r).WithField("user_id", user.ID).Info("session started")
	writeUser(w, http.StatusOK, MsgLoginSuccessful, user)
}

func (s *server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessions.FromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, MsgNotAuthenticated)
		return
	}
	user, err := s.store.Get(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, MsgNotAuthenticated)
		return
	}
	writeUser(w, http.StatusOK, "", user)
}

// readCredentials parses the JSON body and checks it against the contract.
// It writes the error response itself and reports false when the request
// cannot be used.
func (s *server) readCredentials(w http.ResponseWriter, r *http.Request, path string) (credentials, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return credentials{}, false
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return credentials{}, false
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if strings.TrimSpace(r.Header.Get("Content-Type")) == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if err := s.contract.validate(r, path); err != nil {
		s.logFor(r).WithField("path", path).Warn(err.Error())
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return credentials{}, false
	}

	var creds credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return credentials{}, false
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, true
}

// validateCredentials returns the first problem with creds, or "". The length
// rule only applies to new accounts.
func validateCredentials(creds credentials, checkLength bool) string {
	switch {
	case creds.Email == "":
		return MsgEmailRequired
	case creds.Password == "":
		return MsgPasswordRequired
	case checkLength && utf8.RuneCountInString(creds.Password) < minPasswordLength:
		return MsgPasswordTooShort
	}
	return ""
}

func (s *server) startSession(w http.ResponseWriter, user User) error {
	cookie, err := s.sessions.Issue(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)
	return nil
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	var message string
	switch {
	case errors.Is(err, ErrAlreadyExists):
		message = MsgEmailTaken
	case status == http.StatusUnauthorized:
		message = MsgInvalidCredentials
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		message = MsgPasswordTooLong
	case errors.Is(err, ErrBadRequest):
		message = MsgInvalidBody
	default:
		message = "An error occurred: " + err.Error()
	}
	logCtx := s.logFor(r).WithField("op", op).WithField("status", status)
	if status >= http.StatusInternalServerError {
		logCtx.Error(op+" failed", err)
	} else {
		logCtx.Info(op + " rejected: " + err.Error())
	}
	writeError(w, status, message)
}

func (s *server) logFor(r *http.Request) *logging.LogContext {
	return s.logger.WithRequestID(logging.RequestID(r.Context())).WithCategory("users")
}

// Run starts the development backend and blocks until ctx is cancelled or
// the listener fails.
func Run(ctx context.Context, opts Options) error {
	opts, err := applyDefaults(opts)
	if err != nil {
		return err
	}
	handler, err := NewHandler(opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	opts.Logger.Info("general", "serving LearnUp development API", map[string]any{
		"listen":  "http://" + opts.Listen,
		"origins": opts.AllowedOrigins,
		"users":   opts.Store.Path(),
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func applyDefaults(opts Options) (Options, error) {
	if strings.TrimSpace(opts.Listen) == "" {
		opts.Listen = defaultListen
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("dev-api", logging.INFO, os.Stdout)
	}
	if opts.Store == nil {
		store, err := NewStore("", 0)
		if err != nil {
			return opts, err
		}
		opts.Store = store
	}
	if opts.Sessions == nil {
		sessions, err := NewSessions("", 14*24*time.Hour, "sessionid")
		if err != nil {
			return opts, err
		}
		opts.Sessions = sessions
	}
	return opts, nil
}
