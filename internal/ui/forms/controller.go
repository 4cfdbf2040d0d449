package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/learnup/learnup/internal/ui/model"
	"github.com/learnup/learnup/logging"
)

// LandingPath is where a successful login sends the user.
const LandingPath = "/"

// Authenticator performs one signup or login request against the backend.
type Authenticator interface {
	Authenticate(ctx context.Context, kind model.AuthKind, email, password string) (model.AuthResponse, error)
}

// Navigator moves the user to another page, carrying a message for display there.
type Navigator interface {
	Navigate(ctx context.Context, path, message string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path, message string)

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, path, message string) {
	f(ctx, path, message)
}

// SubmitResult reports how a Submit call ended.
type SubmitResult int

const (
	// SubmitInvalid means local validation failed; no request was made.
	SubmitInvalid SubmitResult = iota
	// SubmitBusy means another submission was already in flight.
	SubmitBusy
	// SubmitFailed means the request or transport failed; see the submit error.
	SubmitFailed
	// SubmitSucceeded means the backend accepted the credentials.
	SubmitSucceeded
)

func (r SubmitResult) String() string {
	switch r {
	case SubmitInvalid:
		return "invalid"
	case SubmitBusy:
		return "busy"
	case SubmitFailed:
		return "failed"
	case SubmitSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithNavigator sets the navigator used after a successful login.
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) {
		c.nav = nav
	}
}

// WithLogger sets the logger used for submission events.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns the state of one signup or login form. Each form instance
// gets its own Controller; nothing is shared between instances.
type Controller struct {
	kind   model.AuthKind
	auth   Authenticator
	nav    Navigator
	logger *logging.Logger

	mu      sync.Mutex
	values  model.FormValues
	errors  model.FieldErrors
	status  model.SubmissionStatus
	success string
}

// NewController builds a controller for the given form kind in its mount state.
func NewController(kind model.AuthKind, auth Authenticator, opts ...Option) (*Controller, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	c := &Controller{
		kind:   kind,
		auth:   auth,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.resetLocked()
	return c, nil
}

// Kind returns the form kind.
func (c *Controller) Kind() model.AuthKind {
	return c.kind
}

// OnFieldChange records a new value for field and clears that field's error.
// Edits are ignored while a submission is in flight and for fields the form
// does not have.
func (c *Controller) OnFieldChange(field model.Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == model.StatusSubmitting || !model.HasField(c.kind, field) {
		return
	}
	c.values[field] = value
	delete(c.errors, field)
}

// Validate runs the form rules against the current values without changing state.
func (c *Controller) Validate() model.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ValidateAuthForm(c.kind, c.values)
}

// State returns a snapshot of the form for rendering.
func (c *Controller) State() model.AuthFormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.AuthFormState{
		Kind:           c.kind,
		Values:         c.values.Clone(),
		Errors:         c.errors.Clone(),
		Status:         c.status,
		SuccessMessage: c.success,
	}
}

// Reset returns the form to its mount state. It does nothing while a
// submission is in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == model.StatusSubmitting {
		return
	}
	c.resetLocked()
}

// Submit validates the form and, when valid, sends the credentials to the
// backend. The form is back to idle by the time Submit returns, whatever the
// outcome.
func (c *Controller) Submit(ctx context.Context) SubmitResult {
	c.mu.Lock()
	if c.status == model.StatusSubmitting {
		c.mu.Unlock()
		return SubmitBusy
	}

	c.success = ""
	errs := ValidateAuthForm(c.kind, c.values)
	c.errors = errs
	if !errs.Empty() {
		c.mu.Unlock()
		c.logger.Debug("form", "validation failed", map[string]any{
			"kind":   c.kind.Label(),
			"fields": fieldNames(errs),
		})
		return SubmitInvalid
	}

	email := c.values[model.FieldEmail]
	password := c.values[model.FieldPassword]
	release := c.beginSubmitLocked()
	c.mu.Unlock()
	defer release()

	resp, err := c.authenticate(ctx, email, password)
	if err == nil && resp.User == nil {
		err = model.ErrMalformedResponse
	}
	if err != nil {
		message := c.failureMessage(err)
		c.mu.Lock()
		c.errors = model.FieldErrors{model.ErrorKeySubmit: message}
		c.mu.Unlock()
		c.logger.Warn("auth", c.kind.Label()+" failed", map[string]any{
			"email_domain": emailDomain(email),
			"error":        err.Error(),
		})
		return SubmitFailed
	}

	username := resp.User.Username
	c.logger.Info("auth", c.kind.Label()+" succeeded", map[string]any{
		"email_domain": emailDomain(email),
		"username":     username,
	})

	if c.kind == model.AuthSignup {
		c.mu.Lock()
		c.success = SignupSuccessMessage(username)
		c.clearFieldsLocked()
		c.mu.Unlock()
		return SubmitSucceeded
	}

	c.mu.Lock()
	c.errors = make(model.FieldErrors)
	nav := c.nav
	c.mu.Unlock()
	if nav != nil {
		nav.Navigate(ctx, LandingPath, LoginWelcomeMessage(username))
	}
	return SubmitSucceeded
}

// authenticate calls the backend, converting a panic in the call into an
// unexpectedError so the deferred release still runs and the form recovers.
func (c *Controller) authenticate(ctx context.Context, email, password string) (resp model.AuthResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("auth", "authenticator panicked", nil, map[string]any{
				"kind":  c.kind.Label(),
				"panic": fmt.Sprint(r),
			})
			resp = model.AuthResponse{}
			err = unexpectedError{cause: r}
		}
	}()
	return c.auth.Authenticate(ctx, c.kind, email, password)
}

func (c *Controller) failureMessage(err error) string {
	var unexpected unexpectedError
	if errors.As(err, &unexpected) || errors.Is(err, model.ErrMalformedResponse) {
		return FallbackMessage(c.kind)
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackMessage(c.kind)
}

type unexpectedError struct {
	cause any
}

func (e unexpectedError) Error() string {
	return fmt.Sprintf("unexpected failure: %v", e.cause)
}

func fieldNames(errs model.FieldErrors) []string {
	names := make([]string, 0, len(errs))
	for _, f := range model.Fields(model.AuthSignup) {
		if _, ok := errs[f]; ok {
			names = append(names, string(f))
		}
	}
	return names
}

// emailDomain returns the part of address after the last '@'.
func emailDomain(address string) string {
	if i := strings.LastIndexByte(address, '@'); i >= 0 {
		return address[i+1:]
	}
	return ""
}
