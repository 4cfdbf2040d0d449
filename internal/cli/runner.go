package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/learnup/learnup/internal/ui/forms"
	"github.com/learnup/learnup/internal/ui/model"
	"github.com/learnup/learnup/logging"
)

const defaultMaxAttempts = 5

var (
	// ErrAborted signals the user aborted input (e.g. Ctrl+C).
	ErrAborted = errors.New("cli: aborted")
	// ErrGaveUp is returned when the user declines to retry a failed request.
	ErrGaveUp = errors.New("cli: request failed")
	// ErrTooManyAttempts is returned when the form is still invalid after the
	// attempt limit.
	ErrTooManyAttempts = errors.New("cli: too many attempts")
)

// Option configures a Runner.
type Option func(*Runner)

// WithMaxAttempts caps how many times the form is submitted.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets the logger handed to the form controller.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner drives one signup or login form through a PromptDriver.
type Runner struct {
	driver      PromptDriver
	auth        forms.Authenticator
	logger      *logging.Logger
	maxAttempts int
}

// NewRunner builds a Runner.
func NewRunner(driver PromptDriver, auth forms.Authenticator, opts ...Option) (*Runner, error) {
	if driver == nil {
		return nil, errors.New("prompt driver is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	r := &Runner{
		driver:      driver,
		auth:        auth,
		logger:      logging.Discard(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Run prompts for the fields of kind and submits them until the backend
// accepts them, the user gives up, or the attempt limit is reached. Only
// fields with an error are asked again.
func (r *Runner) Run(ctx context.Context, kind model.AuthKind) error {
	var welcome string
	controller, err := forms.NewController(kind, r.auth,
		forms.WithLogger(r.logger),
		forms.WithNavigator(forms.NavigatorFunc(func(_ context.Context, _, message string) {
			welcome = message
		})),
	)
	if err != nil {
		return err
	}

	pending := model.Fields(kind)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.promptFields(ctx, controller, pending); err != nil {
			return err
		}

		result := controller.Submit(ctx)
		switch result {
		case forms.SubmitSucceeded:
			message := controller.State().SuccessMessage
			if kind == model.AuthLogin {
				message = welcome
			}
			return r.driver.Info(ctx, message)
		case forms.SubmitInvalid:
			state := controller.State()
			pending = nil
			for _, field := range model.Fields(kind) {
				msg := state.Error(field)
				if msg == "" && field == model.FieldConfirmPassword && state.Error(model.FieldPassword) != "" {
					// A new password needs a new confirmation.
					pending = append(pending, field)
					continue
				}
				if msg != "" {
					if err := r.driver.Info(ctx, fmt.Sprintf("✗ %s: %s", forms.FieldLabel(field), msg)); err != nil {
						return err
					}
					pending = append(pending, field)
				}
			}
		case forms.SubmitFailed:
			msg := controller.State().Error(model.ErrorKeySubmit)
			if err := r.driver.Info(ctx, "✗ "+msg); err != nil {
				return err
			}
			retry, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
			if err != nil {
				return err
			}
			if !retry {
				return fmt.Errorf("%w: %s", ErrGaveUp, msg)
			}
			pending = model.Fields(kind)
		default:
			return fmt.Errorf("unexpected submit result %s", result)
		}
	}
	return ErrTooManyAttempts
}

func (r *Runner) promptFields(ctx context.Context, controller *forms.Controller, fields []model.Field) error {
	state := controller.State()
	for _, field := range fields {
		cfg := InputConfig{
			Message: forms.FieldLabel(field) + ":",
			Help:    forms.FieldPlaceholder(controller.Kind(), field),
		}
		var (
			value string
			err   error
		)
		if forms.FieldInputType(field) == "password" {
			value, err = r.driver.Password(ctx, cfg)
		} else {
			cfg.Default = state.Value(field)
			value, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		controller.OnFieldChange(field, value)
	}
	return nil
}
