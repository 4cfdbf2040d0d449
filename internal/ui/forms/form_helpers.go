package forms

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/learnup/learnup/internal/ui/model"
)

// FieldView describes how one input is presented, independent of the front end.
type FieldView struct {
	Field       model.Field
	Label       string
	InputType   string
	Placeholder string
	Value       string
	Error       string
	Disabled    bool
}

// FormView is the presentation of a whole authentication form.
type FormView struct {
	Kind           model.AuthKind
	Title          string
	Subtitle       string
	Fields         []FieldView
	SubmitError    string
	SuccessMessage string
	SubmitLabel    string
	Disabled       bool
	AltPrompt      string
	AltLabel       string
	AltHref        string
}

// FieldLabel returns the display label for field.
func FieldLabel(field model.Field) string {
	switch field {
	case model.FieldEmail:
		return "Email Address"
	case model.FieldPassword:
		return "Password"
	case model.FieldConfirmPassword:
		return "Confirm Password"
	default:
		return string(field)
	}
}

// FieldInputType returns the HTML input type for field.
func FieldInputType(field model.Field) string {
	if field == model.FieldEmail {
		return "email"
	}
	return "password"
}

// FieldPlaceholder returns the placeholder text for field on the given form.
func FieldPlaceholder(kind model.AuthKind, field model.Field) string {
	switch field {
	case model.FieldEmail:
		return "you@example.com"
	case model.FieldPassword:
		if kind == model.AuthSignup {
			return "At least 8 characters"
		}
		return "Enter your password"
	case model.FieldConfirmPassword:
		return "Re-enter your password"
	default:
		return ""
	}
}

// SubmitLabel returns the submit button text, which changes while submitting.
func SubmitLabel(kind model.AuthKind, submitting bool) string {
	switch {
	case kind == model.AuthSignup && submitting:
		return "Creating Account..."
	case kind == model.AuthSignup:
		return "Sign Up"
	case submitting:
		return "Signing In..."
	default:
		return "Sign In"
	}
}

// BuildFormView turns a controller snapshot into a FormView.
func BuildFormView(state model.AuthFormState) FormView {
	disabled := state.Disabled()
	view := FormView{
		Kind:           state.Kind,
		SubmitError:    state.Error(model.ErrorKeySubmit),
		SuccessMessage: state.SuccessMessage,
		SubmitLabel:    SubmitLabel(state.Kind, disabled),
		Disabled:       disabled,
	}
	if state.Kind == model.AuthSignup {
		view.Title = "Create Account"
		view.Subtitle = "Join LearnUp and start your learning journey"
		view.AltPrompt = "Already have an account?"
		view.AltLabel = "Sign in"
		view.AltHref = "/login"
	} else {
		view.Title = "Welcome Back"
		view.Subtitle = "Sign in to continue your learning journey"
		view.AltPrompt = "Don't have an account?"
		view.AltLabel = "Sign up"
		view.AltHref = "/signup"
	}
	for _, field := range model.Fields(state.Kind) {
		view.Fields = append(view.Fields, FieldView{
			Field:       field,
			Label:       FieldLabel(field),
			InputType:   FieldInputType(field),
			Placeholder: FieldPlaceholder(state.Kind, field),
			Value:       state.Value(field),
			Error:       state.Error(field),
			Disabled:    disabled,
		})
	}
	return view
}

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// SafeHTMLText strips any markup from message and returns text that is safe to
// place in innerHTML. Server-provided error strings go through here.
func SafeHTMLText(message string) string {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(messagePolicy.Sanitize(message))
}
