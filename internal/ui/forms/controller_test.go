package forms

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/learnup/learnup/internal/ui/model"
	"github.com/learnup/learnup/logging"
)

type fakeAuth struct {
	mu       sync.Mutex
	calls    int
	kinds    []model.AuthKind
	emails   []string
	pwds     []string
	resp     model.AuthResponse
	err      error
	panicVal any
	// during runs inside the call, while the form is submitting.
	during func()
}

func (f *fakeAuth) Authenticate(_ context.Context, kind model.AuthKind, email, password string) (model.AuthResponse, error) {
	f.mu.Lock()
	f.calls++
	f.kinds = append(f.kinds, kind)
	f.emails = append(f.emails, email)
	f.pwds = append(f.pwds, password)
	during := f.during
	f.mu.Unlock()

	if during != nil {
		during()
	}
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	return f.resp, f.err
}

func (f *fakeAuth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNav struct {
	path    string
	message string
	calls   int
}

func (n *recordingNav) Navigate(_ context.Context, path, message string) {
	n.calls++
	n.path = path
	n.message = message
}

func userResponse(username string) model.AuthResponse {
	return model.AuthResponse{Success: true, User: &model.User{ID: 1, Username: username, Email: username + "@example.com"}}
}

func newTestController(t *testing.T, kind model.AuthKind, auth Authenticator, opts ...Option) *Controller {
	t.Helper()
	c, err := NewController(kind, auth, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func fillSignup(c *Controller, email, password, confirm string) {
	c.OnFieldChange(model.FieldEmail, email)
	c.OnFieldChange(model.FieldPassword, password)
	c.OnFieldChange(model.FieldConfirmPassword, confirm)
}

func TestNewControllerRejectsBadInput(t *testing.T) {
	if _, err := NewController("register", &fakeAuth{}); err == nil {
		t.Fatal("expected unknown kind to be rejected")
	}
	if _, err := NewController(model.AuthLogin, nil); err == nil {
		t.Fatal("expected nil authenticator to be rejected")
	}
}

func TestControllerMountState(t *testing.T) {
	c := newTestController(t, model.AuthSignup, &fakeAuth{})
	state := c.State()
	want := model.FormValues{
		model.FieldEmail:           "",
		model.FieldPassword:        "",
		model.FieldConfirmPassword: "",
	}
	if diff := cmp.Diff(want, state.Values); diff != "" {
		t.Fatalf("mount values mismatch (-want +got):\n%s", diff)
	}
	if !state.Errors.Empty() || state.SuccessMessage != "" || state.Status != model.StatusIdle {
		t.Fatalf("unexpected mount state: %+v", state)
	}
}

func TestSubmitWithValidationErrorsSkipsRequest(t *testing.T) {
	auth := &fakeAuth{resp: userResponse("alice")}
	c := newTestController(t, model.AuthSignup, auth)
	fillSignup(c, "not-an-email", "short", "other")

	if got := c.Submit(context.Background()); got != SubmitInvalid {
		t.Fatalf("expected SubmitInvalid, got %s", got)
	}
	if n := auth.callCount(); n != 0 {
		t.Fatalf("expected no API calls, got %d", n)
	}
	state := c.State()
	if state.Status != model.StatusIdle {
		t.Fatalf("expected idle status, got %s", state.Status)
	}
	want := model.FieldErrors{
		model.FieldEmail:           MsgEmailInvalid,
		model.FieldPassword:        MsgPasswordTooShort,
		model.FieldConfirmPassword: MsgPasswordMismatch,
	}
	if diff := cmp.Diff(want, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if _, ok := state.Errors[model.ErrorKeySubmit]; ok {
		t.Fatal("validation errors must not populate the submit slot")
	}
}

func TestOnFieldChangeClearsOnlyEditedField(t *testing.T) {
	c := newTestController(t, model.AuthSignup, &fakeAuth{})
	c.Submit(context.Background())
	if len(c.State().Errors) != 3 {
		t.Fatalf("expected three errors, got %+v", c.State().Errors)
	}

	c.OnFieldChange(model.FieldPassword, "p")
	state := c.State()
	if _, ok := state.Errors[model.FieldPassword]; ok {
		t.Fatal("expected password error to be cleared")
	}
	if state.Errors[model.FieldEmail] != MsgEmailRequired || state.Errors[model.FieldConfirmPassword] != MsgConfirmRequired {
		t.Fatalf("other errors should survive: %+v", state.Errors)
	}
	if state.Values[model.FieldPassword] != "p" {
		t.Fatalf("expected value to be stored, got %q", state.Values[model.FieldPassword])
	}
}

func TestRevalidationReplacesStaleErrors(t *testing.T) {
	c := newTestController(t, model.AuthSignup, &fakeAuth{})
	c.Submit(context.Background())

	// Fix email and confirmation without editing the password field's error away.
	c.OnFieldChange(model.FieldEmail, "alice@example.com")
	c.OnFieldChange(model.FieldConfirmPassword, "longenough")
	c.Submit(context.Background())

	want := model.FieldErrors{
		model.FieldPassword:        MsgPasswordRequired,
		model.FieldConfirmPassword: MsgPasswordMismatch,
	}
	if diff := cmp.Diff(want, c.State().Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestOnFieldChangeIgnoresForeignFields(t *testing.T) {
	c := newTestController(t, model.AuthLogin, &fakeAuth{})
	c.OnFieldChange(model.FieldConfirmPassword, "secret")
	c.OnFieldChange(model.ErrorKeySubmit, "x")
	state := c.State()
	if _, ok := state.Values[model.FieldConfirmPassword]; ok {
		t.Fatal("login form must not grow a confirmPassword value")
	}
	if _, ok := state.Values[model.ErrorKeySubmit]; ok {
		t.Fatal("submit is not a field")
	}
}

func TestSignupSuccess(t *testing.T) {
	auth := &fakeAuth{resp: userResponse("alice")}
	c := newTestController(t, model.AuthSignup, auth)
	fillSignup(c, "alice@example.com", "password123", "password123")

	if got := c.Submit(context.Background()); got != SubmitSucceeded {
		t.Fatalf("expected success, got %s", got)
	}
	state := c.State()
	if !strings.Contains(state.SuccessMessage, "alice") {
		t.Fatalf("expected success message with username, got %q", state.SuccessMessage)
	}
	if diff := cmp.Diff(model.EmptyValues(model.AuthSignup), state.Values); diff != "" {
		t.Fatalf("expected values to be reset (-want +got):\n%s", diff)
	}
	if !state.Errors.Empty() {
		t.Fatalf("expected no errors, got %+v", state.Errors)
	}
	if state.Status != model.StatusIdle {
		t.Fatalf("expected idle status, got %s", state.Status)
	}
	if auth.emails[0] != "alice@example.com" || auth.pwds[0] != "password123" || auth.kinds[0] != model.AuthSignup {
		t.Fatalf("unexpected call: %+v", auth)
	}
}

func TestSubmitClearsSuccessMessageOnNextAttempt(t *testing.T) {
	auth := &fakeAuth{resp: userResponse("alice")}
	c := newTestController(t, model.AuthSignup, auth)
	fillSignup(c, "alice@example.com", "password123", "password123")
	c.Submit(context.Background())
	if c.State().SuccessMessage == "" {
		t.Fatal("expected success message after first submit")
	}

	// Values were reset, so the next attempt fails validation.
	if got := c.Submit(context.Background()); got != SubmitInvalid {
		t.Fatalf("expected invalid, got %s", got)
	}
	state := c.State()
	if state.SuccessMessage != "" {
		t.Fatalf("success message should be cleared, got %q", state.SuccessMessage)
	}
	if state.Errors.Empty() {
		t.Fatal("expected validation errors")
	}
}

func TestSubmitRequestErrorUsesMessage(t *testing.T) {
	auth := &fakeAuth{err: errors.New("Email already taken")}
	c := newTestController(t, model.AuthSignup, auth)
	fillSignup(c, "alice@example.com", "password123", "password123")

	if got := c.Submit(context.Background()); got != SubmitFailed {
		t.Fatalf("expected failure, got %s", got)
	}
	state := c.State()
	want := model.FieldErrors{model.ErrorKeySubmit: "Email already taken"}
	if diff := cmp.Diff(want, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if state.SuccessMessage != "" {
		t.Fatalf("success message must stay empty on failure, got %q", state.SuccessMessage)
	}
	if state.Status != model.StatusIdle {
		t.Fatalf("expected idle status, got %s", state.Status)
	}
	if state.Values[model.FieldEmail] != "alice@example.com" {
		t.Fatal("values must be kept after a failure so the user can resubmit")
	}
}

func TestSubmitMessagelessErrorFallsBack(t *testing.T) {
	for _, kind := range []model.AuthKind{model.AuthSignup, model.AuthLogin} {
		auth := &fakeAuth{err: errors.New("")}
		c := newTestController(t, kind, auth)
		fillSignup(c, "alice@example.com", "password123", "password123")

		c.Submit(context.Background())
		got := c.State().Errors[model.ErrorKeySubmit]
		if got != FallbackMessage(kind) {
			t.Fatalf("%s: expected fallback %q, got %q", kind, FallbackMessage(kind), got)
		}
		if got == "" {
			t.Fatal("fallback must not be empty")
		}
	}
}

func TestSubmitRecoversFromPanic(t *testing.T) {
	auth := &fakeAuth{panicVal: "boom"}
	c := newTestController(t, model.AuthLogin, auth)
	c.OnFieldChange(model.FieldEmail, "alice@example.com")
	c.OnFieldChange(model.FieldPassword, "pw")

	if got := c.Submit(context.Background()); got != SubmitFailed {
		t.Fatalf("expected failure, got %s", got)
	}
	state := c.State()
	if state.Status != model.StatusIdle {
		t.Fatalf("expected idle after panic, got %s", state.Status)
	}
	if state.Errors[model.ErrorKeySubmit] != "An error occurred during login. Please try again." {
		t.Fatalf("unexpected submit error %q", state.Errors[model.ErrorKeySubmit])
	}
}

func TestSubmitMissingUserFallsBack(t *testing.T) {
	auth := &fakeAuth{resp: model.AuthResponse{Success: true}}
	c := newTestController(t, model.AuthLogin, auth)
	c.OnFieldChange(model.FieldEmail, "alice@example.com")
	c.OnFieldChange(model.FieldPassword, "pw")

	if got := c.Submit(context.Background()); got != SubmitFailed {
		t.Fatalf("expected failure, got %s", got)
	}
	if got := c.State().Errors[model.ErrorKeySubmit]; got != FallbackMessage(model.AuthLogin) {
		t.Fatalf("unexpected submit error %q", got)
	}
}

func TestLoginSuccessNavigatesWithWelcome(t *testing.T) {
	auth := &fakeAuth{resp: userResponse("bob")}
	nav := &recordingNav{}
	c := newTestController(t, model.AuthLogin, auth, WithNavigator(nav))
	c.OnFieldChange(model.FieldEmail, "bob@example.com")
	c.OnFieldChange(model.FieldPassword, "pw")

	if got := c.Submit(context.Background()); got != SubmitSucceeded {
		t.Fatalf("expected success, got %s", got)
	}
	if nav.calls != 1 || nav.path != LandingPath {
		t.Fatalf("expected one navigation to %q, got %+v", LandingPath, nav)
	}
	if nav.message != "Welcome back, bob! 🎉" {
		t.Fatalf("unexpected welcome message %q", nav.message)
	}
	state := c.State()
	if state.SuccessMessage != "" {
		t.Fatalf("login does not set a success message, got %q", state.SuccessMessage)
	}
	if state.Status != model.StatusIdle {
		t.Fatalf("expected idle status, got %s", state.Status)
	}
}

func TestSubmittingStateDuringCall(t *testing.T) {
	auth := &fakeAuth{resp: userResponse("alice")}
	c := newTestController(t, model.AuthSignup, auth)
	fillSignup(c, "alice@example.com", "password123", "password123")

	var seen model.AuthFormState
	var nested SubmitResult
	auth.during = func() {
		seen = c.State()
		nested = c.Submit(context.Background())
	}

	c.Submit(context.Background())
	if seen.Status != model.StatusSubmitting || !seen.Disabled() {
		t.Fatalf("expected submitting state during the call, got %s", seen.Status)
	}
	if nested != SubmitBusy {
		t.Fatalf("expected concurrent submit to be refused, got %s", nested)
	}
	if n := auth.callCount(); n != 1 {
		t.Fatalf("expected exactly one API call, got %d", n)
	}
	state := c.State()
	if state.Status != model.StatusIdle {
		t.Fatal("expected idle after the call settled")
	}
	if got := state.Value(model.FieldEmail); got != "" {
		t.Fatalf("expected fields cleared after signup, got %q", got)
	}
}

func TestEditsIgnoredWhileSubmitting(t *testing.T) {
	auth := &fakeAuth{err: errors.New("backend down")}
	c := newTestController(t, model.AuthLogin, auth)
	c.OnFieldChange(model.FieldEmail, "alice@example.com")
	c.OnFieldChange(model.FieldPassword, "password123")

	auth.during = func() {
		c.OnFieldChange(model.FieldEmail, "changed@example.com")
	}
	if got := c.Submit(context.Background()); got != SubmitFailed {
		t.Fatalf("expected failed submit, got %s", got)
	}
	if got := c.State().Value(model.FieldEmail); got != "alice@example.com" {
		t.Fatalf("expected in-flight edit to be ignored, got %q", got)
	}
}

func TestSubmitLogsOmitEmailAddress(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("test", logging.DEBUG, &buf)

	ok := newTestController(t, model.AuthLogin, &fakeAuth{resp: userResponse("alice")}, WithLogger(logger))
	ok.OnFieldChange(model.FieldEmail, "alice@example.com")
	ok.OnFieldChange(model.FieldPassword, "password123")
	ok.Submit(context.Background())

	failed := newTestController(t, model.AuthLogin, &fakeAuth{err: errors.New("refused")}, WithLogger(logger))
	failed.OnFieldChange(model.FieldEmail, "bob@mail.example.org")
	failed.OnFieldChange(model.FieldPassword, "password123")
	failed.Submit(context.Background())

	out := buf.String()
	for _, leaked := range []string{"alice@example.com", "bob@mail.example.org", "password123"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("log output contains %q: %s", leaked, out)
		}
	}
	if !strings.Contains(out, `"email_domain":"example.com"`) || !strings.Contains(out, `"email_domain":"mail.example.org"`) {
		t.Fatalf("expected email domains in log output: %s", out)
	}
}

func TestEmailDomain(t *testing.T) {
	for in, want := range map[string]string{
		"alice@example.com": "example.com",
		"a@b@example.org":   "example.org",
		"no-at-sign":        "",
	} {
		if got := emailDomain(in); got != want {
			t.Fatalf("emailDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResetRestoresMountState(t *testing.T) {
	c := newTestController(t, model.AuthLogin, &fakeAuth{})
	c.OnFieldChange(model.FieldEmail, "bad")
	c.Submit(context.Background())
	c.Reset()

	state := c.State()
	if diff := cmp.Diff(model.EmptyValues(model.AuthLogin), state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !state.Errors.Empty() {
		t.Fatalf("expected no errors, got %+v", state.Errors)
	}
}

func TestStateIsACopy(t *testing.T) {
	c := newTestController(t, model.AuthLogin, &fakeAuth{})
	state := c.State()
	state.Values[model.FieldEmail] = "mutated"
	state.Errors[model.FieldEmail] = "mutated"
	if got := c.State(); got.Values[model.FieldEmail] != "" || !got.Errors.Empty() {
		t.Fatalf("snapshot mutation leaked into controller: %+v", got)
	}
}
