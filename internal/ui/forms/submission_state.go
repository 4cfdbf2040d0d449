package forms

import (
	"fmt"
	"sync"

	"github.com/learnup/learnup/internal/ui/model"
)

// SignupSuccessMessage is shown after an account has been created.
func SignupSuccessMessage(username string) string {
	return fmt.Sprintf("Welcome, %s! Your account has been created successfully.", username)
}

// LoginWelcomeMessage is carried to the landing page after a login.
func LoginWelcomeMessage(username string) string {
	return fmt.Sprintf("Welcome back, %s! 🎉", username)
}

// FallbackMessage is the submit error used when a failure carries no message.
func FallbackMessage(kind model.AuthKind) string {
	return fmt.Sprintf("An error occurred during %s. Please try again.", kind.Label())
}

// resetLocked puts the form in its mount state. Callers hold c.mu.
func (c *Controller) resetLocked() {
	c.clearFieldsLocked()
	c.success = ""
}

// clearFieldsLocked blanks every value and drops all errors. Callers hold c.mu.
func (c *Controller) clearFieldsLocked() {
	c.values = model.EmptyValues(c.kind)
	c.errors = make(model.FieldErrors)
}

// beginSubmitLocked marks the form as submitting and returns the release that
// puts it back to idle. Callers hold c.mu; the release takes it itself and is
// safe to call more than once.
func (c *Controller) beginSubmitLocked() (release func()) {
	c.status = model.StatusSubmitting
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.status = model.StatusIdle
			c.mu.Unlock()
		})
	}
}
