package forms

import (
	"regexp"
	"unicode/utf16"

	"github.com/learnup/learnup/internal/ui/model"
)

// MinPasswordLength is the shortest password accepted on signup.
const MinPasswordLength = 8

// Field-level validation messages.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 8 characters long"
	MsgConfirmRequired  = "Please confirm your password"
	MsgPasswordMismatch = "Passwords do not match"
)

// emailPart matches a run of characters that are neither '@' nor whitespace.
// RE2's \s is ASCII only, so vertical tab, the Unicode space separators and
// the byte order mark are excluded explicitly.
const emailPart = `[^\s\v\p{Z}\x{FEFF}@]+`

// emailPattern is a shape check (local@domain.tld), not an RFC 5322 validator.
var emailPattern = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)

// ValidEmail reports whether value looks like an e-mail address.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// ValidateAuthForm checks values against the rules of the given form kind and
// returns the failing fields only. An empty result means the form is valid.
// Values are checked as typed; no trimming happens here.
func ValidateAuthForm(kind model.AuthKind, values model.FormValues) model.FieldErrors {
	errs := make(model.FieldErrors)

	email := values[model.FieldEmail]
	switch {
	case email == "":
		errs[model.FieldEmail] = MsgEmailRequired
	case !ValidEmail(email):
		errs[model.FieldEmail] = MsgEmailInvalid
	}

	password := values[model.FieldPassword]
	switch {
	case password == "":
		errs[model.FieldPassword] = MsgPasswordRequired
	case kind == model.AuthSignup && passwordLength(password) < MinPasswordLength:
		errs[model.FieldPassword] = MsgPasswordTooShort
	}

	if kind == model.AuthSignup {
		confirm := values[model.FieldConfirmPassword]
		switch {
		case confirm == "":
			errs[model.FieldConfirmPassword] = MsgConfirmRequired
		case confirm != password:
			errs[model.FieldConfirmPassword] = MsgPasswordMismatch
		}
	}

	return errs
}

// passwordLength counts UTF-16 code units, the unit browsers report for an
// input's value length.
func passwordLength(password string) int {
	return len(utf16.Encode([]rune(password)))
}
