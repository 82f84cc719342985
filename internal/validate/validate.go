// Package validate holds the client-side form rules. A failing rule blocks
// the action before anything is sent to the backend.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-cvassist-client/internal/models"
)

const (
	MinPasswordLength    = 6
	MaxEmailLength       = 255
	MaxQuestionLength    = 500
	MaxJobDescriptionLen = 5000
)

var emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ErrInvalid matches every *FieldError.
var ErrInvalid = errors.New("invalid input")

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// CleanText normalizes to NFC and strips control characters except newlines
// and tabs.
func CleanText(s string) string {
	t := transform.Chain(
		norm.NFC,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.IsControl(r) && r != '\n' && r != '\t'
		})),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

// Email returns the normalized address.
func Email(email string) (string, error) {
	email = CleanText(email)
	if email == "" {
		return "", invalid("email", "please enter your email")
	}
	if len(email) > MaxEmailLength {
		return "", invalid("email", fmt.Sprintf("must be at most %d characters", MaxEmailLength))
	}
	if !emailRegex.MatchString(email) {
		return "", invalid("email", "please enter a valid email")
	}
	return email, nil
}

func Password(password string) error {
	if password == "" {
		return invalid("password", "please enter your password")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Signup checks the signup form: email, password and its confirmation.
func Signup(email, password, confirm string) (string, error) {
	normalized, err := Email(email)
	if err != nil {
		return "", err
	}
	if err := Password(password); err != nil {
		return "", err
	}
	if password != confirm {
		return "", invalid("confirm_password", "passwords do not match")
	}
	return normalized, nil
}

// Login only requires both fields; password length is the server's business
// for existing accounts.
func Login(email, password string) (string, error) {
	normalized, err := Email(email)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", invalid("password", "please enter your password")
	}
	return normalized, nil
}

func Question(q string) (string, error) {
	q = CleanText(q)
	if q == "" {
		return "", invalid("question", "please enter a question")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return "", invalid("question", fmt.Sprintf("must be at most %d characters", MaxQuestionLength))
	}
	return q, nil
}

func JobDescription(jd string) (string, error) {
	jd = CleanText(jd)
	if jd == "" {
		return "", invalid("job_description", "please paste the job description")
	}
	if utf8.RuneCountInString(jd) > MaxJobDescriptionLen {
		return "", invalid("job_description", fmt.Sprintf("must be at most %d characters", MaxJobDescriptionLen))
	}
	return jd, nil
}

func ApplicationType(t string) (models.ApplicationType, error) {
	at := models.ApplicationType(strings.ToLower(strings.TrimSpace(t)))
	if !at.Valid() {
		return "", invalid("application_type", "must be cover_letter or email")
	}
	return at, nil
}
