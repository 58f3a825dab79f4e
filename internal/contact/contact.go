// Package contact validates and normalises contact form submissions.
package contact

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"portfolio/api/internal/markup"
)

const (
	maxNameLength    = 200
	maxEmailLength   = 320
	maxMessageLength = 5000
)

var (
	ErrMissingFields = errors.New("All fields are required")
	ErrInvalidEmail  = errors.New("Invalid email format")
	ErrTooLong       = errors.New("Message is too long")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Submission is the raw form input.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Normalize validates the submission and returns a cleaned copy: fields
// trimmed, email lowercased, markup stripped from name and message.
func Normalize(in Submission) (Submission, error) {
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return Submission{}, ErrMissingFields
	}
	if !emailPattern.MatchString(in.Email) {
		return Submission{}, ErrInvalidEmail
	}

	out := Submission{
		Name:    markup.PlainText(strings.TrimSpace(in.Name)),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Message: markup.PlainText(strings.TrimSpace(in.Message)),
	}
	if out.Name == "" || out.Message == "" {
		return Submission{}, ErrMissingFields
	}
	if utf8.RuneCountInString(out.Name) > maxNameLength ||
		utf8.RuneCountInString(out.Email) > maxEmailLength ||
		utf8.RuneCountInString(out.Message) > maxMessageLength {
		return Submission{}, ErrTooLong
	}
	return out, nil
}
