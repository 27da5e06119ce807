package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidUserID      = fmt.Errorf("%w: malformed user id", ErrInvalidInput)
	ErrUserExists         = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	// ErrMissingCredentials is returned when an admin login omits a field.
	ErrMissingCredentials = fmt.Errorf("%w: email and password are required", ErrInvalidInput)

	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field that failed validation. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "Validation Error: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Merge appends the failures of other for fields e does not already report.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	seen := make(map[string]struct{}, len(e.Fields))
	for _, f := range e.Fields {
		seen[f.Field] = struct{}{}
	}
	for _, f := range other.Fields {
		if _, ok := seen[f.Field]; ok {
			continue
		}
		seen[f.Field] = struct{}{}
		e.Fields = append(e.Fields, f)
	}
}
