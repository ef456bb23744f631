package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when the user has not attempted the quiz.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrNoParticipants is returned when a quiz has no attempts at all.
	ErrNoParticipants = errors.New("no participants found for this quiz")
	// ErrAttemptExpired is returned when a submission arrives after the quiz duration.
	ErrAttemptExpired = errors.New("quiz attempt expired")
	// ErrUnauthenticated means the caller presented no valid credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUserExists is returned on signup with a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a username is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation is the parent of every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrNoParticipants) ||
		errors.Is(err, ErrUserNotFound)
}
