package state

import (
	"errors"
	"regexp"
)

const (
	MinPasswordLength = 6

	// RegisteredMessage is shown after a successful registration.
	RegisteredMessage = "Registration successful! Please log in."
)

var (
	ErrInvalidEmail  = errors.New("Please enter a valid email address.")
	ErrShortPassword = errors.New("Password must be at least 6 characters long.")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidateCredentials runs the checks made before a login or register
// request is sent.
func ValidateCredentials(email, password string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrShortPassword
	}
	return nil
}
