package domain

import "errors"

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrUserExists         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// ErrTodoNotFound is also returned when the item exists but belongs to
	// another user.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrRequestInProgress is returned while another create holding the
	// same Idempotency-Key has not finished.
	ErrRequestInProgress = errors.New("a request with this idempotency key is still in progress")
)

// ValidationError describes a missing or malformed input field.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
