package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when the normalized email already belongs to an account
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrInvalidCredentials is the only sign-in failure callers ever see
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned when a request carries no valid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotConfigured signals that a backend required by the operation is absent
	ErrNotConfigured = errors.New("backend not configured")

	// ErrUpstream wraps failures of the external gateway or model provider
	ErrUpstream = errors.New("upstream service unavailable")
)

// ValidationError carries the first violated input constraint
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotConfiguredError is an ErrNotConfigured with an operator-facing explanation
type NotConfiguredError struct {
	Message string
}

func (e *NotConfiguredError) Error() string {
	return e.Message
}

func (e *NotConfiguredError) Unwrap() error {
	return ErrNotConfigured
}
