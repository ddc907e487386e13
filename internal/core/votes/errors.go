package votes

import (
	"errors"
	"fmt"
)

var (
	// ErrVoteNotFound indicates the requested vote doesn't exist
	ErrVoteNotFound = errors.New("vote not found")

	// ErrSubjectNotFound indicates the comment being voted on doesn't exist or was deleted
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrInvalidDirection indicates the vote direction is not "up" or "down"
	ErrInvalidDirection = errors.New("invalid vote direction: must be 'up' or 'down'")

	// ErrInvalidSubject indicates the subject id or kind is malformed
	ErrInvalidSubject = errors.New("invalid subject")

	// ErrVoteAlreadyExists indicates a concurrent vote won the unique constraint
	ErrVoteAlreadyExists = errors.New("vote already exists")
)

// ValidationError represents a field-level validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrInvalidSubject)
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVoteNotFound) || errors.Is(err, ErrSubjectNotFound)
}
