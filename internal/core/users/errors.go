package users

import (
	"errors"
	"fmt"
)

// Sentinel errors for common user operations
var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrHandleAlreadyTaken is returned when attempting to use a handle that belongs to another user
	ErrHandleAlreadyTaken = errors.New("handle already taken")
)

type InvalidHandleError struct {
	Handle string
	Reason string
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("invalid handle %q: %s", e.Handle, e.Reason)
}

// InvalidIDError is returned when a user id is not a UUID
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid user id %q", e.ID)
}

// IsValidationError reports whether err is caused by bad input
func IsValidationError(err error) bool {
	var handleErr *InvalidHandleError
	var idErr *InvalidIDError
	return errors.As(err, &handleErr) || errors.As(err, &idErr)
}
