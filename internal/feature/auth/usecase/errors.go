// Package usecase implements the business logic for the auth feature.
package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("invalid input")

	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRecoveryToken is returned when no user holds the presented recovery token,
	// including when the token has already been consumed.
	ErrInvalidRecoveryToken = errors.New("invalid or expired recovery token")

	// ErrInternal wraps store, hashing and signing failures.
	// Its message is the only thing callers may show to clients.
	ErrInternal = errors.New("internal error")
)

// internalError tags err as ErrInternal while keeping the cause for logging.
func internalError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
