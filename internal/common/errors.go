// Package common defines shared sentinel errors, typed errors and small
// helpers used across the to-do list server and its operator tooling.
// Callers should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrorUnauthorized is returned to JSON clients that are not signed in.
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by login and password checks. It never
	// says whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConfirmationRequired is returned when a sensitive operation is
	// attempted without a recent password confirmation.
	ErrConfirmationRequired = errors.New("password confirmation required")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Field names reported in validation errors. They double as flash keys for
// the server-rendered pages.
const (
	FieldUsername                = "username"
	FieldUsernameUnavailable     = "username-unavailable"
	FieldPassword                = "password"
	FieldPasswordConfirmation    = "password-confirmation"
	FieldCurrentPassword         = "current-password"
	FieldNewPassword             = "new-password"
	FieldNewPasswordConfirmation = "new-password-confirmation"
	FieldDescription             = "description"
	FieldCompleted               = "completed"
	FieldMigrationName           = "name"
)

// ValidationError reports malformed user input field by field.
type ValidationError struct {
	Fields []string
}

// NewValidationError returns nil when no fields are given, so it can be used
// as the final return of a validation routine.
func NewValidationError(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Fields, ", ")
}

// Has reports whether the given field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// StorageError wraps a datastore failure. The wrapped error is meant for
// operator logs only and must not be shown to end users.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage error: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
