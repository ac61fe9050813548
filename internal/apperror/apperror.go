// Package apperror defines the application's error taxonomy.
//
// Services return these errors instead of raw database or library errors.
// The HTTP layer maps each sentinel to a status code in exactly one place
// (handler.writeError), so the taxonomy stays transport-agnostic: a service
// returns "conflict", not "409".
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error category. Callers classify an error with
// errors.Is(err, apperror.ErrNotFound) etc., which walks the wrap chain.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// AppError pairs a sentinel with a human-readable message.
//
// The sentinel (Err) drives machine behaviour — status code mapping, retry
// decisions. The Message is what a client sees. Keeping them separate means
// the message can say "username already taken" while errors.Is still matches
// ErrConflict.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable error message
	Field   string // optional: input field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound returns an AppError for a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed returns an AppError for a missing or malformed input field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict returns an AppError for a uniqueness violation.
func Conflict(resource, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, value),
	}
}

// Unauthenticated returns an AppError for a failed identity check.
// HTTP handlers map this to 401. The message should stay generic — the
// detailed reason (expired token, wrong password) belongs in the logs, not
// in the response.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}
