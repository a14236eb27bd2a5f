// Package apperror defines the domain errors shared by the repository,
// service and handler layers.
//
// Every failure the API can report falls into one of four kinds:
//
//	ErrValidation   → 400  missing or malformed input
//	ErrNotFound     → 404  a required record does not exist
//	ErrUnauthorized → 401  the access token is absent or stale
//	anything else   → 500  storage failure, detail logged server-side only
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel the error matches with errors.Is
	Message string // Human-readable error message, safe to send to clients
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for a missing or invalid access token.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
