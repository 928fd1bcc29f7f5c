// Package apperrors defines the error taxonomy shared by the repository,
// service and HTTP layers, and the single mapping to response status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrNotFound        = errors.New("issue not found")
)

// ValidationError names the first offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a status change outside the transition graph.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition issue from %q to %q", e.From, e.To)
}

// StorageError wraps an image or document persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// HTTPStatus maps a taxonomy error to its response code. Anything outside
// the taxonomy is an opaque internal error.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var te *InvalidTransitionError
	switch {
	case errors.As(err, &ve) || errors.As(err, &te):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
