package apperror

import (
	"errors"
	"fmt"
)

// Sentinel categories for the API error taxonomy. Handlers wrap or return
// these and the central fiber ErrorHandler maps them to HTTP statuses.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrBadParameter    = errors.New("bad parameter")
)

// Unauthenticated wraps cause as an authentication failure (HTTP 401).
func Unauthenticated(cause error) error {
	if cause == nil {
		return ErrUnauthenticated
	}
	return fmt.Errorf("%w: %v", ErrUnauthenticated, cause)
}

// NotFound marks a missing owned resource (HTTP 404).
func NotFound(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// Validation wraps a model constraint violation (HTTP 422).
func Validation(cause error) error {
	if cause == nil {
		return ErrValidation
	}
	return fmt.Errorf("%w: %v", ErrValidation, cause)
}

// BadParameter marks a malformed or missing request parameter (HTTP 400).
func BadParameter(name string) error {
	return fmt.Errorf("%w: %s", ErrBadParameter, name)
}
