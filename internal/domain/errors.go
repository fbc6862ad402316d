package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access denied")

	// ErrCyclicMove is returned when a folder would become its own ancestor.
	ErrCyclicMove = errors.New("folder cannot be moved into itself or its descendants")

	// ErrNotEmpty is returned by a non-recursive delete of a folder with contents.
	ErrNotEmpty = errors.New("folder is not empty")

	// ErrInvalidState signals a corrupted tree (orphaned parent pointer or a loop).
	ErrInvalidState = errors.New("invalid tree state")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // folder, file, grant
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StatusCodeFor maps a domain error to an HTTP status code.
func StatusCodeFor(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}

	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotEmpty):
		return http.StatusConflict
	case errors.Is(err, ErrCyclicMove):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
