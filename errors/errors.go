package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the session subsystem.
var (
	// ErrSessionNotFound is the explicit not-found result for session
	// lookups. Repositories return it instead of raw driver errors so
	// callers can branch on it without string matching.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProfileNotFound is returned when no profile document exists for
	// a uid. The auth state publisher treats it as "no profile yet", not
	// as a failure.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotAuthenticated is returned by operations that require a
	// signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// PersistenceError wraps a document-store failure (connectivity,
// permissions). Callers log it and degrade to a safe default instead of
// surfacing it to the UI.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err with the failing operation name.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// APIError is the standardized JSON error body returned by the HTTP API.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Standard API error codes.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeNotFound        = "not_found"
	CodeInvalidRequest  = "invalid_request"
	CodeServerError     = "server_error"
)

func NewUnauthenticated(description string) *APIError {
	return &APIError{Code: CodeUnauthenticated, Description: description}
}

func NewNotFound(description string) *APIError {
	return &APIError{Code: CodeNotFound, Description: description}
}

func NewInvalidRequest(description string) *APIError {
	return &APIError{Code: CodeInvalidRequest, Description: description}
}

func NewServerError(description string) *APIError {
	return &APIError{Code: CodeServerError, Description: description}
}
