package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is matched by every error kind that means "the remote thing
// does not exist": a 404 GraphError and a NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrCounterStateMissing is returned by a CounterStore that has never persisted a value.
var ErrCounterStateMissing = errors.New("reference counter state missing")

// ConfigurationError reports missing or invalid configuration for a request.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Reason)
}

// AuthenticationError reports a failed client-credentials exchange.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// GraphError reports a non-2xx response from Microsoft Graph.
type GraphError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       string
}

func (e *GraphError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("graph %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// NotFound reports whether the remote resource does not exist.
func (e *GraphError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *GraphError) Is(target error) bool {
	return target == ErrNotFound && e.NotFound()
}

// ValidationError reports caller input that violates a precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a named remote resource missing from its container.
type NotFoundError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q not found; available: [%s]", e.Kind, e.Name, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
