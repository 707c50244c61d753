package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Error taxonomy for the API client and mutation layer
	ErrValidation     = fmt.Errorf("validation failed")
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrAuthorization  = fmt.Errorf("not authorized")
	ErrNotFound       = fmt.Errorf("not found")
	ErrNetwork        = fmt.Errorf("network request failed")
	ErrRollback       = fmt.Errorf("rollback failed")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ValidationError is raised locally, before any request reaches the server.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a [ValidationError] for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StatusError is an API response outside the 2xx range.
//
// Kind is one of [ErrAuthentication], [ErrAuthorization], [ErrNotFound] or [ErrNetwork].
type StatusError struct {
	Method string
	Path   string
	Status int
	Detail string
	Kind   error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%v: %s %s returned %d", e.Kind, e.Method, e.Path, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.Kind }

// StatusKind maps an HTTP status code onto the error taxonomy. Returns nil for 2xx.
func StatusKind(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrAuthentication
	case status == http.StatusForbidden:
		return ErrAuthorization
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrNetwork
	}
}

// RollbackFailure reports an optimistic mutation whose snapshot could not be restored.
type RollbackFailure struct {
	MutationID string
	Reason     string
}

func (e *RollbackFailure) Error() string {
	return fmt.Sprintf("%v: mutation %s: %s", ErrRollback, e.MutationID, e.Reason)
}

func (e *RollbackFailure) Unwrap() error { return ErrRollback }

// Describe converts an error into the message shown to the user.
func Describe(err error) string {
	var validation *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Error()
	case errors.Is(err, ErrRollback):
		return "Something went wrong and the list could not be restored. Reload to see the current state."
	case errors.Is(err, ErrNotAuthenticated):
		return "You are not logged in. Run 'spotish auth login' first."
	case errors.Is(err, ErrAuthentication):
		return "Your credentials were rejected. Log in again."
	case errors.Is(err, ErrAuthorization):
		return describeForbidden(err)
	case errors.Is(err, ErrNotFound):
		return describeNotFound(err)
	case errors.Is(err, ErrNetwork):
		return "The request failed. Please try again."
	default:
		return err.Error()
	}
}

// resource reports what a failed request addressed ("playlist", "track", "playlist track" or "") and its method.
func resource(err error) (kind, method string) {
	var se *StatusError
	if !errors.As(err, &se) {
		return "", ""
	}
	for _, seg := range strings.Split(strings.Trim(se.Path, "/"), "/") {
		switch seg {
		case "playlists":
			if kind == "" {
				kind = "playlist"
			}
		case "tracks":
			if kind == "playlist" {
				kind = "playlist track"
			} else {
				kind = "track"
			}
		}
	}
	return kind, se.Method
}

func describeNotFound(err error) string {
	switch kind, method := resource(err); kind {
	case "playlist":
		return "Playlist not found."
	case "track":
		return "Track not found."
	case "playlist track":
		if method == http.MethodDelete {
			return "Track is not in this playlist."
		}
		return "Playlist or track not found."
	default:
		return "Not found."
	}
}

func describeForbidden(err error) string {
	switch kind, method := resource(err); kind {
	case "playlist", "playlist track":
		if method == http.MethodGet {
			return "You are not authorized to view this playlist."
		}
		return "You are not authorized to change this playlist."
	case "track":
		return "You are not authorized to view this track."
	default:
		return "You are not authorized to do that."
	}
}
