package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestStatusKind(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusOK, want: nil},
		{status: http.StatusCreated, want: nil},
		{status: http.StatusNoContent, want: nil},
		{status: http.StatusUnauthorized, want: ErrAuthentication},
		{status: http.StatusForbidden, want: ErrAuthorization},
		{status: http.StatusNotFound, want: ErrNotFound},
		{status: http.StatusUnprocessableEntity, want: ErrNetwork},
		{status: http.StatusInternalServerError, want: ErrNetwork},
		{status: http.StatusMovedPermanently, want: ErrNetwork},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			if got := StatusKind(tc.status); got != tc.want {
				t.Errorf("StatusKind(%d) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestTypedErrors(t *testing.T) {
	t.Run("ValidationError unwraps to ErrValidation", func(t *testing.T) {
		err := fmt.Errorf("create: %w", NewValidationError("name", "must not be empty"))

		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected errors.Is(err, ErrValidation), got %v", err)
		}

		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "name" {
			t.Errorf("expected ValidationError for field name, got %v", err)
		}
	})

	t.Run("StatusError unwraps to its kind", func(t *testing.T) {
		err := &StatusError{Method: "GET", Path: "/playlists/1", Status: 403, Detail: "Not authorized", Kind: ErrAuthorization}

		if !errors.Is(err, ErrAuthorization) {
			t.Error("expected StatusError to unwrap to ErrAuthorization")
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("403 must not be reported as not found")
		}
		if !strings.Contains(err.Error(), "Not authorized") {
			t.Errorf("expected detail in message, got %s", err.Error())
		}
	})

	t.Run("RollbackFailure unwraps to ErrRollback", func(t *testing.T) {
		err := errors.Join(ErrNetwork, &RollbackFailure{MutationID: "abc", Reason: "playlist evicted"})

		if !errors.Is(err, ErrRollback) {
			t.Error("expected joined error to contain ErrRollback")
		}
		if !errors.Is(err, ErrNetwork) {
			t.Error("expected joined error to keep the original cause")
		}
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "playlist not found", err: &StatusError{Method: "GET", Path: "/playlists/9", Status: 404, Kind: ErrNotFound}, want: "Playlist not found."},
		{name: "track not found", err: &StatusError{Method: "GET", Path: "/tracks/999", Status: 404, Kind: ErrNotFound}, want: "Track not found."},
		{name: "track missing from playlist", err: &StatusError{Method: "DELETE", Path: "/playlists/1/tracks/7", Status: 404, Kind: ErrNotFound}, want: "Track is not in this playlist."},
		{name: "add to missing playlist", err: &StatusError{Method: "POST", Path: "/playlists/9/tracks", Status: 404, Kind: ErrNotFound}, want: "Playlist or track not found."},
		{name: "not found without a path", err: ErrNotFound, want: "Not found."},
		{name: "forbidden read", err: &StatusError{Method: "GET", Path: "/playlists/2", Status: 403, Kind: ErrAuthorization}, want: "You are not authorized to view this playlist."},
		{name: "forbidden rename", err: &StatusError{Method: "PATCH", Path: "/playlists/2", Status: 403, Kind: ErrAuthorization}, want: "You are not authorized to change this playlist."},
		{name: "forbidden without a path", err: ErrAuthorization, want: "You are not authorized to do that."},
		{name: "network", err: fmt.Errorf("%w: dial tcp", ErrNetwork), want: "The request failed. Please try again."},
		{name: "validation", err: NewValidationError("name", "must not be empty"), want: "validation failed: name must not be empty"},
		{name: "rollback wins over cause", err: errors.Join(ErrNetwork, &RollbackFailure{MutationID: "x"}), want: "Something went wrong and the list could not be restored. Reload to see the current state."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Describe(tc.err); got != tc.want {
				t.Errorf("Describe() = %q, want %q", got, tc.want)
			}
		})
	}
}
