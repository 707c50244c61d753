package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/spotish/internal/shared"
	tu "github.com/desertthunder/spotish/internal/testing"
)

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Authenticator, *tu.Backend) {
		t.Helper()
		backend := tu.NewBackend(t)
		backend.AddUser("ada@example.com", "hunter2")
		g := NewGateway(GatewayOpts{BaseURL: backend.URL(), HTTPClient: backend.Client()})
		return NewAuthenticator(g, nil), backend
	}

	t.Run("Login", func(t *testing.T) {
		t.Run("Valid Credentials", func(t *testing.T) {
			auth, backend := setup(t)

			token, user, err := auth.Login(ctx, " ada@example.com ", "hunter2")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token == "" {
				t.Error("expected token")
			}
			if user.Email != "ada@example.com" || user.ID == 0 {
				t.Errorf("unexpected user %+v", user)
			}

			var me tu.Request
			for _, r := range backend.Requests() {
				if r.Path == "/users/me" {
					me = r
				}
			}
			if me.Authorization != "Bearer "+token {
				t.Errorf("expected /users/me to carry the new token, got %q", me.Authorization)
			}
		})

		t.Run("Wrong Password", func(t *testing.T) {
			auth, backend := setup(t)

			_, _, err := auth.Login(ctx, "ada@example.com", "wrong")
			if !errors.Is(err, shared.ErrAuthentication) {
				t.Fatalf("expected authentication error, got %v", err)
			}
			if !strings.Contains(err.Error(), "Incorrect email or password") {
				t.Errorf("expected server detail in error, got %v", err)
			}
			if backend.Count(http.MethodGet, "/users/me") != 0 {
				t.Error("expected no user lookup after a rejected login")
			}
		})

		t.Run("Missing Fields", func(t *testing.T) {
			auth, backend := setup(t)

			if _, _, err := auth.Login(ctx, "  ", "pw"); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error for email, got %v", err)
			}
			if _, _, err := auth.Login(ctx, "ada@example.com", ""); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error for password, got %v", err)
			}
			if len(backend.Requests()) != 0 {
				t.Error("expected no requests")
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			auth, backend := setup(t)
			backend.Fail(http.MethodPost, "/token", http.StatusInternalServerError)

			_, _, err := auth.Login(ctx, "ada@example.com", "hunter2")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected network error, got %v", err)
			}
		})

		t.Run("User Lookup Fails", func(t *testing.T) {
			auth, backend := setup(t)
			backend.Fail(http.MethodGet, "/users/me", http.StatusInternalServerError)

			token, user, err := auth.Login(ctx, "ada@example.com", "hunter2")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected network error, got %v", err)
			}
			if token != "" || user != nil {
				t.Error("expected no partial result")
			}
		})
	})
}
