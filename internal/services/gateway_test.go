package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotish/internal/shared"
	tu "github.com/desertthunder/spotish/internal/testing"
)

// mutableToken is a [TokenSource] whose token can change between requests.
type mutableToken struct {
	mu    sync.Mutex
	token string
}

func (m *mutableToken) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mutableToken) Set(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
}

func TestGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("With Defaults", func(t *testing.T) {
			g := NewGateway(GatewayOpts{})

			if g.BaseURL() != "http://localhost:8000" {
				t.Errorf("expected default baseURL, got %s", g.BaseURL())
			}
			if g.HTTPClient() != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if g.limiter != nil {
				t.Error("expected no limiter when rate limit is zero")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com/"})
			if g.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", g.BaseURL())
			}
		})

		t.Run("With Rate Limit", func(t *testing.T) {
			g := NewGateway(GatewayOpts{RateLimit: 2})
			if g.limiter == nil {
				t.Error("expected limiter to be configured")
			}
		})
	})

	t.Run("NewRequest", func(t *testing.T) {
		t.Run("Applies Default Headers", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", UserAgent: "spotish/test"})
			req, err := g.NewRequest(ctx, http.MethodGet, "/tracks/", nil, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := req.Header.Get("Accept"); got != "application/json" {
				t.Errorf("expected Accept header, got %q", got)
			}
			if got := req.Header.Get("User-Agent"); got != "spotish/test" {
				t.Errorf("expected User-Agent header, got %q", got)
			}
			if got := req.Header.Get("Authorization"); got != "" {
				t.Errorf("expected no Authorization header, got %q", got)
			}
			if req.URL.String() != "http://example.com/tracks/" {
				t.Errorf("unexpected URL %s", req.URL)
			}
		})

		t.Run("Encodes Query", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com"})
			req, err := g.NewRequest(ctx, http.MethodGet, "/tracks/search", map[string][]string{"q": {"blue moon"}}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if req.URL.RawQuery != "q=blue+moon" {
				t.Errorf("unexpected query %q", req.URL.RawQuery)
			}
		})

		t.Run("Authorization Follows Token Source", func(t *testing.T) {
			tokens := &mutableToken{}
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", Tokens: tokens})

			check := func(want string) {
				t.Helper()
				req, err := g.NewRequest(ctx, http.MethodGet, "/playlists/", nil, nil)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got := req.Header.Get("Authorization"); got != want {
					t.Errorf("expected Authorization %q, got %q", want, got)
				}
			}

			check("")
			tokens.Set("abc")
			check("Bearer abc")
			tokens.Set("")
			check("")
			tokens.Set("def")
			check("Bearer def")
		})

		t.Run("WithToken Leaves Original Untouched", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", Tokens: StaticToken("")})
			scoped := g.WithToken("scoped")

			req, _ := scoped.NewRequest(ctx, http.MethodGet, "/users/me", nil, nil)
			if got := req.Header.Get("Authorization"); got != "Bearer scoped" {
				t.Errorf("expected scoped token, got %q", got)
			}

			req, _ = g.NewRequest(ctx, http.MethodGet, "/users/me", nil, nil)
			if got := req.Header.Get("Authorization"); got != "" {
				t.Errorf("expected original gateway unchanged, got %q", got)
			}
		})

		t.Run("Invalid Method", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com"})
			_, err := g.NewRequest(ctx, "BAD METHOD", "/", nil, nil)
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected request creation error, got %v", err)
			}
		})
	})

	t.Run("Do", func(t *testing.T) {
		t.Run("Decodes JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %q", ct)
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != `{"name":"Focus"}` {
					t.Errorf("unexpected body %s", body)
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id": 7, "name": "Focus"}`))
			}))
			defer server.Close()

			g := NewGateway(GatewayOpts{BaseURL: server.URL})
			var out struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			}
			if err := g.Post(ctx, "/playlists/", map[string]string{"name": "Focus"}, &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out.ID != 7 || out.Name != "Focus" {
				t.Errorf("unexpected response %+v", out)
			}
		})

		t.Run("No Content", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			g := NewGateway(GatewayOpts{BaseURL: server.URL})
			var out map[string]any
			if err := g.Delete(ctx, "/playlists/1", &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out != nil {
				t.Errorf("expected nothing decoded, got %v", out)
			}
		})

		tests := []struct {
			name   string
			status int
			body   string
			kind   error
			detail string
		}{
			{"Unauthorized", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, shared.ErrAuthentication, "Could not validate credentials"},
			{"Forbidden", http.StatusForbidden, `{"detail":"Not authorized"}`, shared.ErrAuthorization, "Not authorized"},
			{"Not Found", http.StatusNotFound, `{"detail":"Playlist not found"}`, shared.ErrNotFound, "Playlist not found"},
			{"Server Error", http.StatusInternalServerError, `oops`, shared.ErrNetwork, "oops"},
			{"Unprocessable", http.StatusUnprocessableEntity, `{"detail":[{"msg":"too short"},{"msg":"bad"}]}`, shared.ErrNetwork, "too short; bad"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				g := NewGateway(GatewayOpts{BaseURL: server.URL})
				err := g.Get(ctx, "/playlists/9", nil, nil)

				if !errors.Is(err, tt.kind) {
					t.Fatalf("expected %v, got %v", tt.kind, err)
				}

				var se *shared.StatusError
				if !errors.As(err, &se) {
					t.Fatalf("expected StatusError, got %T", err)
				}
				if se.Status != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, se.Status)
				}
				if se.Detail != tt.detail {
					t.Errorf("expected detail %q, got %q", tt.detail, se.Detail)
				}
				if se.Path != "/playlists/9" {
					t.Errorf("expected path in error, got %q", se.Path)
				}
				if !IsStatus(err, tt.status) {
					t.Error("expected IsStatus to match")
				}
			})
		}

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", HTTPClient: client})

			err := g.Get(ctx, "/tracks/", nil, nil)
			if !errors.Is(err, shared.ErrNetwork) {
				t.Fatalf("expected network error, got %v", err)
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' in error, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", HTTPClient: client})

			err := g.Get(ctx, "/tracks/", nil, nil)
			if !errors.Is(err, shared.ErrNetwork) {
				t.Fatalf("expected network error, got %v", err)
			}
			if !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' in error, got %v", err)
			}
		})

		t.Run("Malformed JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			}))
			defer server.Close()

			g := NewGateway(GatewayOpts{BaseURL: server.URL})
			var out map[string]any
			err := g.Get(ctx, "/tracks/", nil, &out)
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected network error, got %v", err)
			}
		})

		t.Run("Cancelled Context With Limiter", func(t *testing.T) {
			g := NewGateway(GatewayOpts{BaseURL: "http://example.com", RateLimit: 0.001})
			g.limiter.Allow()

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := g.Get(cctx, "/tracks/", nil, nil)
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected network error, got %v", err)
			}
		})
	})
}
