// API gateway for the music library backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000"

// TokenSource supplies the bearer token for outgoing requests. An empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a [TokenSource] that always returns the same token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// GatewayOpts configures a [Gateway].
type GatewayOpts struct {
	BaseURL    string       // Defaults to http://localhost:8000
	HTTPClient *http.Client // Defaults to [http.DefaultClient]
	Tokens     TokenSource  // Usually the session manager
	UserAgent  string
	RateLimit  float64 // Requests per second, 0 disables throttling
	Logger     *log.Logger
}

// Gateway is the shared HTTP client for the backend.
//
// It holds the base URL and default headers. The Authorization header is not a default: it is read from the
// [TokenSource] each time a request is built. The gateway never retries, caches or deduplicates.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewGateway creates a [Gateway].
func NewGateway(opts GatewayOpts) *Gateway {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if opts.UserAgent != "" {
		headers.Set("User-Agent", opts.UserAgent)
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		headers:    headers,
		tokens:     opts.Tokens,
		logger:     opts.Logger.With("component", "gateway"),
	}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return g
}

// WithToken returns a copy of the gateway that authenticates with token instead of its [TokenSource].
func (g *Gateway) WithToken(token string) *Gateway {
	c := *g
	c.headers = g.headers.Clone()
	c.tokens = StaticToken(token)
	return &c
}

// BaseURL returns the backend address.
func (g *Gateway) BaseURL() string { return g.baseURL }

// HTTPClient returns the underlying [http.Client].
func (g *Gateway) HTTPClient() *http.Client { return g.httpClient }

// NewRequest builds a request for path with the default headers and the current credential applied.
func (g *Gateway) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range g.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.tokens != nil {
		if token := g.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// Get sends a GET request and decodes the JSON response into out.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.send(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends in as a JSON body and decodes the response into out. A nil in sends no body.
func (g *Gateway) Post(ctx context.Context, path string, in, out any) error {
	return g.send(ctx, http.MethodPost, path, nil, in, out)
}

// Put sends in as a JSON body and decodes the response into out.
func (g *Gateway) Put(ctx context.Context, path string, in, out any) error {
	return g.send(ctx, http.MethodPut, path, nil, in, out)
}

// Delete sends a DELETE request and decodes the response into out.
func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.send(ctx, http.MethodDelete, path, nil, nil, out)
}

func (g *Gateway) send(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := g.NewRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return g.Do(req, out)
}

// Do sends req and decodes a successful JSON response into out.
//
// Non-2xx statuses become a [shared.StatusError]; transport failures wrap [shared.ErrNetwork].
func (g *Gateway) Do(req *http.Request, out any) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
		}
	}

	g.logger.Debug("request", "method", req.Method, "path", req.URL.Path)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	if kind := shared.StatusKind(resp.StatusCode); kind != nil {
		g.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
		return &shared.StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Status: resp.StatusCode,
			Detail: errorDetail(data),
			Kind:   kind,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrNetwork, err)
	}
	return nil
}

// errorDetail extracts the message from an error body. String details ({"detail": "..."}) are returned as is,
// validation details (a list) are summarized, anything else is returned trimmed.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return string(payload.Detail)
}

// IsStatus reports whether err is a [shared.StatusError] with the given status.
func IsStatus(err error, status int) bool {
	var se *shared.StatusError
	return errors.As(err, &se) && se.Status == status
}
