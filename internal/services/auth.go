package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
	"golang.org/x/oauth2"
)

// Authenticator exchanges credentials for a bearer token with the OAuth2 password grant.
//
// It never touches the session: callers hand the result to the session manager.
type Authenticator struct {
	gateway *Gateway
	config  *oauth2.Config
	logger  *log.Logger
}

// NewAuthenticator creates an [Authenticator] that posts to the gateway's /token endpoint.
func NewAuthenticator(g *Gateway, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Authenticator{
		gateway: g,
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  g.BaseURL() + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger: logger.With("component", "auth"),
	}
}

// Login exchanges email and password for a token, then fetches the user it belongs to.
//
// Rejected credentials return an error wrapping [shared.ErrAuthentication].
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil, shared.NewValidationError("email", "is required")
	}
	if password == "" {
		return "", nil, shared.NewValidationError("password", "is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.gateway.HTTPClient())
	tok, err := a.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return "", nil, tokenError(err)
	}

	a.logger.Debug("token issued", "email", email, "type", tok.TokenType)

	user, err := NewClient(a.gateway.WithToken(tok.AccessToken)).Me(ctx)
	if err != nil {
		return "", nil, err
	}
	return tok.AccessToken, user, nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return fmt.Errorf("%w: token request failed: %v", shared.ErrNetwork, err)
	}

	status := re.Response.StatusCode
	kind := shared.StatusKind(status)
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		kind = shared.ErrAuthentication
	}
	return &shared.StatusError{
		Method: http.MethodPost,
		Path:   "/token",
		Status: status,
		Detail: errorDetail(re.Body),
		Kind:   kind,
	}
}
