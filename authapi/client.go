// Package authapi is the thin client for the authentication endpoints:
// credential login and best-effort token revocation. Token refresh is not
// exposed here; it belongs to the gateway's 401 recovery and is never a
// caller-visible operation.
package authapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/quentra/backoffice-client/gateway"
	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/tenants"
	"github.com/quentra/backoffice-client/users"
)

const (
	loginPath  = "/api/v1/auth/login"
	revokePath = "/api/v1/auth/revoke"
)

// LoginResponse covers both shapes the login endpoint has spoken: a bare
// token pair, and a pair with the user and tenant list embedded. When User
// is nil the caller recovers identity by decoding the access token.
type LoginResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         *users.User      `json:"user,omitempty"`
	Tenants      []tenants.Tenant `json:"tenants,omitempty"`
}

// Poster is the slice of the HTTP gateway the auth client needs.
type Poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Client calls the auth endpoints through the gateway.
type Client struct {
	api Poster
}

func NewClient(api Poster) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a token pair. A 401 from the endpoint is
// an invalid-credential failure, surfaced as ErrInvalidCredentials with the
// server's message attached.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp LoginResponse
	if err := c.api.Post(ctx, loginPath, body, &resp); err != nil {
		if gateway.StatusOf(err) == http.StatusUnauthorized {
			return nil, errors.Wrap(apperrors.ErrInvalidCredentials, err.Error())
		}
		return nil, errors.Wrap(err, "[authapi.Login]")
	}
	if resp.AccessToken == "" {
		return nil, errors.New("[authapi.Login] response carried no access token")
	}
	return &resp, nil
}

// Revoke invalidates the current tokens server-side. Best effort: callers
// tear the local session down whether or not this succeeds.
func (c *Client) Revoke(ctx context.Context) error {
	if err := c.api.Post(ctx, revokePath, struct{}{}, nil); err != nil {
		return errors.Wrap(err, "[authapi.Revoke]")
	}
	return nil
}
