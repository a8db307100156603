// Package gateway is the single outbound HTTP facility for the console.
// Every request leaves through the same client: the outgoing interceptor
// attaches the bearer credential and active-tenant header read synchronously
// from the session store, and the incoming interceptor recovers from
// authorization failures with at most one refresh-and-retry per request
// before tearing the session down.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/store"
)

const (
	refreshPath = "/api/v1/auth/refresh"

	headerAuthorization = "Authorization"
	headerTenantID      = "X-Tenant-Id"
	headerRequestID     = "X-Request-Id"

	defaultTimeout   = 30 * time.Second
	defaultLoginPath = "/login"
)

// Navigator performs the hard navigation to the login entry point after the
// session is torn down. In the console this swaps the page; in the CLI it
// tells the operator to log in again.
type Navigator func(target string)

// Gateway issues every external call in the system. It owns token refresh:
// recovery from a 401 is invisible to callers except as a transparently
// retried response or, when refresh is impossible, a terminal teardown.
type Gateway struct {
	baseURL   string
	store     store.Repo
	client    *http.Client
	bare      *http.Client
	navigate  Navigator
	loginPath string

	refreshMu sync.Mutex
	ended     atomic.Bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.client.Timeout = d
		g.bare.Timeout = d
	}
}

// WithNavigator sets the hard-navigation hook fired on session teardown.
func WithNavigator(nav Navigator) Option {
	return func(g *Gateway) { g.navigate = nav }
}

// WithLoginPath overrides the target of the teardown navigation.
func WithLoginPath(path string) Option {
	return func(g *Gateway) { g.loginPath = path }
}

// New creates a gateway talking to baseURL, reading credentials from repo.
func New(baseURL string, repo store.Repo, options ...Option) *Gateway {
	g := &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     repo,
		bare:      &http.Client{Timeout: defaultTimeout},
		loginPath: defaultLoginPath,
	}
	g.client = &http.Client{
		Timeout:   defaultTimeout,
		Transport: &authTransport{gw: g, base: http.DefaultTransport},
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Client exposes the intercepted HTTP client for callers that need more than
// the JSON helpers. Requests issued through it get the same header injection
// and 401 recovery.
func (g *Gateway) Client() *http.Client {
	return g.client
}

// Reset re-arms recovery after a fresh login. Teardown is terminal for the
// session that triggered it, not for the process.
func (g *Gateway) Reset() {
	g.ended.Store(false)
}

// Ended reports whether the current session has been torn down.
func (g *Gateway) Ended() bool {
	return g.ended.Load()
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.do(ctx, http.MethodPost, path, body, out)
}

// Put issues an authenticated PUT with a JSON body.
func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues an authenticated DELETE.
func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.do(ctx, http.MethodDelete, path, nil, nil)
}

func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Gateway] encoding %s %s body", method, path)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "[Gateway] building %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[Gateway] %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp)
		log.Debug().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg("request failed")
		if resp.StatusCode == http.StatusUnauthorized && g.ended.Load() {
			// Recovery already gave up on this session.
			return fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[Gateway] decoding %s %s response", method, path)
	}
	return nil
}

// refreshTokens trades the stored refresh token for a new token pair and
// persists it. Called with refreshMu held so concurrent 401s refresh once.
// The call bypasses the interceptors: it must not recurse into recovery.
func (g *Gateway) refreshTokens(ctx context.Context, refreshToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+refreshPath, strings.NewReader(refreshToken))
	if err != nil {
		return errors.Wrap(err, "[Gateway.refreshTokens] building request")
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := g.bare.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Gateway.refreshTokens] refresh call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(apperrors.ErrInvalidRefreshToken, "refresh endpoint returned %d", resp.StatusCode)
	}

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return errors.Wrap(err, "[Gateway.refreshTokens] decoding response")
	}
	if pair.AccessToken == "" {
		return errors.Wrap(apperrors.ErrInvalidRefreshToken, "refresh response carried no access token")
	}

	if err := g.store.SetAccessToken(pair.AccessToken); err != nil {
		return err
	}
	if pair.RefreshToken != "" {
		if err := g.store.SetRefreshToken(pair.RefreshToken); err != nil {
			return err
		}
	}
	log.Debug().Msg("access token refreshed")
	return nil
}

// teardown clears the persisted session and fires the hard navigation to the
// login entry point. It is terminal: once fired, no further recovery runs
// for this session.
func (g *Gateway) teardown() {
	if !g.ended.CompareAndSwap(false, true) {
		return
	}
	log.Warn().Msg("authorization expired, clearing session")
	if err := g.store.ClearAll(); err != nil {
		log.Err(err).Msg("session teardown: clearing store failed")
	}
	if g.navigate != nil {
		g.navigate(g.loginPath)
	}
}
