package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// retriedKey marks a request that has already consumed its single retry
// budget. Per-request, so one exhausted request cannot block another's
// recovery.
type retriedKey struct{}

func retried(ctx context.Context) bool {
	return ctx.Value(retriedKey{}) != nil
}

// authTransport is the interceptor pair. Outgoing: purely synchronous header
// mutation from the store. Incoming: at most one refresh-and-retry on 401.
type authTransport struct {
	gw   *Gateway
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	token := t.gw.store.AccessToken()
	if token != "" {
		out.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if tenantID := t.gw.store.SelectedTenantID(); tenantID != "" {
		out.Header.Set(headerTenantID, tenantID)
	}
	if out.Header.Get(headerRequestID) == "" {
		out.Header.Set(headerRequestID, uuid.New().String())
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A 401 on an unauthenticated request (login itself) is a credential
	// failure for the caller, not an expired session.
	if token == "" || retried(req.Context()) || t.gw.ended.Load() {
		return resp, nil
	}

	return t.recover(req, resp)
}

// recover runs the single recovery action for an authorization failure:
// refresh-and-retry when a refresh token is stored, otherwise immediate
// teardown. The denied response is returned unchanged whenever the original
// call cannot be retried.
func (t *authTransport) recover(req *http.Request, denied *http.Response) (*http.Response, error) {
	refreshToken := t.gw.store.RefreshToken()
	if refreshToken == "" {
		t.gw.teardown()
		return denied, nil
	}

	t.gw.refreshMu.Lock()
	var err error
	// A concurrent request may have rotated the pair while we waited; only
	// the first caller actually hits the refresh endpoint.
	if t.gw.store.RefreshToken() == refreshToken {
		err = t.gw.refreshTokens(req.Context(), refreshToken)
	}
	t.gw.refreshMu.Unlock()
	if err != nil {
		denied.Body.Close()
		t.gw.teardown()
		return nil, errors.Wrap(err, "[Gateway] token refresh failed")
	}

	retry := req.Clone(context.WithValue(req.Context(), retriedKey{}, true))
	if req.Body != nil {
		if req.GetBody == nil {
			// Body already consumed and not replayable; hand back the denial.
			log.Warn().Str("method", req.Method).Str("url", req.URL.Path).Msg("401 retry skipped: body not replayable")
			return denied, nil
		}
		body, berr := req.GetBody()
		if berr != nil {
			return denied, nil
		}
		retry.Body = body
	}
	denied.Body.Close()

	log.Debug().Str("method", req.Method).Str("url", req.URL.Path).Msg("retrying request with refreshed token")
	return t.RoundTrip(retry)
}
