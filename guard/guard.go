// Package guard answers the pre-render authentication question for the
// routing layer: is anyone logged in, and where should this request go? It
// reads only the cookie mirror, never the session store, so it can run in a
// request-preprocessing step with no database access.
package guard

import (
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/quentra/backoffice-client/store"
)

// Guard decides redirects for protected and public routes.
type Guard struct {
	cookies       *store.CookieFile
	loginPath     string
	dashboardPath string
}

func New(cookies *store.CookieFile, loginPath, dashboardPath string) *Guard {
	return &Guard{cookies: cookies, loginPath: loginPath, dashboardPath: dashboardPath}
}

// Authenticated reports whether an unexpired access-token cookie exists.
// This is a routing hint only; the server remains the authority and any
// request made with a stale token still ends in a 401.
func (g *Guard) Authenticated() bool {
	cookie, err := g.cookies.Read()
	if err != nil {
		log.Err(err).Msg("guard: cookie read failed")
		return false
	}
	return cookie != nil
}

// RedirectTarget returns the path the request should be redirected to, or
// ok=false when the request may proceed. Authenticated visitors to the login
// page bounce to the dashboard; unauthenticated visitors to anything else
// bounce to login with the original path preserved in the "from" parameter.
func (g *Guard) RedirectTarget(requestPath string) (target string, ok bool) {
	authed := g.Authenticated()

	if requestPath == g.loginPath {
		if authed {
			return g.dashboardPath, true
		}
		return "", false
	}

	if !authed {
		return g.loginPath + "?from=" + url.QueryEscape(requestPath), true
	}
	return "", false
}
