package store

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CookieName is the cookie the server-side routing guard inspects before a
// protected page renders.
const CookieName = "accessToken"

// cookieTTL matches the 7-day window the guard honours.
const cookieTTL = 7 * 24 * time.Hour

// CookieFile mirrors the access token into a cookie record stored outside
// the session database. It is a separately scoped channel: the routing guard
// can answer "is anyone logged in" without opening the store itself.
type CookieFile struct {
	path string
	now  func() time.Time
}

// NewCookieFile creates a mirror writing to path.
func NewCookieFile(path string) *CookieFile {
	return &CookieFile{path: path, now: time.Now}
}

// Set writes the token as a SameSite=Lax cookie with a 7-day expiry.
func (c *CookieFile) Set(token string) error {
	cookie := http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  c.now().Add(cookieTTL).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
	if err := cookie.Valid(); err != nil {
		return errors.Wrap(err, "[CookieFile.Set] invalid cookie")
	}
	return errors.Wrap(os.WriteFile(c.path, []byte(cookie.String()+"\n"), 0o600), "[CookieFile.Set] writing cookie file")
}

// Clear expires the cookie immediately by removing the file.
func (c *CookieFile) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[CookieFile.Clear] removing cookie file")
	}
	return nil
}

// Read parses the mirrored cookie. Returns nil with no error when the file
// does not exist or holds an expired cookie.
func (c *CookieFile) Read() (*http.Cookie, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[CookieFile.Read] reading cookie file")
	}
	cookie, err := http.ParseSetCookie(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrap(err, "[CookieFile.Read] parsing cookie")
	}
	if cookie.Name != CookieName || cookie.Value == "" {
		return nil, nil
	}
	if !cookie.Expires.IsZero() && cookie.Expires.Before(c.now()) {
		return nil, nil
	}
	return cookie, nil
}
