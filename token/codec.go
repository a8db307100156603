package token

import (
	"errors"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for any input that cannot be decoded into a
// payload: wrong segment count, bad base64, non-JSON body.
var ErrMalformed = errors.New("malformed token")

// Payload carries the claims the console reads out of an access token.
// IsOwner is kept as the raw string flag the backend emits; use Owner() to
// interpret it.
type Payload struct {
	UserID  string
	Name    string
	Email   string
	IsOwner string
	OwnerID string
	Exp     int64
	Iat     int64
}

// Owner interprets the string-typed owner flag. The backend emits "Y"/"N"
// but older tokens carried "true"/"false".
func (p *Payload) Owner() bool {
	switch strings.ToLower(strings.TrimSpace(p.IsOwner)) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

// Decode extracts the claims from the middle segment of a compact token
// without verifying the signature. Verification is the server's job: this
// exists only to bootstrap the local user record after login, and the
// server's 401 responses remain the sole authority on whether the token is
// actually good. Returns ErrMalformed (never panics) on any parse failure.
func Decode(raw string) (*Payload, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	p := &Payload{}
	p.UserID, _ = claims["userId"].(string)
	if p.UserID == "" {
		p.UserID, _ = claims["sub"].(string)
	}
	p.Name, _ = claims["name"].(string)
	p.Email, _ = claims["email"].(string)
	p.IsOwner, _ = claims["isowner"].(string)
	p.OwnerID, _ = claims["ownerId"].(string)

	if exp, ok := claims["exp"].(float64); ok {
		p.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		p.Iat = int64(iat)
	}

	return p, nil
}
