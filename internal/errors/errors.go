package errors

import "errors"

// Error taxonomy for the session core.
var (
	// Login rejected by the server. Surfaced verbatim to the UI; no session
	// state is mutated.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// The server kept answering 401 and recovery is exhausted; the local
	// session has been torn down.
	ErrSessionExpired = errors.New("session expired")

	// The refresh token itself was rejected.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Permission lookup failed. Never fatal: callers treat it as "zero
	// permissions" and carry on.
	ErrPermissionFetch = errors.New("permission fetch failed")

	// A tenant-scoped call was made without a tenant context.
	ErrTenantRequired = errors.New("tenant id required")

	// An operation that needs an authenticated session was called without one.
	ErrNotAuthenticated = errors.New("not authenticated")
)
