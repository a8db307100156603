package store

import "github.com/quentra/backoffice-client/users"

// Storage keys. These match the names the server-side guard and older
// console builds expect, so a store produced by one build stays readable by
// the next.
const (
	KeyAccessToken      = "accessToken"
	KeyRefreshToken     = "refreshToken"
	KeyUser             = "user"
	KeySelectedTenantID = "selectedTenantId"
	KeyUserPermissions  = "userPermissions"
)

// Session is the snapshot a store hands back to callers. Partial state is
// valid: a token with no user record still counts as an authenticated
// session and callers must tolerate the gaps.
type Session struct {
	AccessToken      string
	RefreshToken     string
	User             *users.User
	SelectedTenantID string
	Permissions      []string
}

// Repo is durable session storage. Reads are synchronous and never block on
// I/O from the caller's perspective; the gateway's outgoing interceptor
// reads the token and tenant id on every single request.
//
// Read accessors return zero values when the field is absent; write and
// remove operations report failures. Session returns nil when no access
// token is stored, which is the system-wide definition of "not
// authenticated".
type Repo interface {
	AccessToken() string
	SetAccessToken(token string) error
	RemoveAccessToken() error

	RefreshToken() string
	SetRefreshToken(token string) error
	RemoveRefreshToken() error

	User() *users.User
	SetUser(u *users.User) error
	RemoveUser() error

	SelectedTenantID() string
	SetSelectedTenantID(id string) error
	RemoveSelectedTenantID() error

	Permissions() []string
	SetPermissions(actions []string) error
	RemovePermissions() error

	Session() *Session
	ClearAll() error
}
