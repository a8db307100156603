// Package session owns the login, logout, and tenant-switch workflows. The
// Controller is the only component that mutates session state; everything
// else reads snapshots or goes through the store.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/quentra/backoffice-client/authapi"
	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/store"
	"github.com/quentra/backoffice-client/tenants"
	"github.com/quentra/backoffice-client/token"
	"github.com/quentra/backoffice-client/users"
)

// State of the session workflow.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	// StateTenantSwitching is a sub-state of Authenticated: the tenant header
	// is already correct, the permission cache is converging.
	StateTenantSwitching
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateTenantSwitching:
		return "tenant-switching"
	}
	return "unauthenticated"
}

// AuthClient is the slice of the auth endpoint client the controller uses.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResponse, error)
	Revoke(ctx context.Context) error
}

// TenantLister fetches the tenant list for the authenticated user.
type TenantLister interface {
	List(ctx context.Context) ([]tenants.Tenant, error)
}

// PermissionFetcher resolves the action set for a (user, tenant) pair.
type PermissionFetcher interface {
	Fetch(ctx context.Context, userID, tenantID string) ([]string, error)
}

// GatewayResetter re-arms the gateway's 401 recovery after a fresh login.
type GatewayResetter interface {
	Reset()
}

// Navigator performs post-login / post-logout redirects.
type Navigator func(target string)

// Deps holds the controller's collaborators.
type Deps struct {
	Store       store.Repo
	Auth        AuthClient
	Tenants     TenantLister
	Permissions PermissionFetcher
	Gateway     GatewayResetter // optional
}

// Snapshot is the read-only view of the session handed to views and guards.
type Snapshot struct {
	User             *users.User
	Tenants          []tenants.Tenant
	SelectedTenantID string
	Permissions      []string
	State            State
}

// Controller drives the session state machine
// Unauthenticated -> Authenticating -> Authenticated (-> TenantSwitching) ->
// Unauthenticated.
type Controller struct {
	deps          Deps
	navigate      Navigator
	loginPath     string
	dashboardPath string

	mu               sync.Mutex
	state            State
	user             *users.User
	tenantList       []tenants.Tenant
	selectedTenantID string
	permissions      []string
	// switchSeq orders tenant switches so a slow permission fetch for an
	// older switch cannot overwrite a newer one's result.
	switchSeq uint64

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithNavigator sets the redirect hook.
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) { c.navigate = nav }
}

// WithPaths overrides the login and dashboard redirect targets.
func WithPaths(login, dashboard string) Option {
	return func(c *Controller) {
		c.loginPath = login
		c.dashboardPath = dashboard
	}
}

// New creates a Controller. Store, Auth, Tenants, and Permissions are
// required; Gateway is optional.
func New(deps Deps, options ...Option) (*Controller, error) {
	if deps.Store == nil {
		return nil, errors.New("[session.New] Store is required")
	}
	if deps.Auth == nil {
		return nil, errors.New("[session.New] Auth client is required")
	}
	if deps.Tenants == nil {
		return nil, errors.New("[session.New] Tenants client is required")
	}
	if deps.Permissions == nil {
		return nil, errors.New("[session.New] Permissions resolver is required")
	}

	c := &Controller{
		deps:          deps,
		loginPath:     "/login",
		dashboardPath: "/dashboard",
		state:         StateUnauthenticated,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a snapshot of the current session, or nil when no access
// token is stored. Views check for nil before rendering protected screens.
func (c *Controller) Session() *Snapshot {
	if c.deps.Store.AccessToken() == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := &Snapshot{
		State:            c.state,
		SelectedTenantID: c.selectedTenantID,
		Tenants:          append([]tenants.Tenant(nil), c.tenantList...),
		Permissions:      append([]string(nil), c.permissions...),
	}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	return snap
}

// HasPermission reports whether the current user may perform the action in
// the selected tenant. Owners bypass permission scoping entirely.
func (c *Controller) HasPermission(action string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return false
	}
	if c.user.IsOwner {
		return true
	}
	for _, a := range c.permissions {
		if a == action {
			return true
		}
	}
	return false
}

// Hydrate rebuilds the in-memory session from the store at startup. The
// tenant-list reload is best effort: a stored tenant id the server no longer
// accepts must not block startup.
func (c *Controller) Hydrate(ctx context.Context) {
	sess := c.deps.Store.Session()
	if sess == nil {
		return
	}

	c.mu.Lock()
	c.user = sess.User
	c.selectedTenantID = sess.SelectedTenantID
	c.permissions = sess.Permissions
	c.state = StateAuthenticated
	c.mu.Unlock()

	if c.deps.Gateway != nil {
		c.deps.Gateway.Reset()
	}

	list, err := c.deps.Tenants.List(ctx)
	if err != nil {
		log.Err(err).Msg("tenant list reload failed during hydrate")
		return
	}
	c.mu.Lock()
	c.tenantList = list
	c.mu.Unlock()
}

// Login runs the full login workflow: credential exchange, identity
// normalization, persistence, tenant selection, and the initial permission
// load. On any failure no partial persisted state survives.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.mu.Lock()
	if c.state == StateAuthenticating {
		c.mu.Unlock()
		return errors.New("[Controller.Login] login already in progress")
	}
	c.state = StateAuthenticating
	c.mu.Unlock()

	resp, err := c.deps.Auth.Login(ctx, email, password)
	if err != nil {
		// Nothing was persisted yet; no rollback needed.
		c.setState(StateUnauthenticated)
		return err
	}

	user, err := normalizeIdentity(resp, email)
	if err != nil {
		return c.rollback(err)
	}

	// The token must be persisted before the tenant-list fetch goes out: the
	// gateway's outgoing interceptor reads the store at request-send time.
	if err := c.deps.Store.SetAccessToken(resp.AccessToken); err != nil {
		return c.rollback(err)
	}
	if resp.RefreshToken != "" {
		if err := c.deps.Store.SetRefreshToken(resp.RefreshToken); err != nil {
			return c.rollback(err)
		}
	}
	if err := c.deps.Store.SetUser(user); err != nil {
		return c.rollback(err)
	}
	if c.deps.Gateway != nil {
		c.deps.Gateway.Reset()
	}

	list := resp.Tenants
	if len(list) == 0 {
		if list, err = c.deps.Tenants.List(ctx); err != nil {
			log.Err(err).Msg("loading tenants after login failed")
			list = nil
		}
	}

	var selected string
	if len(list) > 0 {
		selected = list[0].ID
		if err := c.deps.Store.SetSelectedTenantID(selected); err != nil {
			return c.rollback(err)
		}
	}

	var actions []string
	if !user.IsOwner && selected != "" {
		if actions, err = c.deps.Permissions.Fetch(ctx, user.ID, selected); err != nil {
			log.Err(err).Msg("permission load failed, continuing with empty set")
			actions = []string{}
			if serr := c.deps.Store.SetPermissions(actions); serr != nil {
				log.Err(serr).Msg("caching empty permission set failed")
			}
		}
	}

	c.mu.Lock()
	c.user = user
	c.tenantList = list
	c.selectedTenantID = selected
	c.permissions = actions
	c.state = StateAuthenticated
	c.mu.Unlock()

	log.Info().Str("user_id", user.ID).Str("tenant_id", selected).Msg("login complete")
	if c.navigate != nil {
		c.navigate(c.dashboardPath)
	}
	return nil
}

// Logout revokes the tokens server-side (best effort) and always tears the
// local session down.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.deps.Auth.Revoke(ctx); err != nil {
		log.Warn().Err(err).Msg("token revocation failed, clearing local session anyway")
	}
	if err := c.deps.Store.ClearAll(); err != nil {
		log.Err(err).Msg("clearing session store failed")
	}

	c.mu.Lock()
	c.user = nil
	c.tenantList = nil
	c.selectedTenantID = ""
	c.permissions = nil
	c.switchSeq++ // invalidate in-flight permission refreshes
	c.state = StateUnauthenticated
	c.mu.Unlock()

	if c.navigate != nil {
		c.navigate(c.loginPath)
	}
	return nil
}

// SetSelectedTenant switches the active tenant. The id is persisted before
// this returns, so the very next request already carries the new tenant
// header; the permission refetch converges in the background and discards
// itself if a newer switch has started.
func (c *Controller) SetSelectedTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return errors.Wrap(apperrors.ErrTenantRequired, "[Controller.SetSelectedTenant]")
	}

	c.mu.Lock()
	if c.state != StateAuthenticated && c.state != StateTenantSwitching {
		c.mu.Unlock()
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.SetSelectedTenant]")
	}
	user := c.user
	if len(c.tenantList) > 0 && !containsTenant(c.tenantList, tenantID) {
		log.Warn().Str("tenant_id", tenantID).Msg("selecting tenant not in the last fetched list")
	}
	if err := c.deps.Store.SetSelectedTenantID(tenantID); err != nil {
		c.mu.Unlock()
		return errors.Wrap(err, "[Controller.SetSelectedTenant] persisting tenant id")
	}
	c.selectedTenantID = tenantID
	c.switchSeq++
	seq := c.switchSeq

	if user == nil || user.IsOwner {
		// Owners bypass permission scoping; no fetch.
		c.mu.Unlock()
		return nil
	}
	c.state = StateTenantSwitching
	c.mu.Unlock()

	c.wg.Add(1)
	go c.refreshPermissions(context.WithoutCancel(ctx), seq, user.ID, tenantID)
	return nil
}

// refreshPermissions resolves the permission set for a tenant switch and
// applies it only if no newer switch has been issued since.
func (c *Controller) refreshPermissions(ctx context.Context, seq uint64, userID, tenantID string) {
	defer c.wg.Done()

	actions, err := c.deps.Permissions.Fetch(ctx, userID, tenantID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.switchSeq {
		log.Debug().Str("tenant_id", tenantID).Msg("discarding stale permission response")
		return
	}
	if c.state == StateTenantSwitching {
		c.state = StateAuthenticated
	}
	if err != nil {
		log.Err(err).Str("tenant_id", tenantID).Msg("permission refresh failed, treating as empty")
		c.permissions = []string{}
		return
	}
	c.permissions = actions
}

// Close waits for background permission refreshes to settle.
func (c *Controller) Close() {
	c.wg.Wait()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// rollback clears everything persisted during a failed login so that no
// half-authenticated session survives a restart.
func (c *Controller) rollback(cause error) error {
	if err := c.deps.Store.ClearAll(); err != nil {
		log.Err(err).Msg("login rollback: clearing store failed")
	}
	c.mu.Lock()
	c.user = nil
	c.tenantList = nil
	c.selectedTenantID = ""
	c.permissions = nil
	c.state = StateUnauthenticated
	c.mu.Unlock()
	return errors.Wrap(cause, "[Controller.Login]")
}

// normalizeIdentity produces the canonical user record from either login
// response shape. A token that cannot be decoded aborts the login the same
// way bad credentials would.
func normalizeIdentity(resp *authapi.LoginResponse, email string) (*users.User, error) {
	if resp.User != nil {
		return resp.User, nil
	}

	payload, err := token.Decode(resp.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "decoding access token")
	}

	userEmail := payload.Email
	if userEmail == "" {
		userEmail = email
	}

	// A missing name claim stays empty; User.DisplayName derives the
	// email-local-part fallback at render time.
	return &users.User{
		ID:       payload.UserID,
		Name:     payload.Name,
		Email:    userEmail,
		IsOwner:  payload.Owner(),
		OwnerID:  payload.OwnerID,
		IsActive: true,
	}, nil
}

func containsTenant(list []tenants.Tenant, id string) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
