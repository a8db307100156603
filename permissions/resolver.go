// Package permissions resolves the set of actions a user may perform inside
// a tenant. Results are cached in the session store for synchronous
// capability checks; failures are never fatal to the workflow that asked.
package permissions

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/store"
)

// UserPermissions is the wire shape of the permissions endpoint.
type UserPermissions struct {
	UserID   string   `json:"userId"`
	TenantID string   `json:"tenantId"`
	Actions  []string `json:"actions"`
}

// Getter is the slice of the HTTP gateway the resolver needs.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Resolver fetches and caches per-tenant permission sets.
type Resolver struct {
	api  Getter
	repo store.Repo
}

func NewResolver(api Getter, repo store.Repo) *Resolver {
	return &Resolver{api: api, repo: repo}
}

// Fetch returns the actions the user may perform in the tenant. Both ids are
// required; calling without a tenant context is a programming error, not a
// recoverable condition. Successful results are cached in the store, but
// only while the fetched tenant is still the selected one, so a slow
// response for a tenant the user already switched away from cannot clobber
// the cache.
func (r *Resolver) Fetch(ctx context.Context, userID, tenantID string) ([]string, error) {
	if userID == "" {
		return nil, errors.Wrap(apperrors.ErrNotAuthenticated, "[Resolver.Fetch] user id required")
	}
	if tenantID == "" {
		return nil, errors.Wrap(apperrors.ErrTenantRequired, "[Resolver.Fetch]")
	}

	path := fmt.Sprintf("/api/v1/user-roles/user/%s/tenant/%s/permissions", userID, tenantID)

	var out UserPermissions
	if err := r.api.Get(ctx, path, &out); err != nil {
		log.Err(err).Str("user_id", userID).Str("tenant_id", tenantID).Msg("permission fetch failed")
		return nil, errors.Wrap(apperrors.ErrPermissionFetch, err.Error())
	}

	if out.Actions == nil {
		out.Actions = []string{}
	}

	if r.repo.SelectedTenantID() == tenantID {
		if err := r.repo.SetPermissions(out.Actions); err != nil {
			log.Err(err).Msg("caching permissions failed")
		}
	}

	return out.Actions, nil
}

// Cached returns the permission set last stored for the active tenant
// without touching the network.
func (r *Resolver) Cached() []string {
	return r.repo.Permissions()
}
