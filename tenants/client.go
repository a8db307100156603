package tenants

import (
	"context"

	"github.com/pkg/errors"
)

// The tenants controller is registered with a different route casing than the
// rest of the API; the capital V is deliberate.
const listPath = "/api/V1/tenants"

// Getter is the slice of the HTTP gateway the tenant client needs.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Client lists the tenants visible to the authenticated user.
type Client struct {
	api Getter
}

func NewClient(api Getter) *Client {
	return &Client{api: api}
}

// List returns every tenant the current user belongs to. Authentication and
// tenant headers are attached by the gateway.
func (c *Client) List(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	if err := c.api.Get(ctx, listPath, &out); err != nil {
		return nil, errors.Wrap(err, "[tenants.List] fetching tenant list")
	}
	return out, nil
}
