package tenants

import "time"

// Tenant is the subset of the tenant record the session layer cares about.
// The full record carried by the API has a couple dozen address and billing
// fields; the session core only needs identity and labelling.
type Tenant struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	FantasyName  string    `json:"fantasyName"`
	Domain       string    `json:"domain"`
	Email        string    `json:"email"`
	OwnerID      string    `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Label returns the human-facing name for tenant pickers.
func (t *Tenant) Label() string {
	if t.FantasyName != "" {
		return t.FantasyName
	}
	return t.BusinessName
}
