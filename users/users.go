package users

import "strings"

// User is the identity the console operates as. It is either embedded in the
// login response or reconstructed from the access token payload right after
// login, and persisted alongside the tokens so it survives restarts.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsOwner  bool   `json:"isOwner"`
	OwnerID  string `json:"ownerId,omitempty"`
	IsActive bool   `json:"isActive"`
}

// DisplayName returns the best available label for the user, falling back to
// the local part of the email address when the name claim was absent.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
