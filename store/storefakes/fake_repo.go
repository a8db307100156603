package storefakes

import (
	"encoding/json"
	"sync"

	"github.com/quentra/backoffice-client/store"
	"github.com/quentra/backoffice-client/users"
)

var _ store.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory session store for tests.
type FakeRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// ClearAllCalls counts teardown invocations.
	ClearAllCalls int

	// SetSelectedTenantIDErr, when set, fails the next tenant-id write.
	SetSelectedTenantIDErr error
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{values: make(map[string]string)}
}

func (f *FakeRepo) get(key string) string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.values[key]
}

func (f *FakeRepo) set(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.values[key] = value
	return nil
}

func (f *FakeRepo) remove(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.values, key)
	return nil
}

func (f *FakeRepo) AccessToken() string                { return f.get(store.KeyAccessToken) }
func (f *FakeRepo) SetAccessToken(token string) error  { return f.set(store.KeyAccessToken, token) }
func (f *FakeRepo) RemoveAccessToken() error           { return f.remove(store.KeyAccessToken) }
func (f *FakeRepo) RefreshToken() string               { return f.get(store.KeyRefreshToken) }
func (f *FakeRepo) SetRefreshToken(token string) error { return f.set(store.KeyRefreshToken, token) }
func (f *FakeRepo) RemoveRefreshToken() error          { return f.remove(store.KeyRefreshToken) }

func (f *FakeRepo) User() *users.User {
	raw := f.get(store.KeyUser)
	if raw == "" {
		return nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

func (f *FakeRepo) SetUser(u *users.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return f.set(store.KeyUser, string(raw))
}

func (f *FakeRepo) RemoveUser() error { return f.remove(store.KeyUser) }

func (f *FakeRepo) SelectedTenantID() string { return f.get(store.KeySelectedTenantID) }
func (f *FakeRepo) SetSelectedTenantID(id string) error {
	if err := f.SetSelectedTenantIDErr; err != nil {
		f.SetSelectedTenantIDErr = nil
		return err
	}
	return f.set(store.KeySelectedTenantID, id)
}
func (f *FakeRepo) RemoveSelectedTenantID() error { return f.remove(store.KeySelectedTenantID) }

func (f *FakeRepo) Permissions() []string {
	raw := f.get(store.KeyUserPermissions)
	if raw == "" {
		return nil
	}
	var actions []string
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil
	}
	return actions
}

func (f *FakeRepo) SetPermissions(actions []string) error {
	if actions == nil {
		actions = []string{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	return f.set(store.KeyUserPermissions, string(raw))
}

func (f *FakeRepo) RemovePermissions() error { return f.remove(store.KeyUserPermissions) }

func (f *FakeRepo) Session() *store.Session {
	token := f.AccessToken()
	if token == "" {
		return nil
	}
	return &store.Session{
		AccessToken:      token,
		RefreshToken:     f.RefreshToken(),
		User:             f.User(),
		SelectedTenantID: f.SelectedTenantID(),
		Permissions:      f.Permissions(),
	}
}

func (f *FakeRepo) ClearAll() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.values = make(map[string]string)
	f.ClearAllCalls++
	return nil
}

// Len reports how many keys are currently stored. Used to assert that a
// failed login leaves nothing behind.
func (f *FakeRepo) Len() int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return len(f.values)
}
