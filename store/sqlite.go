package store

import (
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/quentra/backoffice-client/users"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_values (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteRepo persists session state in a single key/value table so it
// survives process restarts. An optional cookie mirror keeps the access
// token visible to the server-side routing guard.
type SQLiteRepo struct {
	db     *sql.DB
	mirror *CookieFile
}

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the session database at path. _txlock=immediate
// makes ClearAll's delete transaction acquire its write lock up front, so a
// concurrent reader never observes a partially cleared store.
func OpenSQLite(path string, mirror *CookieFile) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, errors.Wrap(err, "[store.OpenSQLite] opening database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[store.OpenSQLite] creating schema")
	}
	return &SQLiteRepo{db: db, mirror: mirror}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) get(key string) string {
	var value string
	err := r.db.QueryRow(`SELECT value FROM session_values WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Err(err).Str("key", key).Msg("session store read failed")
		}
		return ""
	}
	return value
}

func (r *SQLiteRepo) set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO session_values (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return errors.Wrapf(err, "[store] writing %q", key)
}

func (r *SQLiteRepo) remove(key string) error {
	_, err := r.db.Exec(`DELETE FROM session_values WHERE key = ?`, key)
	return errors.Wrapf(err, "[store] removing %q", key)
}

func (r *SQLiteRepo) AccessToken() string { return r.get(KeyAccessToken) }

// SetAccessToken stores the bearer credential and mirrors it into the cookie
// channel the routing guard reads.
func (r *SQLiteRepo) SetAccessToken(token string) error {
	if err := r.set(KeyAccessToken, token); err != nil {
		return err
	}
	if r.mirror != nil {
		if err := r.mirror.Set(token); err != nil {
			log.Err(err).Msg("cookie mirror write failed")
		}
	}
	return nil
}

func (r *SQLiteRepo) RemoveAccessToken() error { return r.remove(KeyAccessToken) }

func (r *SQLiteRepo) RefreshToken() string         { return r.get(KeyRefreshToken) }
func (r *SQLiteRepo) SetRefreshToken(token string) error { return r.set(KeyRefreshToken, token) }
func (r *SQLiteRepo) RemoveRefreshToken() error    { return r.remove(KeyRefreshToken) }

func (r *SQLiteRepo) User() *users.User {
	raw := r.get(KeyUser)
	if raw == "" {
		return nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Err(err).Msg("stored user record is not valid JSON")
		return nil
	}
	return &u
}

func (r *SQLiteRepo) SetUser(u *users.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "[store.SetUser] serializing user")
	}
	return r.set(KeyUser, string(raw))
}

func (r *SQLiteRepo) RemoveUser() error { return r.remove(KeyUser) }

func (r *SQLiteRepo) SelectedTenantID() string          { return r.get(KeySelectedTenantID) }
func (r *SQLiteRepo) SetSelectedTenantID(id string) error { return r.set(KeySelectedTenantID, id) }
func (r *SQLiteRepo) RemoveSelectedTenantID() error     { return r.remove(KeySelectedTenantID) }

func (r *SQLiteRepo) Permissions() []string {
	raw := r.get(KeyUserPermissions)
	if raw == "" {
		return nil
	}
	var actions []string
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		log.Err(err).Msg("stored permission list is not valid JSON")
		return nil
	}
	return actions
}

func (r *SQLiteRepo) SetPermissions(actions []string) error {
	if actions == nil {
		actions = []string{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return errors.Wrap(err, "[store.SetPermissions] serializing actions")
	}
	return r.set(KeyUserPermissions, string(raw))
}

func (r *SQLiteRepo) RemovePermissions() error { return r.remove(KeyUserPermissions) }

// Session returns the persisted snapshot, or nil when no access token is
// stored. Fields other than the token may be absent.
func (r *SQLiteRepo) Session() *Session {
	token := r.AccessToken()
	if token == "" {
		return nil
	}
	return &Session{
		AccessToken:      token,
		RefreshToken:     r.RefreshToken(),
		User:             r.User(),
		SelectedTenantID: r.SelectedTenantID(),
		Permissions:      r.Permissions(),
	}
}

// ClearAll removes every session key in one transaction and expires the
// cookie mirror. Readers see either the full session or nothing.
func (r *SQLiteRepo) ClearAll() error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "[store.ClearAll] begin")
	}
	if _, err := tx.Exec(`DELETE FROM session_values`); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "[store.ClearAll] delete")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[store.ClearAll] commit")
	}
	if r.mirror != nil {
		if err := r.mirror.Clear(); err != nil {
			log.Err(err).Msg("cookie mirror clear failed")
		}
	}
	return nil
}
