package store_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quentra/backoffice-client/store"
)

func TestCookieSetAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")
	mirror := store.NewCookieFile(path)

	require.NoError(t, mirror.Set("tok-abc"))

	cookie, err := mirror.Read()
	require.NoError(t, err)
	require.NotNil(t, cookie)
	require.Equal(t, store.CookieName, cookie.Name)
	require.Equal(t, "tok-abc", cookie.Value)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.False(t, cookie.Expires.IsZero())
}

func TestCookieReadMissingFile(t *testing.T) {
	mirror := store.NewCookieFile(filepath.Join(t.TempDir(), "cookie"))

	cookie, err := mirror.Read()
	require.NoError(t, err)
	require.Nil(t, cookie)
}

func TestCookieClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")
	mirror := store.NewCookieFile(path)

	require.NoError(t, mirror.Set("tok-abc"))
	require.NoError(t, mirror.Clear())

	cookie, err := mirror.Read()
	require.NoError(t, err)
	require.Nil(t, cookie)

	// Clearing an already-cleared mirror is not an error.
	require.NoError(t, mirror.Clear())
}

func TestCookieFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")
	mirror := store.NewCookieFile(path)

	require.NoError(t, mirror.Set("tok-abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
