package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quentra/backoffice-client/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "Backoffice", cfg.AppName)
	require.Equal(t, "https://localhost:7054", cfg.APIBaseURL)
	require.Equal(t, "/login", cfg.LoginPath)
	require.Equal(t, "/dashboard", cfg.DashboardPath)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	require.NotEmpty(t, cfg.DataDir)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("api_base_url: https://api.example.com\ndata_dir: /var/lib/backoffice\nhttp_timeout_secs: 5\n")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	require.Equal(t, "/var/lib/backoffice", cfg.DataDir)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	require.Equal(t, filepath.Join("/var/lib/backoffice", "session.db"), cfg.SessionDBPath())
	require.Equal(t, filepath.Join("/var/lib/backoffice", "cookie"), cfg.CookiePath())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: [broken"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: https://file.example.com\n"), 0o600))
	t.Setenv("BACKOFFICE_API_URL", "https://env.example.com")
	t.Setenv("BACKOFFICE_DATA_DIR", "/tmp/backoffice-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.APIBaseURL)
	require.Equal(t, "/tmp/backoffice-env", cfg.DataDir)
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("BACKOFFICE_TEST_KEY", "")
	require.Equal(t, "fallback", config.GetEnv("BACKOFFICE_TEST_KEY", "fallback"))

	t.Setenv("BACKOFFICE_TEST_KEY", "set")
	require.Equal(t, "set", config.GetEnv("BACKOFFICE_TEST_KEY", "set"))
}
