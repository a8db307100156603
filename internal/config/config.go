package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the client configuration, loaded from a YAML file with
// environment-variable overrides.
type Config struct {
	AppName         string `yaml:"app_name"`
	APIBaseURL      string `yaml:"api_base_url"`
	DataDir         string `yaml:"data_dir"`
	LoginPath       string `yaml:"login_path"`
	DashboardPath   string `yaml:"dashboard_path"`
	HTTPTimeoutSecs int    `yaml:"http_timeout_secs"`
}

// ApplyDefaults fills zero-valued fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.AppName == "" {
		cfg.AppName = "Backoffice"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://localhost:7054"
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".backoffice")
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/dashboard"
	}
	if cfg.HTTPTimeoutSecs == 0 {
		cfg.HTTPTimeoutSecs = 30
	}
}

// applyEnv lets environment variables override file values.
func (cfg *Config) applyEnv() {
	cfg.APIBaseURL = GetEnv("BACKOFFICE_API_URL", cfg.APIBaseURL)
	cfg.DataDir = GetEnv("BACKOFFICE_DATA_DIR", cfg.DataDir)
}

// HTTPTimeout returns the request timeout as a time.Duration.
func (cfg *Config) HTTPTimeout() time.Duration {
	return time.Duration(cfg.HTTPTimeoutSecs) * time.Second
}

// SessionDBPath is the SQLite file holding persisted session state.
func (cfg *Config) SessionDBPath() string {
	return filepath.Join(cfg.DataDir, "session.db")
}

// CookiePath is the mirrored access-token cookie file.
func (cfg *Config) CookiePath() string {
	return filepath.Join(cfg.DataDir, "cookie")
}

// Load reads configuration from path. A missing file is not an error: the
// defaults describe a working local setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, errors.Wrap(err, "[config.Load] reading config file")
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrap(err, "[config.Load] parsing config file")
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// GetEnv returns the environment variable value or fallback when unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
