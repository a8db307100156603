package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/quentra/backoffice-client/authapi"
	"github.com/quentra/backoffice-client/gateway"
	"github.com/quentra/backoffice-client/internal/config"
	"github.com/quentra/backoffice-client/permissions"
	"github.com/quentra/backoffice-client/session"
	"github.com/quentra/backoffice-client/store"
	"github.com/quentra/backoffice-client/tenants"
)

// app wires the session core together for the CLI commands.
type app struct {
	cfg  *config.Config
	repo *store.SQLiteRepo
	gw   *gateway.Gateway
	ctrl *session.Controller
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".backoffice", "config.yaml")
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[newApp] creating data dir")
	}

	mirror := store.NewCookieFile(cfg.CookiePath())
	repo, err := store.OpenSQLite(cfg.SessionDBPath(), mirror)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(cfg.APIBaseURL, repo,
		gateway.WithTimeout(cfg.HTTPTimeout()),
		gateway.WithLoginPath(cfg.LoginPath),
		gateway.WithNavigator(func(string) {
			fmt.Fprintln(os.Stderr, "Session expired. Run 'backoffice login' to sign in again.")
		}),
	)

	ctrl, err := session.New(session.Deps{
		Store:       repo,
		Auth:        authapi.NewClient(gw),
		Tenants:     tenants.NewClient(gw),
		Permissions: permissions.NewResolver(gw, repo),
		Gateway:     gw,
	}, session.WithPaths(cfg.LoginPath, cfg.DashboardPath))
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &app{cfg: cfg, repo: repo, gw: gw, ctrl: ctrl}, nil
}

func (a *app) close() {
	a.ctrl.Close()
	if err := a.repo.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing session store: %s\n", err)
	}
}
