package gateway_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quentra/backoffice-client/gateway"
	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/store/storefakes"
)

type fixture struct {
	repo      *storefakes.FakeRepo
	gw        *gateway.Gateway
	navigated []string
}

func setup(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f := &fixture{repo: storefakes.NewFakeRepo()}
	f.gw = gateway.New(server.URL, f.repo,
		gateway.WithNavigator(func(target string) {
			f.navigated = append(f.navigated, target)
		}),
	)
	return f
}

func TestOutgoingHeaders(t *testing.T) {
	var gotAuth, gotTenant, gotRequestID string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("X-Tenant-Id")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{"ok":true}`))
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-1"))
	require.NoError(t, f.repo.SetSelectedTenantID("t2"))

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, f.gw.Get(context.Background(), "/api/v1/ping", &out))
	require.True(t, out.OK)
	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, "t2", gotTenant)
	require.NotEmpty(t, gotRequestID)
}

func TestNoHeadersWhenStoreEmpty(t *testing.T) {
	var hadAuth, hadTenant bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, hadTenant = r.Header["X-Tenant-Id"]
		w.Write([]byte(`{}`))
	})

	f := setup(t, mux)
	require.NoError(t, f.gw.Get(context.Background(), "/api/v1/ping", nil))
	require.False(t, hadAuth)
	require.False(t, hadTenant)
}

func TestRefreshRetryOnce(t *testing.T) {
	var refreshCalls, protectedCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if string(body) != "ref-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"accessToken":"tok-new","refreshToken":"ref-2"}`))
	})
	mux.HandleFunc("POST /api/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-old"))
	require.NoError(t, f.repo.SetRefreshToken("ref-1"))

	var out struct {
		Value string `json:"value"`
	}
	err := f.gw.Post(context.Background(), "/api/v1/echo", map[string]string{"value": "hello"}, &out)
	require.NoError(t, err)
	require.Equal(t, "hello", out.Value, "retried request must replay the original body")

	require.Equal(t, int32(1), refreshCalls.Load(), "refresh endpoint called exactly once")
	require.Equal(t, int32(2), protectedCalls.Load())
	require.Equal(t, "tok-new", f.repo.AccessToken())
	require.Equal(t, "ref-2", f.repo.RefreshToken())
	require.Empty(t, f.navigated, "successful recovery must not navigate")
	require.False(t, f.gw.Ended())
}

func TestRefreshFailureTearsDown(t *testing.T) {
	var refreshCalls, protectedCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-old"))
	require.NoError(t, f.repo.SetRefreshToken("ref-bad"))

	err := f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, int32(1), protectedCalls.Load(), "no retry after failed refresh")
	require.Equal(t, 1, f.repo.ClearAllCalls)
	require.Nil(t, f.repo.Session())
	require.Equal(t, []string{"/login"}, f.navigated)
	require.True(t, f.gw.Ended())
}

func TestNoRefreshTokenTearsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-old"))

	err := f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Equal(t, http.StatusUnauthorized, gateway.StatusOf(err))

	require.Equal(t, 1, f.repo.ClearAllCalls)
	require.Equal(t, []string{"/login"}, f.navigated)

	// Teardown is terminal: a second failing call does not navigate again.
	require.NoError(t, f.repo.SetAccessToken("tok-old"))
	_ = f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.Equal(t, []string{"/login"}, f.navigated)
	require.Equal(t, 1, f.repo.ClearAllCalls)
}

func TestUnauthenticated401PassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"title":"Invalid email or password"}`))
	})

	f := setup(t, mux)

	err := f.gw.Post(context.Background(), "/api/v1/auth/login", map[string]string{"email": "a@x.com"}, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, gateway.StatusOf(err))

	require.Zero(t, f.repo.ClearAllCalls, "a credential failure must not tear the session down")
	require.Empty(t, f.navigated)
	require.False(t, f.gw.Ended())
}

func TestNon401ErrorsPassThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"title":"Validation failed","errors":{"email":["Email is required"]}}`))
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-1"))

	err := f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, gateway.StatusOf(err))
	require.Contains(t, err.Error(), "Email is required")
	require.Zero(t, f.repo.ClearAllCalls)
	require.Empty(t, f.navigated)
}

func TestResetReArmsRecovery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setup(t, mux)
	require.NoError(t, f.repo.SetAccessToken("tok-old"))

	_ = f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.True(t, f.gw.Ended())

	f.gw.Reset()
	require.False(t, f.gw.Ended())

	require.NoError(t, f.repo.SetAccessToken("tok-new"))
	_ = f.gw.Get(context.Background(), "/api/v1/data", nil)
	require.Equal(t, []string{"/login", "/login"}, f.navigated)
}
