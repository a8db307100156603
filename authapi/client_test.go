package authapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quentra/backoffice-client/authapi"
	"github.com/quentra/backoffice-client/gateway"
	apperrors "github.com/quentra/backoffice-client/internal/errors"
	"github.com/quentra/backoffice-client/tenants"
	"github.com/quentra/backoffice-client/users"
)

type fakePoster struct {
	paths []string
	resp  *authapi.LoginResponse
	err   error
}

func (f *fakePoster) Post(_ context.Context, path string, body, out any) error {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return f.err
	}
	if resp, ok := out.(*authapi.LoginResponse); ok && f.resp != nil {
		*resp = *f.resp
	}
	return nil
}

func TestLoginTokensOnly(t *testing.T) {
	api := &fakePoster{resp: &authapi.LoginResponse{AccessToken: "tok", RefreshToken: "ref"}}
	client := authapi.NewClient(api)

	resp, err := client.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok", resp.AccessToken)
	require.Equal(t, "ref", resp.RefreshToken)
	require.Nil(t, resp.User)
	require.Equal(t, []string{"/api/v1/auth/login"}, api.paths)
}

func TestLoginEmbeddedProfile(t *testing.T) {
	api := &fakePoster{resp: &authapi.LoginResponse{
		AccessToken:  "tok",
		RefreshToken: "ref",
		User:         &users.User{ID: "u1", Email: "a@x.com"},
		Tenants:      []tenants.Tenant{{ID: "t1"}, {ID: "t2"}},
	}}
	client := authapi.NewClient(api)

	resp, err := client.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "u1", resp.User.ID)
	require.Len(t, resp.Tenants, 2)
}

func TestLogin401MapsToInvalidCredentials(t *testing.T) {
	api := &fakePoster{err: &gateway.APIError{Status: 401, Title: "Invalid email or password"}}
	client := authapi.NewClient(api)

	_, err := client.Login(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "Invalid email or password")
}

func TestLoginMissingToken(t *testing.T) {
	api := &fakePoster{resp: &authapi.LoginResponse{}}
	client := authapi.NewClient(api)

	_, err := client.Login(context.Background(), "a@x.com", "secret")
	require.Error(t, err)
}

func TestRevokePath(t *testing.T) {
	api := &fakePoster{}
	client := authapi.NewClient(api)

	require.NoError(t, client.Revoke(context.Background()))
	require.Equal(t, []string{"/api/v1/auth/revoke"}, api.paths)
}
