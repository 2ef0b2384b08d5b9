package auth_test

import (
	"context"
	"errors"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tourvista/go-tour-client/auth"
	"github.com/tourvista/go-tour-client/client"
	"github.com/tourvista/go-tour-client/session"
	"github.com/tourvista/go-tour-client/session/storefake"
)

type fakeAPI struct {
	calls int
	pair  *client.TokenPair
	err   error
}

func (f *fakeAPI) SignIn(_ context.Context, _, _ string) (*client.TokenPair, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func makeAccessToken(t *testing.T, id int64, username string) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":      float64(id),
		"username": username,
		"email":    username + "@example.com",
		"role":     "traveller",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func newTestService(api *fakeAPI) (*auth.Service, *session.Store) {
	store := session.NewStore(storefake.NewFakeStorage(), zerolog.Nop())
	return auth.NewService(store, api, zerolog.Nop()), store
}

func TestSignIn(t *testing.T) {
	accessToken := makeAccessToken(t, 1, "a")
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: accessToken, RefreshToken: "r1"}}
	service, store := newTestService(api)

	identity, err := service.SignIn(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, int64(1), identity.ID)
	require.Equal(t, "a", identity.Username)

	require.True(t, service.IsAuthenticated())
	current, ok := service.CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, "a", current.Username)
	require.Equal(t, accessToken, store.CurrentAccessToken())
	require.Equal(t, "r1", store.CurrentRefreshToken())
}

func TestSignInRejected(t *testing.T) {
	api := &fakeAPI{err: &client.HTTPError{StatusCode: 401, Message: "bad credentials"}}
	service, store := newTestService(api)

	_, err := service.SignIn(context.Background(), "a@example.com", "wrong")
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	require.False(t, store.IsAuthenticated())
}

func TestSignInExchangeUnavailable(t *testing.T) {
	api := &fakeAPI{err: errors.New("connection refused")}
	service, store := newTestService(api)

	_, err := service.SignIn(context.Background(), "a@example.com", "secret")
	require.Error(t, err)
	require.ErrorContains(t, err, auth.AuthServiceErr.Error())
	require.False(t, store.IsAuthenticated())
}

func TestSignInUndecodableToken(t *testing.T) {
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: "garbage", RefreshToken: "r1"}}
	service, store := newTestService(api)

	_, err := service.SignIn(context.Background(), "a@example.com", "secret")
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	require.False(t, store.IsAuthenticated())
	require.Empty(t, store.CurrentAccessToken())
}

func TestSignOut(t *testing.T) {
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: makeAccessToken(t, 1, "a"), RefreshToken: "r1"}}
	service, _ := newTestService(api)

	_, err := service.SignIn(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)

	service.SignOut()
	require.False(t, service.IsAuthenticated())
	_, ok := service.CurrentIdentity()
	require.False(t, ok)
}

func TestUpdateIdentity(t *testing.T) {
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: makeAccessToken(t, 1, "a"), RefreshToken: "r1"}}
	service, _ := newTestService(api)

	_, err := service.SignIn(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, service.UpdateIdentity(session.Identity{ID: 1, Username: "a", Email: "new@example.com"}))
	identity, ok := service.CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, "new@example.com", identity.Email)

	require.ErrorIs(t, service.UpdateIdentity(session.Identity{}), session.InvalidIdentityErr)
}
