package token_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tourvista/go-tour-client/session"
	"github.com/tourvista/go-tour-client/session/storefake"
	"github.com/tourvista/go-tour-client/token"
)

type fakeExchanger struct {
	calls       int
	accessToken string
	err         error
}

func (f *fakeExchanger) RefreshToken(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.accessToken, nil
}

var testIdentity = session.Identity{ID: 1, Username: "a"}

func signedInStore(t *testing.T) (*session.Store, *storefake.FakeStorage) {
	t.Helper()
	storage := storefake.NewFakeStorage()
	store := session.NewStore(storage, zerolog.Nop())
	require.NoError(t, store.SignIn(testIdentity, "t1", "r1"))
	return store, storage
}

func TestRefreshReplacesOnlyAccessToken(t *testing.T) {
	store, _ := signedInStore(t)
	exchanger := &fakeExchanger{accessToken: "t2"}
	refresher := token.NewRefresher(store, exchanger, zerolog.Nop())

	accessToken, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t2", accessToken)
	require.Equal(t, 1, exchanger.calls)

	require.Equal(t, "t2", store.CurrentAccessToken())
	require.Equal(t, "r1", store.CurrentRefreshToken())
	identity, ok := store.CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, testIdentity, identity)
}

func TestRefreshWithoutCredential(t *testing.T) {
	storage := storefake.NewFakeStorage()
	store := session.NewStore(storage, zerolog.Nop())
	exchanger := &fakeExchanger{accessToken: "t2"}
	refresher := token.NewRefresher(store, exchanger, zerolog.Nop())

	_, err := refresher.Refresh(context.Background())
	require.ErrorIs(t, err, token.NoRefreshCredentialErr)
	require.Zero(t, exchanger.calls, "must not contact the network without a refresh credential")
}

type blockingExchanger struct {
	calls int
}

func (b *blockingExchanger) RefreshToken(ctx context.Context, _ string) (string, error) {
	b.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRefreshCancelledKeepsSession(t *testing.T) {
	store, _ := signedInStore(t)
	refresher := token.NewRefresher(store, &blockingExchanger{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := refresher.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, token.RefreshFailedErr)

	// An aborted exchange is not a failed one: the session survives.
	require.True(t, store.IsAuthenticated())
	require.Equal(t, "t1", store.CurrentAccessToken())
	require.Equal(t, "r1", store.CurrentRefreshToken())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	store, storage := signedInStore(t)
	exchanger := &fakeExchanger{err: errors.New("exchange rejected")}
	refresher := token.NewRefresher(store, exchanger, zerolog.Nop())

	_, err := refresher.Refresh(context.Background())
	require.ErrorIs(t, err, token.RefreshFailedErr)

	require.False(t, store.IsAuthenticated())
	require.Empty(t, store.CurrentAccessToken())
	require.Empty(t, store.CurrentRefreshToken())
	_, ok := storage.Get(session.RefreshTokenKey)
	require.False(t, ok)
}
