// Package token renews the session's access credential against the
// token-exchange endpoint.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	NoRefreshCredentialErr = errors.New("no refresh credential")
	RefreshFailedErr       = errors.New("refresh failed")
)

// Exchanger performs the token-exchange network call.
type Exchanger interface {
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// SessionStore is the slice of the session store the refresher needs.
type SessionStore interface {
	CurrentRefreshToken() string
	SetAccessToken(accessToken string) error
	SignOut()
}

// Refresher exchanges the stored refresh credential for a new access
// credential. A failed exchange always invalidates the whole session:
// refresh failure means the session cannot be renewed, never "try
// later", so there is no retry loop here.
type Refresher struct {
	store     SessionStore
	exchanger Exchanger
	logger    zerolog.Logger
}

// NewRefresher creates a refresher over the session store and exchange
// endpoint.
func NewRefresher(store SessionStore, exchanger Exchanger, logger zerolog.Logger) *Refresher {
	return &Refresher{
		store:     store,
		exchanger: exchanger,
		logger:    logger,
	}
}

// Refresh performs exactly one exchange call and returns the new access
// token. On success only the access token in the store is replaced; the
// refresh token and identity are untouched. With no refresh credential
// present it fails immediately without contacting the network. An
// exchange aborted by ctx is not a verdict on the session and leaves
// the store as it was.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	refreshToken := r.store.CurrentRefreshToken()
	if refreshToken == "" {
		return "", NoRefreshCredentialErr
	}

	accessToken, err := r.exchanger.RefreshToken(ctx, refreshToken)
	if err != nil {
		if ctx.Err() != nil {
			// A cancelled exchange says nothing about the session's
			// validity; leave it untouched.
			return "", err
		}
		r.logger.Warn().Err(err).Msg("token exchange failed, clearing session")
		r.store.SignOut()
		return "", fmt.Errorf("%w: %v", RefreshFailedErr, err)
	}

	if err := r.store.SetAccessToken(accessToken); err != nil {
		r.logger.Warn().Err(err).Msg("failed to persist refreshed access token, clearing session")
		r.store.SignOut()
		return "", fmt.Errorf("%w: %v", RefreshFailedErr, err)
	}

	return accessToken, nil
}
