// Package auth drives sign-in, sign-out and profile updates against the
// session store. Together with payments.Reconciler it is the only
// surface UI layers consume.
package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tourvista/go-tour-client/client"
	"github.com/tourvista/go-tour-client/session"
)

// API is the credential exchange endpoint.
type API interface {
	SignIn(ctx context.Context, email, password string) (*client.TokenPair, error)
}

// Service owns the sign-in flow: exchange credentials for tokens,
// decode the identity from the access token, and populate the session
// store atomically.
type Service struct {
	store  *session.Store
	api    API
	logger zerolog.Logger
}

// NewService creates the auth service over the session store and the
// sign-in exchange endpoint.
func NewService(store *session.Store, api API, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		api:    api,
		logger: logger,
	}
}

// SignIn exchanges the user's credentials for a token pair, decodes the
// identity from the access token and persists all three fields. A
// rejected exchange or an undecodable identity yields
// InvalidCredentialsErr; any other exchange failure yields
// AuthServiceErr. Nothing is persisted on failure.
func (s *Service) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	pair, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) || client.IsStatus(err, http.StatusBadRequest) {
			return session.Identity{}, InvalidCredentialsErr
		}
		return session.Identity{}, errors.Wrap(err, AuthServiceErr.Error())
	}

	identity, err := session.DecodeIdentity(pair.AccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("access token identity undecodable")
		return session.Identity{}, InvalidCredentialsErr
	}

	if err := s.store.SignIn(identity, pair.AccessToken, pair.RefreshToken); err != nil {
		return session.Identity{}, errors.Wrap(err, "[Service.SignIn] persist session")
	}

	s.logger.Info().Str("username", identity.Username).Msg("signed in")
	return identity, nil
}

// SignOut clears the session. Idempotent.
func (s *Service) SignOut() {
	s.store.SignOut()
	s.logger.Info().Msg("signed out")
}

// UpdateIdentity replaces the signed-in user's profile, leaving both
// tokens untouched.
func (s *Service) UpdateIdentity(identity session.Identity) error {
	return s.store.UpdateIdentity(identity)
}

// IsAuthenticated reports whether a session is held.
func (s *Service) IsAuthenticated() bool {
	return s.store.IsAuthenticated()
}

// CurrentIdentity returns the signed-in identity, if any.
func (s *Service) CurrentIdentity() (session.Identity, bool) {
	return s.store.CurrentIdentity()
}
