package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store is the single source of truth for who is signed in and with
// what credentials. One instance is shared process-wide; every mutation
// is a single atomic operation under an internal lock, so no caller can
// observe a half-updated session.
type Store struct {
	storage Storage
	logger  zerolog.Logger

	mu            sync.RWMutex
	accessToken   string
	refreshToken  string
	identity      *Identity
	authenticated bool
}

// NewStore creates a session store over the given persisted storage.
// Call Initialize to load any previously persisted session.
func NewStore(storage Storage, logger zerolog.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
	}
}

// Initialize loads the persisted session into memory. The session is
// authenticated only if an access token is present and the persisted
// identity parses as a non-empty record; anything missing or malformed
// degrades to signed-out. Initialize never fails.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken, okToken := s.storage.Get(AccessTokenKey)
	identityJSON, okIdentity := s.storage.Get(IdentityKey)
	if !okToken || !okIdentity || accessToken == "" {
		s.clearLocked()
		return
	}

	var identity Identity
	if err := json.Unmarshal([]byte(identityJSON), &identity); err != nil || !identity.Valid() {
		s.logger.Warn().Msg("persisted identity unreadable, clearing session")
		s.clearLocked()
		return
	}

	refreshToken, _ := s.storage.Get(RefreshTokenKey)
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.identity = &identity
	s.authenticated = true
}

// SignIn persists the identity and both tokens and marks the session
// authenticated. On any persistence failure the store rolls back to
// fully signed-out rather than leaving partial credentials behind.
func (s *Store) SignIn(identity Identity, accessToken, refreshToken string) error {
	if !identity.Valid() || accessToken == "" || refreshToken == "" {
		return InvalidCredentialsErr
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return errors.Wrap(err, "[Store.SignIn] marshal identity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(AccessTokenKey, accessToken); err != nil {
		s.clearLocked()
		return errors.Wrap(err, "[Store.SignIn] persist access token")
	}
	if err := s.storage.Set(RefreshTokenKey, refreshToken); err != nil {
		s.clearLocked()
		return errors.Wrap(err, "[Store.SignIn] persist refresh token")
	}
	if err := s.storage.Set(IdentityKey, string(payload)); err != nil {
		s.clearLocked()
		return errors.Wrap(err, "[Store.SignIn] persist identity")
	}

	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.identity = &identity
	s.authenticated = true
	return nil
}

// SignOut clears all persisted fields and in-memory state. It is
// idempotent and never fails.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// UpdateIdentity replaces the persisted identity without touching
// either token.
func (s *Store) UpdateIdentity(identity Identity) error {
	if !identity.Valid() {
		return InvalidIdentityErr
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return errors.Wrap(err, "[Store.UpdateIdentity] marshal identity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(IdentityKey, string(payload)); err != nil {
		return errors.Wrap(err, "[Store.UpdateIdentity] persist identity")
	}
	s.identity = &identity
	return nil
}

// SetAccessToken replaces the access credential, leaving the refresh
// token and identity untouched. This is the token refresher's mutation.
func (s *Store) SetAccessToken(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(AccessTokenKey, accessToken); err != nil {
		return errors.Wrap(err, "[Store.SetAccessToken] persist access token")
	}
	s.accessToken = accessToken
	return nil
}

// CurrentAccessToken returns the access credential, or "" when signed
// out.
func (s *Store) CurrentAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// CurrentRefreshToken returns the refresh credential, or "" when none
// is held.
func (s *Store) CurrentRefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// CurrentIdentity returns the signed-in identity, if any.
func (s *Store) CurrentIdentity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// IsAuthenticated reports whether an access token and a valid identity
// are both held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Watch re-runs Initialize whenever the watcher reports that another
// client instance mutated the shared storage, so a sign-out in one
// instance propagates to all of them. The goroutine exits when the
// watcher is closed.
func (s *Store) Watch(w Watcher) {
	go func() {
		for range w.Changes() {
			s.logger.Debug().Msg("shared storage changed, reloading session")
			s.Initialize()
		}
	}()
}

// clearLocked wipes persisted and in-memory state. Callers hold s.mu.
func (s *Store) clearLocked() {
	_ = s.storage.Delete(AccessTokenKey)
	_ = s.storage.Delete(RefreshTokenKey)
	_ = s.storage.Delete(IdentityKey)
	s.accessToken = ""
	s.refreshToken = ""
	s.identity = nil
	s.authenticated = false
}
