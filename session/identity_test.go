package session_test

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tourvista/go-tour-client/session"
)

func makeToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestDecodeIdentity(t *testing.T) {
	accessToken := makeToken(t, jwtlib.MapClaims{
		"sub":      float64(42),
		"username": "marco",
		"email":    "marco@example.com",
		"role":     "guide",
	})

	identity, err := session.DecodeIdentity(accessToken)
	require.NoError(t, err)
	require.Equal(t, session.Identity{
		ID:       42,
		Username: "marco",
		Email:    "marco@example.com",
		Role:     "guide",
	}, identity)
}

func TestDecodeIdentityStringSubject(t *testing.T) {
	accessToken := makeToken(t, jwtlib.MapClaims{
		"sub":      "7",
		"username": "ines",
	})

	identity, err := session.DecodeIdentity(accessToken)
	require.NoError(t, err)
	require.Equal(t, int64(7), identity.ID)
}

func TestDecodeIdentityPreferredUsernameFallback(t *testing.T) {
	accessToken := makeToken(t, jwtlib.MapClaims{
		"sub":                float64(3),
		"preferred_username": "tomas",
	})

	identity, err := session.DecodeIdentity(accessToken)
	require.NoError(t, err)
	require.Equal(t, "tomas", identity.Username)
}

func TestDecodeIdentityMalformedToken(t *testing.T) {
	_, err := session.DecodeIdentity("not-a-jwt")
	require.Error(t, err)
}

func TestDecodeIdentityEmptyRecord(t *testing.T) {
	accessToken := makeToken(t, jwtlib.MapClaims{
		"sub": float64(5), // no username
	})

	_, err := session.DecodeIdentity(accessToken)
	require.ErrorIs(t, err, session.InvalidIdentityErr)
}
