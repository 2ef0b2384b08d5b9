package session

import (
	"strconv"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DecodeIdentity extracts the user profile from an access token without
// verifying its signature. Verification belongs to the backend; the
// decoded record is trusted for display only.
func DecodeIdentity(accessToken string) (Identity, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return Identity{}, errors.Wrap(err, "[DecodeIdentity] parse token")
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Identity{}, errors.New("[DecodeIdentity] error extracting claims")
	}

	var identity Identity
	switch sub := claims["sub"].(type) {
	case float64:
		identity.ID = int64(sub)
	case string:
		if n, err := strconv.ParseInt(sub, 10, 64); err == nil {
			identity.ID = n
		}
	}
	identity.Username, _ = claims["username"].(string)
	if identity.Username == "" {
		identity.Username, _ = claims["preferred_username"].(string)
	}
	identity.Email, _ = claims["email"].(string)
	identity.Role, _ = claims["role"].(string)

	if !identity.Valid() {
		return Identity{}, InvalidIdentityErr
	}
	return identity, nil
}
