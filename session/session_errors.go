package session

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid credentials")
	InvalidIdentityErr    = errors.New("invalid identity")
)
