package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid credentials")
	AuthServiceErr        = errors.New("auth service error")
)
