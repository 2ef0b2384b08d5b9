package session

// Identity is the signed-in user's profile, decoded from the access
// token at sign-in. It is display data only: authorization decisions
// remain a server concern and the decoded payload is never re-validated
// client-side.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Valid reports whether the identity is a usable, non-empty record.
func (id Identity) Valid() bool {
	return id.ID != 0 && id.Username != ""
}
