package session

// Keys under which the session fields are persisted.
const (
	AccessTokenKey  = "tourvista.access_token"
	RefreshTokenKey = "tourvista.refresh_token"
	IdentityKey     = "tourvista.identity"
)

// Storage is durable key→string storage scoped to the client, surviving
// restarts. Writes must be visible to subsequent Gets from the same
// process immediately.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Watcher reports when another client instance mutates the shared
// underlying storage. The notification is advisory: subscribers
// re-derive their own state from storage rather than trusting any
// payload.
type Watcher interface {
	// Changes returns a channel receiving one signal per external
	// mutation. It is closed when the watcher is closed.
	Changes() <-chan struct{}
	Close() error
}
