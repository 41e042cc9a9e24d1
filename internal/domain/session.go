package domain

import (
	"time"
)

// Identity is the decoded owner of a connection. ProfileID is the stable
// key a logical account is addressed by across devices; UserID is the
// account row id carried alongside it in the credential.
type Identity struct {
	UserID    string
	ProfileID string
	Username  string
}

// Session is the per-connection state. One user may hold several sessions
// at once, one per device or tab.
type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time
}

func NewSession(id string, identity Identity) *Session {
	return &Session{
		ID:        id,
		Identity:  identity,
		CreatedAt: time.Now(),
	}
}
