// Package registry tracks which transport connections belong to which
// user. It is the authoritative in-memory view of who is connected; the
// persisted online flag is derived from it, never the other way around.
package registry

import (
	"sync"
)

// Transport is the live connection a session writes to. Enqueue must not
// block; it reports false when the connection can no longer accept.
type Transport interface {
	SessionID() string
	Enqueue(frame []byte) bool
}

// Registry maps profile id -> set of live sessions, with a reverse index
// from session id to its owner. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]Transport // profileID -> sessionID -> transport
	owners map[string]string               // sessionID -> profileID
}

func New() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]Transport),
		owners: make(map[string]string),
	}
}

// Register adds the session under the user and reports whether it was the
// user's first live session. Registering an already-known session id is a
// no-op that keeps the original transport handle.
func (r *Registry) Register(profileID, sessionID string, t Transport) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.byUser[profileID]
	if !ok {
		sessions = make(map[string]Transport)
		r.byUser[profileID] = sessions
	}

	if _, dup := sessions[sessionID]; dup {
		return false
	}

	first = len(sessions) == 0
	sessions[sessionID] = t
	r.owners[sessionID] = profileID
	return first
}

// Unregister removes the session from its owner's set. becameEmpty is true
// only when this removal emptied the set; that is the single gate for an
// offline transition. Unknown session ids are a no-op.
func (r *Registry) Unregister(sessionID string) (profileID string, becameEmpty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profileID, ok := r.owners[sessionID]
	if !ok {
		return "", false
	}
	delete(r.owners, sessionID)

	sessions := r.byUser[profileID]
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(r.byUser, profileID)
		return profileID, true
	}
	return profileID, false
}

// SessionsOf returns a snapshot of the user's live transports. Empty for
// unknown or offline users.
func (r *Registry) SessionsOf(profileID string) []Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.byUser[profileID]
	out := make([]Transport, 0, len(sessions))
	for _, t := range sessions {
		out = append(out, t)
	}
	return out
}

// SessionCount returns the number of live sessions for a user.
func (r *Registry) SessionCount(profileID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[profileID])
}

// Transport resolves a session id to its live transport.
func (r *Registry) Transport(sessionID string) (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profileID, ok := r.owners[sessionID]
	if !ok {
		return nil, false
	}
	t, ok := r.byUser[profileID][sessionID]
	return t, ok
}

// Online reports whether the user has at least one live session.
func (r *Registry) Online(profileID string) bool {
	return r.SessionCount(profileID) > 0
}

// OnlineUsers returns a snapshot of every profile id with a live session.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byUser))
	for profileID := range r.byUser {
		out = append(out, profileID)
	}
	return out
}
