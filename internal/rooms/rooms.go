// Package rooms maintains the session <-> room subscription index the
// fan-out reads from. Group rooms are seeded from the membership directory
// at connect time; conversation rooms are joined and left on client request.
package rooms

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/domain"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

// MembershipDirectory is the external collaborator answering which groups
// a user is an active member of. Results are paged.
type MembershipDirectory interface {
	ActiveGroups(ctx context.Context, profileID string, page, pageSize int) (groupIDs []string, more bool, err error)
}

// Config bounds the connect-time auto-join. The original silently fetched a
// single page; the page size and total cap are explicit here.
type Config struct {
	PageSize  int
	MaxGroups int
}

// Manager owns the room->sessions and session->rooms maps. A session must
// be tracked (AddSession) before joins apply; once dropped, late joins are
// no-ops, which is what lets a disconnect race an in-flight auto-join and
// still settle with the session absent everywhere.
type Manager struct {
	directory MembershipDirectory
	cfg       Config
	logger    zerolog.Logger

	mu        sync.RWMutex
	byRoom    map[domain.RoomKey]map[string]struct{}
	bySession map[string]map[domain.RoomKey]struct{}
}

func NewManager(directory MembershipDirectory, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxGroups <= 0 {
		cfg.MaxGroups = 1000
	}
	return &Manager{
		directory: directory,
		cfg:       cfg,
		logger:    logger,
		byRoom:    make(map[domain.RoomKey]map[string]struct{}),
		bySession: make(map[string]map[domain.RoomKey]struct{}),
	}
}

// AddSession starts tracking a session with no subscriptions.
func (m *Manager) AddSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySession[sessionID]; !ok {
		m.bySession[sessionID] = make(map[domain.RoomKey]struct{})
	}
}

// Join subscribes the session to a room. Idempotent. Reports false when the
// session is not tracked (already disconnected).
func (m *Manager) Join(sessionID string, key domain.RoomKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joinLocked(sessionID, key)
}

func (m *Manager) joinLocked(sessionID string, key domain.RoomKey) bool {
	rooms, ok := m.bySession[sessionID]
	if !ok {
		return false
	}
	rooms[key] = struct{}{}

	sessions, ok := m.byRoom[key]
	if !ok {
		sessions = make(map[string]struct{})
		m.byRoom[key] = sessions
	}
	sessions[sessionID] = struct{}{}
	return true
}

// Leave unsubscribes the session from a room. Idempotent.
func (m *Manager) Leave(sessionID string, key domain.RoomKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(sessionID, key)
}

func (m *Manager) leaveLocked(sessionID string, key domain.RoomKey) {
	if rooms, ok := m.bySession[sessionID]; ok {
		delete(rooms, key)
	}
	if sessions, ok := m.byRoom[key]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(m.byRoom, key)
		}
	}
}

// AutoJoinGroups joins the session to one room per active group membership,
// paging the directory to completion. Directory failures leave whatever
// partial result was already joined; the connection itself never fails on
// this path.
func (m *Manager) AutoJoinGroups(ctx context.Context, sessionID, profileID string) {
	logger := log.Ctx(ctx).With().
		Str(log.FieldSessionID, sessionID).
		Str(log.FieldUserID, profileID).
		Logger()

	joined := 0
	for page := 1; ; page++ {
		groupIDs, more, err := m.directory.ActiveGroups(ctx, profileID, page, m.cfg.PageSize)
		if err != nil {
			logger.Warn().Err(err).Int("joined", joined).Msg("group auto-join incomplete")
			return
		}

		keys := make([]domain.RoomKey, 0, len(groupIDs))
		for _, id := range groupIDs {
			keys = append(keys, domain.GroupRoom(id))
		}
		if !m.joinBatch(sessionID, keys) {
			logger.Debug().Msg("session gone before auto-join finished")
			return
		}
		joined += len(keys)

		if joined >= m.cfg.MaxGroups {
			logger.Warn().Int("joined", joined).Int("max", m.cfg.MaxGroups).
				Msg("auto-join group cap reached")
			return
		}
		if !more {
			break
		}
	}

	logger.Debug().Int("joined", joined).Msg("auto-joined group rooms")
}

// joinBatch inserts one page of rooms under a single lock acquisition.
func (m *Manager) joinBatch(sessionID string, keys []domain.RoomKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySession[sessionID]; !ok {
		return false
	}
	for _, key := range keys {
		m.joinLocked(sessionID, key)
	}
	return true
}

// RoomsOf returns a snapshot of the session's subscriptions.
func (m *Manager) RoomsOf(sessionID string) []domain.RoomKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := m.bySession[sessionID]
	out := make([]domain.RoomKey, 0, len(rooms))
	for key := range rooms {
		out = append(out, key)
	}
	return out
}

// SessionsIn returns a snapshot of the session ids subscribed to a room.
func (m *Manager) SessionsIn(key domain.RoomKey) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := m.byRoom[key]
	out := make([]string, 0, len(sessions))
	for id := range sessions {
		out = append(out, id)
	}
	return out
}

// DropSession removes the session and all its subscriptions. After this,
// joins for the session no longer apply.
func (m *Manager) DropSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.bySession[sessionID] {
		m.leaveLocked(sessionID, key)
	}
	delete(m.bySession, sessionID)
}
