// Package presence turns registry occupancy transitions into persisted
// online/offline state. Everything here is best-effort: a directory or
// store failure is logged and never propagates into the connection path.
package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/pkg/log"
)

// UserDirectory is the external collaborator persisting the online flag
// and last-seen timestamp on the user's profile row.
type UserDirectory interface {
	SetOnlineStatus(ctx context.Context, profileID string, online bool) error
}

// Config holds presence tracker settings.
type Config struct {
	// KeyTTL is how long the store's online key lives without a refresh.
	KeyTTL time.Duration
	// HeartbeatInterval is how often live users' keys are refreshed.
	HeartbeatInterval time.Duration
}

// Tracker fires directory and store updates on first-session and
// last-session transitions. It never derives state itself; the caller
// passes the transition booleans the registry computed under its lock.
type Tracker struct {
	directory UserDirectory
	store     Store
	cfg       Config
	logger    zerolog.Logger
}

func NewTracker(directory UserDirectory, store Store, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = 30 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 10 * time.Second
	}
	return &Tracker{
		directory: directory,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// SessionAdded is called once per successful register. Only the user's
// first session flips the persisted state.
func (t *Tracker) SessionAdded(ctx context.Context, profileID string, first bool) {
	if !first {
		return
	}

	if err := t.directory.SetOnlineStatus(ctx, profileID, true); err != nil {
		t.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("failed to persist online status")
	}
	if t.store != nil {
		if err := t.store.MarkOnline(ctx, profileID, t.cfg.KeyTTL); err != nil {
			t.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("failed to mark online in store")
		}
	}
	t.logger.Info().Str(log.FieldUserID, profileID).Msg("user online")
}

// SessionRemoved is called once per unregister. Only emptying the user's
// session set flips the persisted state.
func (t *Tracker) SessionRemoved(ctx context.Context, profileID string, becameEmpty bool) {
	if !becameEmpty {
		return
	}

	if err := t.directory.SetOnlineStatus(ctx, profileID, false); err != nil {
		t.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("failed to persist offline status")
	}
	if t.store != nil {
		if err := t.store.MarkOffline(ctx, profileID); err != nil {
			t.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("failed to mark offline in store")
		}
	}
	t.logger.Info().Str(log.FieldUserID, profileID).Msg("user offline")
}

// RunHeartbeat refreshes store TTLs for every currently-online user until
// the context is cancelled. Without a refresh path, a crashed process
// would leave users online forever; with it, keys simply expire.
func (t *Tracker) RunHeartbeat(ctx context.Context, onlineUsers func() []string) {
	if t.store == nil {
		return
	}

	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, profileID := range onlineUsers() {
				if err := t.store.MarkOnline(ctx, profileID, t.cfg.KeyTTL); err != nil {
					t.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("failed to refresh presence key")
				}
			}
		}
	}
}
