// Package router fans a single event out to every live session in a room
// or every device of a user. Delivery is best-effort: this is the live
// channel, durability belongs to the message store.
package router

import (
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/domain"
	"github.com/wilber023/aura-messasing-service/internal/registry"
	"github.com/wilber023/aura-messasing-service/internal/rooms"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

type Router struct {
	registry *registry.Registry
	rooms    *rooms.Manager
	logger   zerolog.Logger
}

func New(reg *registry.Registry, rm *rooms.Manager, logger zerolog.Logger) *Router {
	return &Router{
		registry: reg,
		rooms:    rm,
		logger:   logger,
	}
}

// EmitToRoom pushes the event once to each session currently subscribed to
// the room, skipping excludeSession (empty string excludes nobody). A
// recipient whose transport is gone or saturated is skipped; it never
// aborts delivery to the rest. Returns the number of deliveries enqueued.
func (r *Router) EmitToRoom(key domain.RoomKey, event string, payload any, excludeSession string) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error().Err(err).Str(log.FieldEvent, event).Msg("failed to encode event")
		return 0
	}

	delivered := 0
	for _, sessionID := range r.rooms.SessionsIn(key) {
		if sessionID == excludeSession {
			continue
		}
		t, ok := r.registry.Transport(sessionID)
		if !ok {
			// Disconnected between snapshot and delivery. Benign.
			continue
		}
		if t.Enqueue(frame) {
			delivered++
		} else {
			r.logger.Debug().Str(log.FieldSessionID, sessionID).Str(log.FieldEvent, event).
				Msg("dropped event for saturated session")
		}
	}

	r.logger.Debug().Str(log.FieldRoom, string(key)).Str(log.FieldEvent, event).
		Int("delivered", delivered).Msg("room fan-out")
	return delivered
}

// EmitToUser pushes the event to every live device of the user.
func (r *Router) EmitToUser(profileID, event string, payload any) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error().Err(err).Str(log.FieldEvent, event).Msg("failed to encode event")
		return 0
	}

	delivered := 0
	for _, t := range r.registry.SessionsOf(profileID) {
		if t.Enqueue(frame) {
			delivered++
		}
	}

	r.logger.Debug().Str(log.FieldUserID, profileID).Str(log.FieldEvent, event).
		Int("delivered", delivered).Msg("user fan-out")
	return delivered
}

func encodeFrame(event string, payload any) ([]byte, error) {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return nil, err
	}
	return env.Encode()
}
