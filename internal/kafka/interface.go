package kafka

import (
	"context"

	"github.com/wilber023/aura-messasing-service/internal/domain"
)

// MessageEvent is what the message store publishes after persisting a
// message. The gateway only fans it out; it never persists anything.
type MessageEvent struct {
	Kind     string         `json:"kind"` // conversation | group
	TargetID string         `json:"targetId"`
	Message  domain.Message `json:"message"`
}

// Emitter fans a stored message out to its room. Satisfied by hub.Gateway.
type Emitter interface {
	EmitToRoom(kind domain.RoomKind, targetID, event string, payload any) (int, error)
}

// MessageConsumer consumes persisted-message events until closed.
type MessageConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
