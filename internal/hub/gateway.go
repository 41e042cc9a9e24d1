// Package hub is the realtime gateway: it authenticates new connections,
// wires each one into the registry, room index and presence tracker, and
// exposes the emit operations the persistence side calls after it has
// stored a change.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/auth"
	"github.com/wilber023/aura-messasing-service/internal/config"
	"github.com/wilber023/aura-messasing-service/internal/domain"
	"github.com/wilber023/aura-messasing-service/internal/presence"
	"github.com/wilber023/aura-messasing-service/internal/registry"
	"github.com/wilber023/aura-messasing-service/internal/rooms"
	"github.com/wilber023/aura-messasing-service/internal/router"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

type Gateway struct {
	registry *registry.Registry
	rooms    *rooms.Manager
	presence *presence.Tracker
	router   *router.Router
	decoder  auth.TokenDecoder
	cfg      config.WebSocketConfig
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewGateway(
	reg *registry.Registry,
	rm *rooms.Manager,
	tracker *presence.Tracker,
	rt *router.Router,
	decoder auth.TokenDecoder,
	cfg config.WebSocketConfig,
	logger zerolog.Logger,
) *Gateway {
	return &Gateway{
		registry: reg,
		rooms:    rm,
		presence: tracker,
		router:   rt,
		decoder:  decoder,
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[*Client]struct{}),
	}
}

// Authenticate validates the connect credential. It mutates nothing: a
// rejected connection leaves no trace in any map.
func (g *Gateway) Authenticate(token string) (domain.Identity, error) {
	return g.decoder.Decode(token)
}

// Connect wires an authenticated websocket into the gateway and starts its
// pumps. The connect sequence is strictly ordered: register, group
// auto-join, presence-online.
func (g *Gateway) Connect(conn *websocket.Conn, identity domain.Identity) *Client {
	session := domain.NewSession(uuid.New().String(), identity)

	logger := g.logger.With().
		Str(log.FieldSessionID, session.ID).
		Str(log.FieldUserID, identity.ProfileID).
		Str(log.FieldUsername, identity.Username).
		Logger()

	client := newClient(session, conn, g.cfg, logger)

	g.mu.Lock()
	g.clients[client] = struct{}{}
	g.mu.Unlock()

	g.rooms.AddSession(session.ID)
	first := g.registry.Register(identity.ProfileID, session.ID, client)

	go client.writePump()

	g.rooms.AutoJoinGroups(log.WithLogger(client.ctx, logger), session.ID, identity.ProfileID)
	g.presence.SessionAdded(client.ctx, identity.ProfileID, first)

	go client.readPump(g)

	logger.Info().Bool("first_session", first).Msg("session connected")
	return client
}

// disconnect runs the teardown sequence exactly once per client:
// unregister, presence-offline decision, room index cleanup.
func (g *Gateway) disconnect(c *Client) {
	c.cleanupOnce.Do(func() {
		c.cancel()
		close(c.done)

		g.mu.Lock()
		delete(g.clients, c)
		g.mu.Unlock()

		profileID, becameEmpty := g.registry.Unregister(c.SessionID())
		if profileID != "" {
			g.presence.SessionRemoved(context.Background(), profileID, becameEmpty)
		}
		g.rooms.DropSession(c.SessionID())

		c.logger.Info().Bool("last_session", becameEmpty).Msg("session disconnected")
	})
}

// Close force-terminates a connection; teardown runs as for any other
// disconnect.
func (g *Gateway) Close(c *Client) {
	g.disconnect(c)
	c.conn.Close()
}

// Shutdown force-closes every live connection. Each session runs its full
// teardown, so the persisted online flags go down with the process rather
// than waiting on the store TTL.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	clients := make([]*Client, 0, len(g.clients))
	for c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		g.Close(c)
	}
}

// dispatch routes one inbound client frame. Malformed frames are dropped;
// a live channel has nothing useful to answer with.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Debug().Err(err).Msg("discarding malformed frame")
		return
	}

	switch env.Event {
	case domain.EventJoinConversation:
		if ref, ok := decodeData[domain.ConversationRef](c, env.Data); ok && ref.ConversationID != "" {
			g.rooms.Join(c.SessionID(), domain.ConversationRoom(ref.ConversationID))
		}

	case domain.EventLeaveConversation:
		if ref, ok := decodeData[domain.ConversationRef](c, env.Data); ok && ref.ConversationID != "" {
			g.rooms.Leave(c.SessionID(), domain.ConversationRoom(ref.ConversationID))
		}

	case domain.EventJoinGroup:
		if ref, ok := decodeData[domain.GroupRef](c, env.Data); ok && ref.GroupID != "" {
			g.rooms.Join(c.SessionID(), domain.GroupRoom(ref.GroupID))
		}

	case domain.EventLeaveGroup:
		if ref, ok := decodeData[domain.GroupRef](c, env.Data); ok && ref.GroupID != "" {
			g.rooms.Leave(c.SessionID(), domain.GroupRoom(ref.GroupID))
		}

	case domain.EventTypingStart:
		g.relayTyping(c, env.Data, true)

	case domain.EventTypingStop:
		g.relayTyping(c, env.Data, false)

	default:
		c.logger.Debug().Str(log.FieldEvent, env.Event).Msg("unknown client event")
	}
}

// relayTyping forwards a typing signal to the room, excluding the sender
// the way socket.to(room) did.
func (g *Gateway) relayTyping(c *Client, data json.RawMessage, isTyping bool) {
	ref, ok := decodeData[domain.TypingRef](c, data)
	if !ok {
		return
	}
	key, err := ref.Room()
	if err != nil {
		c.logger.Debug().Err(err).Msg("discarding typing event")
		return
	}

	g.router.EmitToRoom(key, domain.EventUserTyping, domain.UserTyping{
		ProfileID: c.Identity().ProfileID,
		IsTyping:  isTyping,
	}, c.SessionID())
}

// EmitToRoom delivers an event to every session in the addressed room.
// This is the outward operation the persistence layer calls after storing
// a message or state change.
func (g *Gateway) EmitToRoom(kind domain.RoomKind, targetID, event string, payload any) (int, error) {
	key, err := domain.NewRoomKey(kind, targetID)
	if err != nil {
		return 0, err
	}
	return g.router.EmitToRoom(key, event, payload, ""), nil
}

// EmitToUser delivers an event to every live device of a user.
func (g *Gateway) EmitToUser(profileID, event string, payload any) int {
	return g.router.EmitToUser(profileID, event, payload)
}

// SessionCount reports a user's live session count for the presence API.
func (g *Gateway) SessionCount(profileID string) int {
	return g.registry.SessionCount(profileID)
}

func decodeData[T any](c *Client, data json.RawMessage) (T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Debug().Err(err).Msg("discarding malformed event payload")
		var zero T
		return zero, false
	}
	return v, true
}
