package hub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/config"
	"github.com/wilber023/aura-messasing-service/internal/domain"
)

// Client owns one websocket connection: a buffered send channel drained by
// the write pump, and a read pump dispatching inbound events to the
// gateway. Both pumps exit when the connection dies or done is closed.
type Client struct {
	session *domain.Session
	conn    *websocket.Conn
	cfg     config.WebSocketConfig
	logger  zerolog.Logger

	send chan []byte
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	cleanupOnce sync.Once
}

func newClient(session *domain.Session, conn *websocket.Conn, cfg config.WebSocketConfig, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		session: session,
		conn:    conn,
		cfg:     cfg,
		logger:  logger,
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Client) SessionID() string { return c.session.ID }

func (c *Client) Identity() domain.Identity { return c.session.Identity }

// Enqueue hands a frame to the write pump without blocking. False means
// the client is gone or its buffer is full; the caller skips it.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) readPump(g *Gateway) {
	defer func() {
		c.conn.Close()
		g.disconnect(c)
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		g.dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
