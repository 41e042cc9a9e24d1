package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	gateway *hub.Gateway
	logger  zerolog.Logger
}

func NewWSHandler(g *hub.Gateway, logger zerolog.Logger) *WSHandler {
	return &WSHandler{gateway: g, logger: logger}
}

// HandleWebSocket authenticates the bearer credential and only then
// upgrades. A rejected credential never reaches the gateway, so nothing
// has to be unwound.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.gateway.Authenticate(bearerToken(r))
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket auth rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.gateway.Connect(conn, identity)
}

// bearerToken reads the credential from the token query parameter or the
// Authorization header, matching what the web and mobile clients send.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
}
