package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/domain"
	"github.com/wilber023/aura-messasing-service/internal/hub"
	"github.com/wilber023/aura-messasing-service/internal/presence"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

// HTTPHandler exposes the emit operations to the persistence layer and a
// small presence query API.
type HTTPHandler struct {
	gateway *hub.Gateway
	store   presence.Store
	logger  zerolog.Logger
}

func NewHTTPHandler(g *hub.Gateway, store presence.Store, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{gateway: g, store: store, logger: logger}
}

// EmitRoomRequest is the body of POST /internal/v1/emit/room.
type EmitRoomRequest struct {
	Kind     string          `json:"kind"`
	TargetID string          `json:"targetId"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
}

// EmitUserRequest is the body of POST /internal/v1/emit/user.
type EmitUserRequest struct {
	UserID  string          `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EmitResponse reports how many sessions a fan-out reached.
type EmitResponse struct {
	Delivered int `json:"delivered"`
}

// EmitToRoom handles POST /internal/v1/emit/room.
func (h *HTTPHandler) EmitToRoom(w http.ResponseWriter, r *http.Request) {
	var req EmitRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Event == "" {
		http.Error(w, "event is required", http.StatusBadRequest)
		return
	}

	delivered, err := h.gateway.EmitToRoom(domain.RoomKind(req.Kind), req.TargetID, req.Event, req.Payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, EmitResponse{Delivered: delivered})
}

// EmitToUser handles POST /internal/v1/emit/user.
func (h *HTTPHandler) EmitToUser(w http.ResponseWriter, r *http.Request) {
	var req EmitUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Event == "" {
		http.Error(w, "userId and event are required", http.StatusBadRequest)
		return
	}

	delivered := h.gateway.EmitToUser(req.UserID, req.Event, req.Payload)
	writeJSON(w, http.StatusAccepted, EmitResponse{Delivered: delivered})
}

// PresenceResponse is the answer to a presence query.
type PresenceResponse struct {
	UserID   string `json:"userId"`
	Online   bool   `json:"online"`
	Sessions int    `json:"sessions"`
}

// GetPresence handles GET /api/v1/users/{user_id}/presence. Local sessions
// answer directly; otherwise the shared store covers users connected to
// other instances.
func (h *HTTPHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["user_id"]
	if profileID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	sessions := h.gateway.SessionCount(profileID)
	online := sessions > 0
	if !online && h.store != nil {
		var err error
		online, err = h.store.IsOnline(r.Context(), profileID)
		if err != nil {
			h.logger.Warn().Err(err).Str(log.FieldUserID, profileID).Msg("presence store lookup failed")
			online = false
		}
	}

	writeJSON(w, http.StatusOK, PresenceResponse{
		UserID:   profileID,
		Online:   online,
		Sessions: sessions,
	})
}

// HealthCheck handles GET /health.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/internal/v1/emit/room", h.EmitToRoom).Methods(http.MethodPost)
	r.HandleFunc("/internal/v1/emit/user", h.EmitToUser).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/users/{user_id}/presence", h.GetPresence).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
