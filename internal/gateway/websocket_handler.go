package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/arena"
	"github.com/joayo/arena/internal/nickname"
	"github.com/joayo/arena/internal/session"
	"github.com/joayo/arena/internal/world"
)

// Core is what the gateway needs from the arena application.
type Core interface {
	Join(ctx context.Context, userID, nick string) (*arena.JoinResult, error)
	Leave(ctx context.Context, userID, reason string)
	SetInput(userID string, in world.Input) error
	Heartbeat(userID string) error
	Squish(ctx context.Context, sourceID, targetID string, clickX, clickY float64) error
	SessionCount() int
	ViewFor(userID string) (arena.View, bool)
}

// WebSocketHandler handles WebSocket upgrade requests for arena connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	core              Core
	maxSessions       int
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, core Core, maxSessions int) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		core:              core,
		maxSessions:       maxSessions,
	}
}

// HandleArenaConnection admits a player and upgrades the connection. The
// session is created before the upgrade so nickname validation errors surface
// synchronously as plain HTTP responses.
func (h *WebSocketHandler) HandleArenaConnection(w http.ResponseWriter, r *http.Request) {
	// Admission control: the arena is full at maxSessions live players.
	if h.core.SessionCount() >= h.maxSessions {
		http.Error(w, "arena is full", http.StatusServiceUnavailable)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = uuid.New().String()
	}

	nick := r.URL.Query().Get("nickname")
	if nick == "" {
		nick = nickname.Random()
	}

	result, err := h.core.Join(r.Context(), userID, nick)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrRegistryFull) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, h.handleClientMessage)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		h.core.Leave(context.Background(), userID, "upgrade_failed")
		return
	}

	// Join ack carries the first-frame state: own session, score, zone,
	// roster, and leaderboard.
	ackData, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to marshal join ack")
		return
	}
	h.connectionManager.SendDirect(conn, WireMessage{
		Topic: TopicPlayers,
		Type:  "Joined",
		Data:  ackData,
	})
}

// handleClientMessage processes messages received from the client
func (h *WebSocketHandler) handleClientMessage(conn *Connection, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", conn.ID).
			Msg("dropping malformed client message")
		return
	}

	switch msg.Type {
	case ClientTypeInput:
		var in world.Input
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed input payload")
			return
		}
		if err := h.core.SetInput(conn.UserID, in); err != nil {
			log.Debug().Err(err).Str("user_id", conn.UserID).Msg("input for unknown session")
		}

	case ClientTypeSquish:
		var req SquishRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed squish payload")
			return
		}
		if err := h.core.Squish(context.Background(), conn.UserID, req.TargetID, req.ClickX, req.ClickY); err != nil {
			log.Debug().
				Err(err).
				Str("user_id", conn.UserID).
				Str("target_id", req.TargetID).
				Msg("squish on unknown target")
		}

	case ClientTypeHeartbeat:
		if err := h.core.Heartbeat(conn.UserID); err != nil {
			log.Debug().Err(err).Str("user_id", conn.UserID).Msg("heartbeat for unknown session")
		}

	default:
		log.Debug().
			Str("connection_id", conn.ID).
			Str("type", msg.Type).
			Msg("unknown client message type")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()
	stats["sessions"] = h.core.SessionCount()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/arena", h.HandleArenaConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
