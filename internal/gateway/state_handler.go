package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// StateHandler serves read-only world snapshots over plain HTTP, for
// collaborators that want state without holding a socket open.
type StateHandler struct {
	core Core
}

// NewStateHandler creates a new state handler
func NewStateHandler(core Core) *StateHandler {
	return &StateHandler{core: core}
}

// HandleState returns the per-player view: own session, roster, zone with
// remaining time, score, dwell progress, and active squishes.
func (h *StateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	view, ok := h.core.ViewFor(userID)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to write state response")
	}
}

// RegisterStateRoutes registers state routes with an HTTP mux
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/state", h.HandleState)
}
