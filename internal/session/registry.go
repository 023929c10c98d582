package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/models"
	"github.com/joayo/arena/internal/nickname"
	"github.com/joayo/arena/internal/world"
)

var (
	// ErrRegistryFull is returned when the live session count is at capacity.
	ErrRegistryFull = errors.New("session registry is full")
	// ErrUnknownSession is returned for operations on a userID with no live session.
	ErrUnknownSession = errors.New("unknown session")
)

// sessionState pairs the public session with the server-side movement state.
type sessionState struct {
	session  models.Session
	input    world.Input
	lastSeen time.Time
}

// Registry tracks every connected player: identity, nickname, position, and
// the latest held-keys input. All access is mutex-guarded; the arena tick and
// the gateway call in from different goroutines.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	tuning   world.Tuning
	clock    clockwork.Clock
}

// NewRegistry creates an empty registry.
func NewRegistry(tuning world.Tuning, clock clockwork.Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionState),
		tuning:   tuning,
		clock:    clock,
	}
}

// Join validates the nickname and creates a session at the spawn point.
// Joining again with a live userID replaces the old session (a reconnect).
// The nickname is immutable for the session's lifetime.
func (r *Registry) Join(userID, nick string) (models.Session, error) {
	if err := nickname.Validate(nick); err != nil {
		return models.Session{}, fmt.Errorf("invalid nickname: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[userID]; !exists && len(r.sessions) >= r.tuning.MaxSessions {
		return models.Session{}, ErrRegistryFull
	}

	now := r.clock.Now()
	x, y := r.tuning.SpawnPoint()
	state := &sessionState{
		session: models.Session{
			UserID:     userID,
			Nickname:   nick,
			Position:   models.Position{X: x, Y: y},
			Facing:     models.FacingRight,
			LastUpdate: now,
			JoinedAt:   now,
		},
		lastSeen: now,
	}
	r.sessions[userID] = state

	log.Info().
		Str("user_id", userID).
		Str("nickname", nick).
		Int("total_sessions", len(r.sessions)).
		Msg("session joined")

	return state.session, nil
}

// Leave removes a session. Idempotent: leaving twice is a no-op.
func (r *Registry) Leave(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; !ok {
		return
	}
	delete(r.sessions, userID)

	log.Info().
		Str("user_id", userID).
		Int("total_sessions", len(r.sessions)).
		Msg("session left")
}

// SetInput stores the latest held-keys state for a player and refreshes
// its liveness.
func (r *Registry) SetInput(userID string, in world.Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.sessions[userID]
	if !ok {
		return ErrUnknownSession
	}
	state.input = in
	state.lastSeen = r.clock.Now()
	return nil
}

// Heartbeat refreshes a session's liveness without changing its input.
func (r *Registry) Heartbeat(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.sessions[userID]
	if !ok {
		return ErrUnknownSession
	}
	state.lastSeen = r.clock.Now()
	return nil
}

// Step advances every session by one movement tick from its held input,
// clamping positions to the map. Returns a snapshot of all sessions.
func (r *Registry) Step() []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	out := make([]models.Session, 0, len(r.sessions))
	for _, state := range r.sessions {
		if !state.input.Zero() {
			state.session.Position, state.session.Facing = world.Step(
				state.session.Position, state.session.Facing, state.input, r.tuning)
			state.session.LastUpdate = now
		}
		out = append(out, state.session)
	}
	return out
}

// Get returns a session by userID.
func (r *Registry) Get(userID string) (models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.sessions[userID]
	if !ok {
		return models.Session{}, false
	}
	return state.session, true
}

// ListOthers returns a snapshot of every session except the excluded one.
// Order is unspecified.
func (r *Registry) ListOthers(excludeID string) []models.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Session, 0, len(r.sessions))
	for id, state := range r.sessions {
		if id == excludeID {
			continue
		}
		out = append(out, state.session)
	}
	return out
}

// Snapshot returns all live sessions.
func (r *Registry) Snapshot() []models.Session {
	return r.ListOthers("")
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ReapStale removes sessions with no input or heartbeat inside the liveness
// window and returns their userIDs. The gateway's disconnect path is the
// primary cleanup; this sweep catches ghosts it missed.
func (r *Registry) ReapStale() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-r.tuning.LivenessWindow)
	var reaped []string
	for id, state := range r.sessions {
		if state.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			reaped = append(reaped, id)
		}
	}

	if len(reaped) > 0 {
		log.Warn().
			Strs("user_ids", reaped).
			Int("total_sessions", len(r.sessions)).
			Msg("reaped stale sessions")
	}
	return reaped
}
