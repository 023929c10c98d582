package zone

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/models"
	"github.com/joayo/arena/internal/world"
)

// Award is emitted when a player completes the dwell time inside the active
// zone for the first time in that zone instance.
type Award struct {
	ZoneID   uuid.UUID
	UserID   string
	Nickname string
}

// Transition describes a zone replacement: the expired instance (nil on the
// very first spawn) and its successor.
type Transition struct {
	Expired *models.Zone
	Next    models.Zone
}

// Manager owns the single active bonus zone. The zone record is versioned and
// respawn is compare-and-swap on that version, so no matter how many callers
// detect expiry concurrently exactly one replacement wins.
type Manager struct {
	mu     sync.Mutex
	zone   *models.Zone
	dwell  map[string]time.Time // entry timestamps for players currently inside
	tuning world.Tuning
	clock  clockwork.Clock
	rng    *rand.Rand

	// wakeCh nudges Run when the active zone changes under it.
	wakeCh chan struct{}
}

// NewManager creates a manager with no active zone.
func NewManager(tuning world.Tuning, clock clockwork.Clock, seed int64) *Manager {
	return &Manager{
		dwell:  make(map[string]time.Time),
		tuning: tuning,
		clock:  clock,
		rng:    rand.New(rand.NewSource(seed)),
		wakeCh: make(chan struct{}, 1),
	}
}

// Current returns a copy of the active zone, if any.
func (m *Manager) Current() (models.Zone, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zone == nil {
		return models.Zone{}, false
	}
	return m.copyZoneLocked(), true
}

// EnsureActive spawns the first zone if none exists and returns the active one.
func (m *Manager) EnsureActive() models.Zone {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zone == nil {
		m.spawnLocked()
	}
	return m.copyZoneLocked()
}

// Respawn replaces the zone whose version the caller observed. Returns the
// resulting zone and whether this call performed the swap; a stale version
// means someone else already respawned and the current zone is returned as is.
func (m *Manager) Respawn(expectedVersion uint64) (models.Zone, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zone != nil && m.zone.Version != expectedVersion {
		return m.copyZoneLocked(), false
	}
	m.spawnLocked()

	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
	return m.copyZoneLocked(), true
}

// spawnLocked installs a fresh zone with a new id and bumped version.
func (m *Manager) spawnLocked() {
	var version uint64 = 1
	if m.zone != nil {
		version = m.zone.Version + 1
	}

	span := m.tuning.MapSize - 2*m.tuning.ZoneMargin
	m.zone = &models.Zone{
		ID:          uuid.New(),
		X:           m.tuning.ZoneMargin + m.rng.Float64()*span,
		Y:           m.tuning.ZoneMargin + m.rng.Float64()*span,
		CreatedAt:   m.clock.Now(),
		Duration:    m.tuning.ZoneDuration,
		ScoredUsers: make(map[string]bool),
		Version:     version,
	}

	log.Info().
		Str("zone_id", m.zone.ID.String()).
		Float64("x", m.zone.X).
		Float64("y", m.zone.Y).
		Uint64("version", version).
		Dur("duration", m.zone.Duration).
		Msg("zone spawned")
}

// UpdateDwell runs one dwell-scoring pass over the given sessions. A player's
// entry timestamp is recorded the instant they transition outside->inside and
// cleared the instant they are outside; there is no grace period. After the
// dwell time elapses the player is awarded once per zone instance. The dwell
// clock is deliberately kept after scoring so the client HUD does not flicker,
// but no further award is possible.
func (m *Manager) UpdateDwell(sessions []models.Session) []Award {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zone == nil {
		return nil
	}

	now := m.clock.Now()
	live := make(map[string]bool, len(sessions))
	var awards []Award

	for _, s := range sessions {
		live[s.UserID] = true

		if !m.zone.Contains(s.Position.X, s.Position.Y, m.tuning.ZoneSize) {
			delete(m.dwell, s.UserID)
			continue
		}

		entered, dwelling := m.dwell[s.UserID]
		if !dwelling {
			m.dwell[s.UserID] = now
			continue
		}

		if now.Sub(entered) >= m.tuning.DwellTime && !m.zone.ScoredUsers[s.UserID] {
			m.zone.ScoredUsers[s.UserID] = true
			awards = append(awards, Award{
				ZoneID:   m.zone.ID,
				UserID:   s.UserID,
				Nickname: s.Nickname,
			})
			log.Info().
				Str("zone_id", m.zone.ID.String()).
				Str("user_id", s.UserID).
				Msg("dwell completed, awarding score")
		}
	}

	// Departed sessions must not keep a dwell clock.
	for id := range m.dwell {
		if !live[id] {
			delete(m.dwell, id)
		}
	}

	return awards
}

// DwellElapsed returns how long a player has been inside the active zone,
// or false if they are not dwelling.
func (m *Manager) DwellElapsed(userID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entered, ok := m.dwell[userID]
	if !ok {
		return 0, false
	}
	return m.clock.Now().Sub(entered), true
}

// Run arms a one-shot timer for the active zone's expiry and replaces the
// zone each time it fires, forever. onTransition is called outside the lock
// for every replacement, including the initial spawn.
func (m *Manager) Run(ctx context.Context, onTransition func(Transition)) {
	first := m.EnsureActive()
	if onTransition != nil {
		onTransition(Transition{Next: first})
	}

	for {
		current, ok := m.Current()
		if !ok {
			current = m.EnsureActive()
		}

		wait := current.ExpiresAt().Sub(m.clock.Now())
		timer := m.clock.NewTimer(wait)

		select {
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			log.Info().Msg("zone manager shutting down")
			return
		case <-m.wakeCh:
			// Zone was replaced elsewhere; re-arm against the new deadline.
			stopAndDrainTimer(timer)
			continue
		case <-timer.Chan():
		}

		next, swapped := m.Respawn(current.Version)
		if !swapped {
			log.Debug().
				Str("zone_id", current.ID.String()).
				Msg("expiry lost respawn race, zone already replaced")
			continue
		}

		m.clearDwellScores()

		if onTransition != nil {
			expired := current
			onTransition(Transition{Expired: &expired, Next: next})
		}
	}
}

// clearDwellScores resets all dwell clocks. A new zone instance means every
// player must re-enter relative to the new footprint; scored state lives on
// the zone record and was replaced along with it.
func (m *Manager) clearDwellScores() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dwell = make(map[string]time.Time)
}

// copyZoneLocked deep-copies the active zone so callers never share the
// scoredUsers map with the manager.
func (m *Manager) copyZoneLocked() models.Zone {
	z := *m.zone
	z.ScoredUsers = make(map[string]bool, len(m.zone.ScoredUsers))
	for id := range m.zone.ScoredUsers {
		z.ScoredUsers[id] = true
	}
	return z
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
