package squish

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/models"
)

// Registry holds the active squish effects, keyed by target userID. A later
// click on the same target overwrites the earlier effect. Effects expire on
// their own after the TTL; they are cosmetic and never touch game state.
type Registry struct {
	mu      sync.Mutex
	effects map[string]models.Squish
	ttl     time.Duration
	clock   clockwork.Clock
}

// NewRegistry creates an empty squish registry.
func NewRegistry(ttl time.Duration, clock clockwork.Clock) *Registry {
	return &Registry{
		effects: make(map[string]models.Squish),
		ttl:     ttl,
		clock:   clock,
	}
}

// Trigger records a squish on the target player at the click point.
func (r *Registry) Trigger(targetID string, clickX, clickY float64) models.Squish {
	r.mu.Lock()
	defer r.mu.Unlock()

	effect := models.Squish{
		TargetID: targetID,
		ClickX:   clickX,
		ClickY:   clickY,
		Time:     r.clock.Now(),
	}
	r.effects[targetID] = effect

	log.Debug().
		Str("target_id", targetID).
		Float64("click_x", clickX).
		Float64("click_y", clickY).
		Msg("squish triggered")
	return effect
}

// Active returns every unexpired effect.
func (r *Registry) Active() []models.Squish {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-r.ttl)
	out := make([]models.Squish, 0, len(r.effects))
	for _, effect := range r.effects {
		if !effect.Time.Before(cutoff) {
			out = append(out, effect)
		}
	}
	return out
}

// Sweep drops expired effects and reports how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-r.ttl)
	removed := 0
	for id, effect := range r.effects {
		if effect.Time.Before(cutoff) {
			delete(r.effects, id)
			removed++
		}
	}
	return removed
}
