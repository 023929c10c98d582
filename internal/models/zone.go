package models

import (
	"time"

	"github.com/google/uuid"
)

// Zone is the single active bonus zone. A fresh ID is assigned per spawn so
// a respawned zone at a similar position is never confused with its predecessor.
type Zone struct {
	ID          uuid.UUID       `json:"id"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	CreatedAt   time.Time       `json:"created_at"`
	Duration    time.Duration   `json:"duration"`
	ScoredUsers map[string]bool `json:"scored_users"`

	// Version increments on every respawn; respawn requests carry the version
	// they observed so concurrent expiry triggers resolve to exactly one winner.
	Version uint64 `json:"version"`
}

// ExpiresAt returns the instant the zone ends.
func (z *Zone) ExpiresAt() time.Time {
	return z.CreatedAt.Add(z.Duration)
}

// RemainingAt returns the time left before expiry, never negative.
func (z *Zone) RemainingAt(now time.Time) time.Duration {
	rem := z.ExpiresAt().Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Contains reports whether a point is inside the zone's square footprint.
func (z *Zone) Contains(x, y, size float64) bool {
	return abs(x-z.X) < size/2 && abs(y-z.Y) < size/2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
