package events

import (
	"time"

	"github.com/joayo/arena/internal/models"
)

// Event payload types shared between the arena core and the gateway.

// EventType names a world event on the bus and on the wire to clients.
type EventType string

const (
	EventTypePlayerJoined EventType = "PlayerJoined"
	EventTypePlayerLeft   EventType = "PlayerLeft"
	EventTypeZoneSpawned  EventType = "ZoneSpawned"
	EventTypeZoneExpired  EventType = "ZoneExpired"
	EventTypeZoneScored   EventType = "ZoneScored"
	EventTypeLeaderboard  EventType = "LeaderboardUpdated"
	EventTypeSquish       EventType = "SquishTriggered"
)

// PlayerJoinedPayload is the payload for a PlayerJoined event
type PlayerJoinedPayload struct {
	UserID   string          `json:"user_id"`
	Nickname string          `json:"nickname"`
	Position models.Position `json:"position"`
	JoinedAt time.Time       `json:"joined_at"`
}

// PlayerLeftPayload is the payload for a PlayerLeft event
type PlayerLeftPayload struct {
	UserID string    `json:"user_id"`
	LeftAt time.Time `json:"left_at"`
	Reason string    `json:"reason"` // "disconnect" or "liveness"
}

// ZoneSpawnedPayload is the payload for a ZoneSpawned event
type ZoneSpawnedPayload struct {
	ZoneID      string    `json:"zone_id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	CreatedAt   time.Time `json:"created_at"`
	DurationSec int       `json:"duration_sec"`
	Version     uint64    `json:"version"`
}

// ZoneExpiredPayload is the payload for a ZoneExpired event
type ZoneExpiredPayload struct {
	ZoneID    string    `json:"zone_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// ZoneScoredPayload is the payload for a ZoneScored event
type ZoneScoredPayload struct {
	ZoneID   string    `json:"zone_id"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	Score    int       `json:"score"`
	ScoredAt time.Time `json:"scored_at"`
}

// LeaderboardPayload is the payload for a LeaderboardUpdated event
type LeaderboardPayload struct {
	Entries   []models.LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// SquishPayload is the payload for a SquishTriggered event
type SquishPayload struct {
	TargetID string    `json:"target_id"`
	SourceID string    `json:"source_id"`
	ClickX   float64   `json:"click_x"`
	ClickY   float64   `json:"click_y"`
	Time     time.Time `json:"time"`
}
