package gateway

import (
	"encoding/json"

	"github.com/joayo/arena/internal/events"
)

// Topics clients can receive. Every connection gets all of them; delivery is
// last-write-wins per topic.
const (
	TopicPlayers  = "players"
	TopicZone     = "zone"
	TopicScores   = "scores"
	TopicSquishes = "squishes"
)

// WireMessage is the server-to-client frame.
type WireMessage struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// ClientMessage is the client-to-server frame.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client message types.
const (
	ClientTypeInput     = "input"
	ClientTypeSquish    = "squish"
	ClientTypeHeartbeat = "heartbeat"
)

// SquishRequest is the payload of a "squish" client message.
type SquishRequest struct {
	TargetID string  `json:"target_id"`
	ClickX   float64 `json:"click_x"`
	ClickY   float64 `json:"click_y"`
}

// topicForEvent routes a bus event to its client-facing topic.
func topicForEvent(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeZoneSpawned, events.EventTypeZoneExpired:
		return TopicZone
	case events.EventTypeZoneScored, events.EventTypeLeaderboard:
		return TopicScores
	case events.EventTypeSquish:
		return TopicSquishes
	default:
		// PlayerJoined/PlayerLeft ride the players topic alongside snapshots.
		return TopicPlayers
	}
}
