package gateway

import (
	"testing"

	"github.com/joayo/arena/internal/events"
)

func TestTopicForEvent(t *testing.T) {
	cases := []struct {
		eventType events.EventType
		want      string
	}{
		{events.EventTypeZoneSpawned, TopicZone},
		{events.EventTypeZoneExpired, TopicZone},
		{events.EventTypeZoneScored, TopicScores},
		{events.EventTypeLeaderboard, TopicScores},
		{events.EventTypeSquish, TopicSquishes},
		{events.EventTypePlayerJoined, TopicPlayers},
		{events.EventTypePlayerLeft, TopicPlayers},
	}

	for _, tc := range cases {
		if got := topicForEvent(tc.eventType); got != tc.want {
			t.Errorf("topicForEvent(%s) = %s, want %s", tc.eventType, got, tc.want)
		}
	}
}
