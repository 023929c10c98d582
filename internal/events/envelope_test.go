package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	payload := PlayerLeftPayload{UserID: "u1", LeftAt: at, Reason: "disconnect"}

	env, err := NewEnvelope(EventTypePlayerLeft, at, payload)
	if err != nil {
		t.Fatalf("NewEnvelope() error: %v", err)
	}
	if env.EventType != EventTypePlayerLeft {
		t.Errorf("EventType = %s, want %s", env.EventType, EventTypePlayerLeft)
	}
	if !env.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", env.Timestamp, at)
	}

	var decoded PlayerLeftPayload
	if err := json.Unmarshal(env.Payload, &decoded); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded.UserID != "u1" || decoded.Reason != "disconnect" {
		t.Errorf("decoded payload = %+v", decoded)
	}

	other, err := NewEnvelope(EventTypePlayerLeft, at, payload)
	if err != nil {
		t.Fatalf("NewEnvelope() error: %v", err)
	}
	if env.EventID == other.EventID {
		t.Error("two envelopes share an event id")
	}
}
