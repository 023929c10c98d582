package gateway

import (
	"encoding/json"
	"testing"
)

func newTestConnection(cm *ConnectionManager, userID string, buffer int) *Connection {
	conn := &Connection{
		ID:      "test-" + userID,
		UserID:  userID,
		Send:    make(chan []byte, buffer),
		Manager: cm,
	}
	cm.registerConnection(conn)
	return conn
}

func drainFrames(t *testing.T, conn *Connection) []WireMessage {
	t.Helper()
	var out []WireMessage
	for {
		select {
		case frame := <-conn.Send:
			var msg WireMessage
			if err := json.Unmarshal(frame, &msg); err != nil {
				t.Fatalf("frame is not a wire message: %v", err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestFlushCoalescesPerTopic(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newTestConnection(cm, "u1", 8)

	cm.Broadcast(TopicPlayers, map[string]int{"tick": 1})
	cm.Broadcast(TopicPlayers, map[string]int{"tick": 2})
	cm.Broadcast(TopicPlayers, map[string]int{"tick": 3})
	cm.flushPending()

	frames := drainFrames(t, conn)
	if len(frames) != 1 {
		t.Fatalf("flushed %d frames for one topic, want 1", len(frames))
	}
	var data map[string]int
	if err := json.Unmarshal(frames[0].Data, &data); err != nil {
		t.Fatalf("bad frame data: %v", err)
	}
	if data["tick"] != 3 {
		t.Errorf("delivered tick %d, want the newest snapshot 3", data["tick"])
	}
}

func TestFlushKeepsTopicsIndependent(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newTestConnection(cm, "u1", 8)

	cm.Broadcast(TopicPlayers, map[string]int{"tick": 1})
	cm.BroadcastWire(WireMessage{Topic: TopicZone, Type: "ZoneSpawned", Data: json.RawMessage(`{}`)})
	cm.flushPending()

	frames := drainFrames(t, conn)
	if len(frames) != 2 {
		t.Fatalf("flushed %d frames for two topics, want 2", len(frames))
	}
	seen := map[string]bool{}
	for _, f := range frames {
		seen[f.Topic] = true
	}
	if !seen[TopicPlayers] || !seen[TopicZone] {
		t.Errorf("topics delivered = %v, want both players and zone", seen)
	}
}

func TestFlushReachesEveryConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	first := newTestConnection(cm, "u1", 8)
	second := newTestConnection(cm, "u2", 8)

	cm.Broadcast(TopicScores, map[string]int{"score": 1})
	cm.flushPending()

	if got := len(drainFrames(t, first)); got != 1 {
		t.Errorf("first connection got %d frames, want 1", got)
	}
	if got := len(drainFrames(t, second)); got != 1 {
		t.Errorf("second connection got %d frames, want 1", got)
	}
}

func TestFlushWithNothingPending(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newTestConnection(cm, "u1", 8)

	cm.flushPending()
	if got := len(drainFrames(t, conn)); got != 0 {
		t.Errorf("flushed %d frames with nothing pending, want 0", got)
	}
}

func TestSendDirectTargetsOneConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	target := newTestConnection(cm, "u1", 8)
	other := newTestConnection(cm, "u2", 8)

	cm.SendDirect(target, WireMessage{Topic: TopicPlayers, Type: "Joined", Data: json.RawMessage(`{}`)})

	if got := len(drainFrames(t, target)); got != 1 {
		t.Errorf("target got %d frames, want 1", got)
	}
	if got := len(drainFrames(t, other)); got != 0 {
		t.Errorf("other connection got %d frames, want 0", got)
	}
}

func TestReconnectSupersedesOldConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	var gone []string
	cm.SetDisconnectHandler(func(userID string) { gone = append(gone, userID) })

	old := newTestConnection(cm, "u1", 8)
	replacement := newTestConnection(cm, "u1", 8)

	// Superseding the old socket is not a disconnect: the session now belongs
	// to the replacement.
	if len(gone) != 0 {
		t.Fatalf("disconnect hook fired on reconnect: %v", gone)
	}

	// The stale socket's own teardown must not remove the live session.
	cm.unregisterConnection(old)
	if len(gone) != 0 {
		t.Fatalf("stale connection teardown fired the disconnect hook: %v", gone)
	}

	select {
	case _, ok := <-old.Send:
		if ok {
			t.Error("superseded connection received a frame")
		}
	default:
		t.Error("superseded connection's send channel left open")
	}

	// Broadcasts reach only the replacement.
	cm.Broadcast(TopicPlayers, map[string]int{"tick": 1})
	cm.flushPending()
	if got := len(drainFrames(t, replacement)); got != 1 {
		t.Errorf("replacement got %d frames, want 1", got)
	}

	// Closing the replacement is a real disconnect.
	cm.unregisterConnection(replacement)
	if len(gone) != 1 || gone[0] != "u1" {
		t.Fatalf("disconnect hook calls = %v, want exactly one for u1", gone)
	}
}

func TestSendDirectDropsAfterUnregister(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newTestConnection(cm, "u1", 8)

	cm.unregisterConnection(conn)

	// The send channel is closed now; a late direct send must drop cleanly
	// instead of panicking.
	cm.SendDirect(conn, WireMessage{Topic: TopicPlayers, Type: "Joined", Data: json.RawMessage(`{}`)})

	if _, ok := <-conn.Send; ok {
		t.Error("unregistered connection received a frame")
	}
}

func TestDisconnectHookFiresOnce(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	var gone []string
	cm.SetDisconnectHandler(func(userID string) { gone = append(gone, userID) })

	conn := newTestConnection(cm, "u1", 8)
	cm.unregisterConnection(conn)
	cm.unregisterConnection(conn)

	if len(gone) != 1 || gone[0] != "u1" {
		t.Fatalf("disconnect hook calls = %v, want exactly one for u1", gone)
	}

	// An unregistered connection no longer receives broadcasts.
	cm.Broadcast(TopicPlayers, map[string]int{"tick": 1})
	cm.flushPending()
	select {
	case frame, ok := <-conn.Send:
		if ok {
			t.Errorf("unregistered connection received frame %s", frame)
		}
	default:
	}
}
