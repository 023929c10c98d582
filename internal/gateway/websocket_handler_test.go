package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joayo/arena/internal/arena"
	"github.com/joayo/arena/internal/session"
	"github.com/joayo/arena/internal/world"
)

// stubCore is a minimal Core for handler tests.
type stubCore struct {
	sessions int
	joinErr  error
	joins    []string
	leaves   []string
}

func (c *stubCore) Join(_ context.Context, userID, nick string) (*arena.JoinResult, error) {
	if c.joinErr != nil {
		return nil, c.joinErr
	}
	c.joins = append(c.joins, userID)
	return &arena.JoinResult{}, nil
}

func (c *stubCore) Leave(_ context.Context, userID, reason string) {
	c.leaves = append(c.leaves, userID)
}

func (c *stubCore) SetInput(string, world.Input) error { return nil }
func (c *stubCore) Heartbeat(string) error { return nil }
func (c *stubCore) Squish(context.Context, string, string, float64, float64) error {
	return nil
}
func (c *stubCore) SessionCount() int                 { return c.sessions }
func (c *stubCore) ViewFor(string) (arena.View, bool) { return arena.View{}, false }

func TestArenaConnectionRefusedAtCapacity(t *testing.T) {
	core := &stubCore{sessions: 100}
	handler := NewWebSocketHandler(NewConnectionManager(DefaultConnectionConfig()), core, 100)

	req := httptest.NewRequest(http.MethodGet, "/ws/arena?nickname=테스터", nil)
	rec := httptest.NewRecorder()
	handler.HandleArenaConnection(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d at capacity, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if len(core.joins) != 0 {
		t.Errorf("joins = %v, want none past the admission check", core.joins)
	}
}

func TestArenaConnectionAdmitsBelowCapacity(t *testing.T) {
	core := &stubCore{sessions: 99}
	handler := NewWebSocketHandler(NewConnectionManager(DefaultConnectionConfig()), core, 100)

	// A plain recorder cannot complete the WebSocket upgrade, so the join
	// succeeds and is then rolled back through Leave.
	req := httptest.NewRequest(http.MethodGet, "/ws/arena?user_id=u1&nickname=테스터", nil)
	rec := httptest.NewRecorder()
	handler.HandleArenaConnection(rec, req)

	if len(core.joins) != 1 || core.joins[0] != "u1" {
		t.Fatalf("joins = %v, want [u1]", core.joins)
	}
	if len(core.leaves) != 1 || core.leaves[0] != "u1" {
		t.Fatalf("leaves = %v, want the failed upgrade rolled back", core.leaves)
	}
}

func TestArenaConnectionJoinErrors(t *testing.T) {
	cases := []struct {
		name       string
		joinErr    error
		wantStatus int
	}{
		{name: "invalid nickname", joinErr: errors.New("invalid nickname: too short"), wantStatus: http.StatusBadRequest},
		{name: "registry full", joinErr: session.ErrRegistryFull, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core := &stubCore{joinErr: tc.joinErr}
			handler := NewWebSocketHandler(NewConnectionManager(DefaultConnectionConfig()), core, 100)

			req := httptest.NewRequest(http.MethodGet, "/ws/arena?nickname=테스터", nil)
			rec := httptest.NewRecorder()
			handler.HandleArenaConnection(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
