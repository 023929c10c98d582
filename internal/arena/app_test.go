package arena

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joayo/arena/internal/bus"
	"github.com/joayo/arena/internal/events"
	"github.com/joayo/arena/internal/score"
	"github.com/joayo/arena/internal/session"
	"github.com/joayo/arena/internal/squish"
	"github.com/joayo/arena/internal/world"
	"github.com/joayo/arena/internal/zone"
)

// stubQuerier backs the score app with a map for tests.
type stubQuerier struct {
	mu   sync.Mutex
	rows map[string]score.ScoreRow
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{rows: make(map[string]score.ScoreRow)}
}

func (q *stubQuerier) GetScore(_ context.Context, userID string) (score.ScoreRow, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	row, ok := q.rows[userID]
	if !ok {
		return score.ScoreRow{}, score.ErrScoreNotFound
	}
	return row, nil
}

func (q *stubQuerier) IncrementScore(_ context.Context, userID, nickname string, at time.Time) (score.ScoreRow, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	row, ok := q.rows[userID]
	if !ok {
		row = score.ScoreRow{UserID: userID}
	}
	row.Nickname = nickname
	row.Score++
	row.LastUpdate = at
	q.rows[userID] = row
	return row, nil
}

func (q *stubQuerier) TopScores(_ context.Context, limit int) ([]score.ScoreRow, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]score.ScoreRow, 0, len(q.rows))
	for _, row := range q.rows {
		if row.Score > 0 {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].LastUpdate.Before(out[j].LastUpdate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type testHarness struct {
	app       *App
	publisher *bus.MemoryPublisher
	querier   *stubQuerier
	zones     *zone.Manager
	clock     *clockwork.FakeClock
	tuning    world.Tuning
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	tuning := world.DefaultTuning()
	tuning.MaxSessions = 10

	clock := clockwork.NewFakeClock()
	querier := newStubQuerier()
	publisher := bus.NewMemoryPublisher()
	registry := session.NewRegistry(tuning, clock)
	zones := zone.NewManager(tuning, clock, 1)
	squishes := squish.NewRegistry(tuning.SquishTTL, clock)
	scores := score.NewApp(score.NewRepository(querier), clock, tuning.LeaderboardSize)

	app := NewApp(registry, zones, squishes, scores, publisher, nil, tuning, clock)
	return &testHarness{
		app:       app,
		publisher: publisher,
		querier:   querier,
		zones:     zones,
		clock:     clock,
		tuning:    tuning,
	}
}

func (h *testHarness) eventsOfType(et events.EventType) []events.Envelope {
	var out []events.Envelope
	for _, env := range h.publisher.Events() {
		if env.EventType == et {
			out = append(out, env)
		}
	}
	return out
}

func TestJoinReturnsFirstFrameState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.querier.rows["u1"] = score.ScoreRow{UserID: "u1", Nickname: "테스터", Score: 7, LastUpdate: h.clock.Now()}
	activeZone := h.zones.EnsureActive()
	if _, err := h.app.Join(ctx, "other", "아무개"); err != nil {
		t.Fatalf("Join(other) error: %v", err)
	}

	result, err := h.app.Join(ctx, "u1", "테스터")
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	if result.Score != 7 {
		t.Errorf("Score = %d, want the durable score 7", result.Score)
	}
	if result.Session.UserID != "u1" {
		t.Errorf("Session.UserID = %q, want u1", result.Session.UserID)
	}
	if result.Zone == nil || result.Zone.ID != activeZone.ID.String() {
		t.Errorf("Zone = %+v, want the active zone %s", result.Zone, activeZone.ID)
	}
	if len(result.Others) != 1 || result.Others[0].UserID != "other" {
		t.Errorf("Others = %+v, want only the earlier player", result.Others)
	}
	if len(result.Leaderboard) != 1 || result.Leaderboard[0].UserID != "u1" {
		t.Errorf("Leaderboard = %+v, want u1's durable score", result.Leaderboard)
	}

	joined := h.eventsOfType(events.EventTypePlayerJoined)
	if len(joined) != 2 {
		t.Fatalf("PlayerJoined events = %d, want 2", len(joined))
	}
}

func TestJoinRejectsBadNickname(t *testing.T) {
	h := newHarness(t)

	if _, err := h.app.Join(context.Background(), "u1", "a"); err == nil {
		t.Fatal("Join() accepted an invalid nickname")
	}
	if got := len(h.publisher.Events()); got != 0 {
		t.Errorf("published %d events for a rejected join, want 0", got)
	}
}

func TestLeavePublishesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.app.Join(ctx, "u1", "테스터"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	h.app.Leave(ctx, "u1", "disconnect")
	h.app.Leave(ctx, "u1", "disconnect")

	left := h.eventsOfType(events.EventTypePlayerLeft)
	if len(left) != 1 {
		t.Fatalf("PlayerLeft events = %d, want 1", len(left))
	}
	if h.app.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d after leave, want 0", h.app.SessionCount())
	}
}

func TestSquishRequiresLiveTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.app.Squish(ctx, "source", "ghost", 1, 2)
	if !errors.Is(err, session.ErrUnknownSession) {
		t.Fatalf("Squish() on a ghost = %v, want ErrUnknownSession", err)
	}

	if _, err := h.app.Join(ctx, "target", "테스터"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if err := h.app.Squish(ctx, "source", "target", 1, 2); err != nil {
		t.Fatalf("Squish() error: %v", err)
	}

	squished := h.eventsOfType(events.EventTypeSquish)
	if len(squished) != 1 {
		t.Fatalf("SquishTriggered events = %d, want 1", len(squished))
	}

	view, ok := h.app.ViewFor("target")
	if !ok {
		t.Fatal("ViewFor() lost the target session")
	}
	if len(view.Squishes) != 1 || view.Squishes[0].TargetID != "target" {
		t.Errorf("view squishes = %+v, want the triggered effect", view.Squishes)
	}
}

func TestApplyAwardsPersistsAndAnnounces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.app.Join(ctx, "u1", "테스터"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	activeZone := h.zones.EnsureActive()

	h.app.applyAwards(ctx, []zone.Award{{ZoneID: activeZone.ID, UserID: "u1", Nickname: "테스터"}})

	scored := h.eventsOfType(events.EventTypeZoneScored)
	if len(scored) != 1 {
		t.Fatalf("ZoneScored events = %d, want 1", len(scored))
	}
	boards := h.eventsOfType(events.EventTypeLeaderboard)
	if len(boards) != 1 {
		t.Fatalf("LeaderboardUpdated events = %d, want 1", len(boards))
	}

	view, ok := h.app.ViewFor("u1")
	if !ok {
		t.Fatal("ViewFor() lost the session")
	}
	if view.Score != 1 {
		t.Errorf("cached score = %d after award, want 1", view.Score)
	}

	row, err := h.querier.GetScore(ctx, "u1")
	if err != nil || row.Score != 1 {
		t.Errorf("persisted score = (%+v, %v), want score 1", row, err)
	}
}

func TestViewForUnknownSession(t *testing.T) {
	h := newHarness(t)

	if _, ok := h.app.ViewFor("nobody"); ok {
		t.Fatal("ViewFor() returned a view for an unknown session")
	}
}

func TestViewIncludesDwellProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.app.Join(ctx, "u1", "테스터"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	activeZone := h.zones.EnsureActive()

	// Simulate the dwell pass seeing the player inside the zone.
	sessions := h.app.registry.Snapshot()
	sessions[0].Position.X = activeZone.X
	sessions[0].Position.Y = activeZone.Y
	h.zones.UpdateDwell(sessions)
	h.clock.Advance(2 * time.Second)

	view, ok := h.app.ViewFor("u1")
	if !ok {
		t.Fatal("ViewFor() lost the session")
	}
	if view.DwellElapsedSec == nil {
		t.Fatal("DwellElapsedSec = nil, want dwell progress")
	}
	if *view.DwellElapsedSec != 2 {
		t.Errorf("DwellElapsedSec = %v, want 2", *view.DwellElapsedSec)
	}
	if view.Zone == nil || view.Zone.RemainingSec <= 0 {
		t.Errorf("Zone = %+v, want the active zone with time remaining", view.Zone)
	}
}

func TestSweepIntervalBounds(t *testing.T) {
	if got := sweepInterval(10 * time.Second); got != 5*time.Second {
		t.Errorf("sweepInterval(10s) = %v, want 5s", got)
	}
	if got := sweepInterval(time.Second); got != time.Second {
		t.Errorf("sweepInterval(1s) = %v, want the 1s floor", got)
	}
}
