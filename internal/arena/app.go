package arena

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/bus"
	"github.com/joayo/arena/internal/events"
	"github.com/joayo/arena/internal/models"
	"github.com/joayo/arena/internal/score"
	"github.com/joayo/arena/internal/session"
	"github.com/joayo/arena/internal/squish"
	"github.com/joayo/arena/internal/world"
	"github.com/joayo/arena/internal/zone"
)

// TopicBroadcaster fans a topic payload out to every subscribed client.
// High-rate position snapshots go through here directly; discrete events take
// the bus and reach clients via the gateway's event consumer.
type TopicBroadcaster interface {
	Broadcast(topic string, payload any)
}

// App is the arena core: it owns the session registry, the zone lifecycle,
// the score ledger, and the squish effects, and runs the simulation loops.
type App struct {
	registry    *session.Registry
	zones       *zone.Manager
	squishes    *squish.Registry
	scores      *score.App
	publisher   bus.Publisher
	broadcaster TopicBroadcaster
	tuning      world.Tuning
	clock       clockwork.Clock

	// scoreCache holds each live session's own score so the per-tick view
	// never touches the database. Loaded at join, bumped on award.
	scoreCacheMu sync.Mutex
	scoreCache   map[string]int
}

// NewApp wires the arena core together.
func NewApp(
	registry *session.Registry,
	zones *zone.Manager,
	squishes *squish.Registry,
	scores *score.App,
	publisher bus.Publisher,
	broadcaster TopicBroadcaster,
	tuning world.Tuning,
	clock clockwork.Clock,
) *App {
	return &App{
		registry:    registry,
		zones:       zones,
		squishes:    squishes,
		scores:      scores,
		publisher:   publisher,
		broadcaster: broadcaster,
		tuning:      tuning,
		clock:       clock,
		scoreCache:  make(map[string]int),
	}
}

// SetBroadcaster installs the position fan-out. Must be called before Run;
// the constructor accepts nil so the gateway can be built against the app
// first.
func (a *App) SetBroadcaster(b TopicBroadcaster) {
	a.broadcaster = b
}

// JoinResult is the handshake a freshly joined client receives.
type JoinResult struct {
	Session     models.Session            `json:"session"`
	Score       int                       `json:"score"`
	Zone        *ZoneView                 `json:"zone,omitempty"`
	Others      []models.Session          `json:"others"`
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
}

// Join creates a session, loads the player's durable score once, and returns
// everything the client needs to render its first frame.
func (a *App) Join(ctx context.Context, userID, nick string) (*JoinResult, error) {
	sess, err := a.registry.Join(userID, nick)
	if err != nil {
		return nil, err
	}

	loaded, err := a.scores.Load(ctx, userID)
	if err != nil {
		// The session is live either way; a failed load just starts the HUD
		// at zero until the leaderboard feed corrects it.
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load score at join")
		loaded = 0
	}
	a.scoreCacheMu.Lock()
	a.scoreCache[userID] = loaded
	a.scoreCacheMu.Unlock()

	leaderboard, err := a.scores.Leaderboard(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard at join")
	}

	a.publish(ctx, events.EventTypePlayerJoined, events.PlayerJoinedPayload{
		UserID:   userID,
		Nickname: nick,
		Position: sess.Position,
		JoinedAt: sess.JoinedAt,
	})

	result := &JoinResult{
		Session:     sess,
		Score:       loaded,
		Others:      a.registry.ListOthers(userID),
		Leaderboard: leaderboard,
	}
	if current, ok := a.zones.Current(); ok {
		view := a.zoneView(current)
		result.Zone = &view
	}
	return result, nil
}

// Leave tears down a session. Idempotent; the gateway's disconnect path calls
// this for both graceful and ungraceful exits.
func (a *App) Leave(ctx context.Context, userID, reason string) {
	if _, ok := a.registry.Get(userID); !ok {
		return
	}
	a.registry.Leave(userID)

	a.scoreCacheMu.Lock()
	delete(a.scoreCache, userID)
	a.scoreCacheMu.Unlock()

	a.publish(ctx, events.EventTypePlayerLeft, events.PlayerLeftPayload{
		UserID: userID,
		LeftAt: a.clock.Now(),
		Reason: reason,
	})
}

// SetInput stores the latest held-keys state for a player.
func (a *App) SetInput(userID string, in world.Input) error {
	return a.registry.SetInput(userID, in)
}

// Heartbeat refreshes a session's liveness.
func (a *App) Heartbeat(userID string) error {
	return a.registry.Heartbeat(userID)
}

// SessionCount reports live sessions, for admission control at the gateway.
func (a *App) SessionCount() int {
	return a.registry.Count()
}

// Squish records a click effect on the target player and announces it.
func (a *App) Squish(ctx context.Context, sourceID, targetID string, clickX, clickY float64) error {
	if _, ok := a.registry.Get(targetID); !ok {
		return session.ErrUnknownSession
	}

	effect := a.squishes.Trigger(targetID, clickX, clickY)
	a.publish(ctx, events.EventTypeSquish, events.SquishPayload{
		TargetID: targetID,
		SourceID: sourceID,
		ClickX:   effect.ClickX,
		ClickY:   effect.ClickY,
		Time:     effect.Time,
	})
	return nil
}

// publish marshals and ships one event, logging instead of failing the caller:
// event delivery is fire-and-forget from the simulation's perspective.
func (a *App) publish(ctx context.Context, eventType events.EventType, payload any) {
	env, err := events.NewEnvelope(eventType, a.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event envelope")
		return
	}
	if err := a.publisher.Publish(ctx, env); err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}

func (a *App) cachedScore(userID string) int {
	a.scoreCacheMu.Lock()
	defer a.scoreCacheMu.Unlock()
	return a.scoreCache[userID]
}

func (a *App) bumpCachedScore(userID string, to int) {
	a.scoreCacheMu.Lock()
	defer a.scoreCacheMu.Unlock()
	if _, ok := a.scoreCache[userID]; ok {
		a.scoreCache[userID] = to
	}
}

// zoneView converts a zone record into its client-facing shape.
func (a *App) zoneView(z models.Zone) ZoneView {
	return ZoneView{
		ID:           z.ID.String(),
		X:            z.X,
		Y:            z.Y,
		Size:         a.tuning.ZoneSize,
		RemainingSec: z.RemainingAt(a.clock.Now()).Seconds(),
		Version:      z.Version,
	}
}

// sweepInterval bounds how often periodic sweeps run.
func sweepInterval(window time.Duration) time.Duration {
	interval := window / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
