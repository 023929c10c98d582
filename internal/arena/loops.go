package arena

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/events"
	"github.com/joayo/arena/internal/zone"
)

// TopicPlayers is the in-process broadcast topic for position snapshots.
const TopicPlayers = "players"

// Run starts the simulation loops and blocks until the context is cancelled:
// the movement tick, the dwell-scoring check, the zone expiry timer, and the
// liveness and squish sweeps.
func (a *App) Run(ctx context.Context) error {
	log.Info().
		Int("tick_rate", a.tuning.TickRate).
		Int("dwell_check_rate", a.tuning.DwellCheckRate).
		Msg("arena core started")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.zones.Run(ctx, func(t zone.Transition) { a.onZoneTransition(ctx, t) })
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runMovementLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runDwellLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runSweepLoop(ctx)
	}()

	wg.Wait()
	log.Info().Msg("arena core stopped")
	return nil
}

// runMovementLoop advances every session from its held input at the tick rate
// and fans the resulting snapshot out on the players topic.
func (a *App) runMovementLoop(ctx context.Context) {
	ticker := a.clock.NewTicker(a.tuning.TickInterval())
	defer ticker.Stop()

	var tick int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			tick++
			players := a.registry.Step()
			if a.broadcaster != nil {
				a.broadcaster.Broadcast(TopicPlayers, PlayersSnapshot{Players: players, Tick: tick})
			}
		}
	}
}

// runDwellLoop runs the dwell-scoring pass and turns completed dwells into
// ledger increments and events.
func (a *App) runDwellLoop(ctx context.Context) {
	ticker := a.clock.NewTicker(a.tuning.DwellCheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			awards := a.zones.UpdateDwell(a.registry.Snapshot())
			if len(awards) == 0 {
				continue
			}
			a.applyAwards(ctx, awards)
		}
	}
}

// applyAwards persists each award and announces the score and the refreshed
// leaderboard.
func (a *App) applyAwards(ctx context.Context, awards []zone.Award) {
	for _, award := range awards {
		record, err := a.scores.Increment(ctx, award.UserID, award.Nickname)
		if err != nil {
			log.Error().
				Err(err).
				Str("user_id", award.UserID).
				Str("zone_id", award.ZoneID.String()).
				Msg("failed to persist score award")
			continue
		}
		a.bumpCachedScore(award.UserID, record.Score)

		a.publish(ctx, events.EventTypeZoneScored, events.ZoneScoredPayload{
			ZoneID:   award.ZoneID.String(),
			UserID:   award.UserID,
			Nickname: award.Nickname,
			Score:    record.Score,
			ScoredAt: record.LastUpdate,
		})
	}

	leaderboard, err := a.scores.Leaderboard(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh leaderboard after awards")
		return
	}
	a.publish(ctx, events.EventTypeLeaderboard, events.LeaderboardPayload{
		Entries:   leaderboard,
		UpdatedAt: a.clock.Now(),
	})
}

// onZoneTransition announces zone replacements on the bus.
func (a *App) onZoneTransition(ctx context.Context, t zone.Transition) {
	if t.Expired != nil {
		a.publish(ctx, events.EventTypeZoneExpired, events.ZoneExpiredPayload{
			ZoneID:    t.Expired.ID.String(),
			ExpiredAt: a.clock.Now(),
		})
	}
	a.publish(ctx, events.EventTypeZoneSpawned, events.ZoneSpawnedPayload{
		ZoneID:      t.Next.ID.String(),
		X:           t.Next.X,
		Y:           t.Next.Y,
		CreatedAt:   t.Next.CreatedAt,
		DurationSec: int(t.Next.Duration.Seconds()),
		Version:     t.Next.Version,
	})
}

// runSweepLoop reaps stale sessions and expired squish effects.
func (a *App) runSweepLoop(ctx context.Context) {
	ticker := a.clock.NewTicker(sweepInterval(a.tuning.LivenessWindow))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			for _, userID := range a.registry.ReapStale() {
				a.scoreCacheMu.Lock()
				delete(a.scoreCache, userID)
				a.scoreCacheMu.Unlock()

				a.publish(ctx, events.EventTypePlayerLeft, events.PlayerLeftPayload{
					UserID: userID,
					LeftAt: a.clock.Now(),
					Reason: "liveness",
				})
			}
			a.squishes.Sweep()
		}
	}
}
