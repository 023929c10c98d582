package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/joayo/arena/internal/arena"
	"github.com/joayo/arena/internal/bus"
	"github.com/joayo/arena/internal/gateway"
	"github.com/joayo/arena/internal/score"
	"github.com/joayo/arena/internal/session"
	"github.com/joayo/arena/internal/squish"
	"github.com/joayo/arena/internal/world"
	"github.com/joayo/arena/internal/zone"
)

// Services bundles everything main wires together.
type Services struct {
	Arena     *arena.App
	Gateway   *gateway.Service
	Publisher *bus.NATSPublisher
}

func setupServices(ctx context.Context, tuning world.Tuning, pool *pgxpool.Pool) (*Services, error) {
	clock := clockwork.NewRealClock()

	// Score ledger over Postgres.
	querier := score.NewPostgresQuerier(pool)
	if err := querier.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	scoreApp := score.NewApp(score.NewRepository(querier), clock, tuning.LeaderboardSize)

	// Event bus.
	natsConfig := bus.DefaultNATSConfig()
	natsConfig.URL = getEnv("NATS_URL", natsConfig.URL)
	publisher, err := bus.NewNATSPublisher(ctx, natsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus publisher: %w", err)
	}

	// World state.
	registry := session.NewRegistry(tuning, clock)
	zones := zone.NewManager(tuning, clock, time.Now().UnixNano())
	squishes := squish.NewRegistry(tuning.SquishTTL, clock)

	arenaApp := arena.NewApp(registry, zones, squishes, scoreApp, publisher, nil, tuning, clock)

	// Gateway fans events and snapshots out to clients.
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.JetStreamConfig.URL = natsConfig.URL
	gatewayConfig.MaxSessions = tuning.MaxSessions
	gatewayService, err := gateway.NewService(gatewayConfig, arenaApp)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	// Position snapshots skip the bus and go straight to the socket pool.
	arenaApp.SetBroadcaster(gatewayService.ConnectionManager())

	return &Services{
		Arena:     arenaApp,
		Gateway:   gatewayService,
		Publisher: publisher,
	}, nil
}
