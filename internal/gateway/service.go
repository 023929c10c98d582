package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the arena gateway: it owns the WebSocket connection pool, the
// JetStream event consumer, and the HTTP state routes.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	stateHandler      *StateHandler
}

// Config holds configuration for the arena gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
	MaxSessions      int
}

// DefaultConfig returns default configuration for the arena gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
		MaxSessions:      100,
	}
}

// NewService creates a new arena gateway service. The disconnect hook tears
// the session down server-side whether or not the client said goodbye.
func NewService(config Config, core Core) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	connectionManager.SetDisconnectHandler(func(userID string) {
		core.Leave(context.Background(), userID, "disconnect")
	})

	wsHandler := NewWebSocketHandler(connectionManager, core, config.MaxSessions)

	eventConsumer, err := NewEventConsumer(connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
		eventConsumer:     eventConsumer,
		stateHandler:      NewStateHandler(core),
	}, nil
}

// ConnectionManager exposes the fan-out side so the arena core can broadcast
// position snapshots directly.
func (s *Service) ConnectionManager() *ConnectionManager {
	return s.connectionManager
}

// Start begins the gateway service
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting arena gateway service")

	go s.connectionManager.Start(ctx)

	go func() {
		if err := s.eventConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("arena gateway service shutting down")
	return s.Stop()
}

// Stop gracefully shuts down the gateway service
func (s *Service) Stop() error {
	if err := s.eventConsumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}

	log.Info().Msg("arena gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("arena gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "arena_gateway"
	stats["status"] = "running"
	return stats
}
