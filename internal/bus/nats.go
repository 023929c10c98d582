package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/events"
)

// NATSConfig holds connection and stream settings for the event bus.
type NATSConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string // events go to "<prefix>.<EventType>"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the stock bus configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		StreamName:    "ARENA_EVENTS",
		SubjectPrefix: "arena.events",
		MaxReconnects: -1, // infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes world events to a JetStream stream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config NATSConfig
}

// NewNATSPublisher connects to NATS and ensures the event stream exists.
func NewNATSPublisher(ctx context.Context, config NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &NATSPublisher{nc: nc, js: js, config: config}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

// ensureStream creates the event stream if it does not exist yet.
func (p *NATSPublisher) ensureStream(ctx context.Context) error {
	_, err := p.js.Stream(ctx, p.config.StreamName)
	if err == nil {
		log.Info().Str("stream", p.config.StreamName).Msg("using existing JetStream stream")
		return nil
	}

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Arena world events",
		Subjects:    []string{p.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
	return nil
}

// Publish sends one envelope to "<prefix>.<EventType>".
func (p *NATSPublisher) Publish(ctx context.Context, env events.Envelope) error {
	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, env.EventType)

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID.String()).
		Int("size", len(data)).
		Msg("published event")
	return nil
}

// Close tears down the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
