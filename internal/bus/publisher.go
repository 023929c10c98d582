package bus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/events"
)

// Publisher carries world events from the arena core to whoever fans them out.
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// MemoryPublisher buffers events in memory. Used in tests and as a fallback
// when no NATS URL is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []events.Envelope

	// Handler, when set, is invoked synchronously for every published event.
	Handler func(events.Envelope)
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, env events.Envelope) error {
	p.mu.Lock()
	p.events = append(p.events, env)
	handler := p.Handler
	p.mu.Unlock()

	if handler != nil {
		handler(env)
	}

	log.Debug().
		Str("event_id", env.EventID.String()).
		Str("event_type", string(env.EventType)).
		Msg("buffered event in memory publisher")
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Envelope, len(p.events))
	copy(out, p.events)
	return out
}
