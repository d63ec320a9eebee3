package events

import (
	"context"
	"sync"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
)

// MemoryEventBus is an in-process EventBus used when Redis is disabled.
// Events only reach subscribers in the same process.
type MemoryEventBus struct {
	fanout *fanout
	once   sync.Once
	done   chan struct{}
}

// NewMemoryEventBus creates a new in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{fanout: newFanout(), done: make(chan struct{})}
}

// Publish delivers the event to current subscribers
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.StructureEvent) error {
	b.fanout.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.StructureEvent, error) {
	sub := b.fanout.add(channel)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.fanout.remove(channel, sub)
	}()
	return sub, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.fanout.removeAll(channel)
	return nil
}

// Close closes all subscriptions
func (b *MemoryEventBus) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
