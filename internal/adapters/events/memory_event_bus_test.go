package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
)

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, providers.EventChannelStructureUpdates)
	require.NoError(t, err)

	event := entities.NewStructureEvent(7, entities.StructureEventServicesChanged)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelStructureUpdates, event))

	select {
	case got := <-sub:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, int64(7), got.StructureID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMemoryEventBus_ChannelIsolation(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx := context.Background()
	sub, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "b", entities.NewStructureEvent(1, entities.StructureEventUpdated)))

	select {
	case <-sub:
		t.Fatal("received event from another channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_CancelClosesSubscription(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestMemoryEventBus_CloseEndsSubscriptions(t *testing.T) {
	bus := NewMemoryEventBus()

	sub, err := bus.Subscribe(context.Background(), "a")
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}
