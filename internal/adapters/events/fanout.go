package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// fanout delivers events to per-channel subscriber queues. A full queue
// drops the event for that subscriber only.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.StructureEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.StructureEvent]struct{})}
}

func (f *fanout) add(channel string) chan *entities.StructureEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.StructureEvent]struct{})
	}
	sub := make(chan *entities.StructureEvent, subscriberBuffer)
	f.subscribers[channel][sub] = struct{}{}
	return sub
}

// remove closes sub and returns the number of subscribers left on channel
func (f *fanout) remove(channel string, sub chan *entities.StructureEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[sub]; ok {
		delete(subs, sub)
		close(sub)
	}
	if len(subs) == 0 {
		delete(f.subscribers, channel)
	}
	return len(subs)
}

func (f *fanout) removeAll(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subscribers[channel] {
		close(sub)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) broadcast(channel string, event *entities.StructureEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subscribers[channel] {
		select {
		case sub <- event:
		default:
			log.Warn().
				Str("channel", channel).
				Str("event_id", event.ID).
				Msg("subscriber queue full, dropping event")
		}
	}
}
