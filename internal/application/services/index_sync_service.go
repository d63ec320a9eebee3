package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// IndexSyncService keeps the suggestion index in line with the store.
// Structure writes call Reindex/Remove directly; association and
// evaluation changes arrive as events on the bus.
type IndexSyncService struct {
	repo     repositories.StructureRepository
	indexer  providers.StructureIndexer
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewIndexSyncService creates a new index sync service. eventBus may be nil
// when only direct reindexing is needed.
func NewIndexSyncService(repo repositories.StructureRepository, indexer providers.StructureIndexer, eventBus providers.EventBus) *IndexSyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &IndexSyncService{
		repo:     repo,
		indexer:  indexer,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for structure events
func (s *IndexSyncService) Start() error {
	if s.eventBus == nil {
		return fmt.Errorf("index sync requires an event bus")
	}
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelStructureUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to structure updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("index sync service started")
	return nil
}

// Stop stops listening and waits for the event loop to exit
func (s *IndexSyncService) Stop() {
	s.cancel()
	if !s.started {
		return
	}
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
	log.Info().Msg("index sync service stopped")
}

func (s *IndexSyncService) processEvents(eventChan <-chan *entities.StructureEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *IndexSyncService) handleEvent(event *entities.StructureEvent) {
	switch event.EventType {
	case entities.StructureEventCreated, entities.StructureEventUpdated, entities.StructureEventDeleted:
		// Indexed synchronously by the writer.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Reindex(ctx, event.StructureID); err != nil {
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Int64("structure_id", event.StructureID).
			Str("event_type", string(event.EventType)).
			Msg("failed to reindex structure")
	}
}

// Reindex refreshes one structure's document. Unverified or missing
// structures are removed from the index.
func (s *IndexSyncService) Reindex(ctx context.Context, id int64) error {
	structure, err := s.repo.GetVerified(ctx, id)
	if apperrors.IsNotFound(err) {
		return s.Remove(ctx, id)
	}
	if err != nil {
		return err
	}
	err = s.indexer.Index(ctx, structure)
	observability.IndexOperationsTotal.WithLabelValues("index", observability.Outcome(err)).Inc()
	return err
}

// Remove deletes one structure's document
func (s *IndexSyncService) Remove(ctx context.Context, id int64) error {
	err := s.indexer.Delete(ctx, id)
	observability.IndexOperationsTotal.WithLabelValues("delete", observability.Outcome(err)).Inc()
	return err
}

// ReindexAll rebuilds the index from every verified structure. With reset
// the collection is dropped first, which also clears stale documents.
func (s *IndexSyncService) ReindexAll(ctx context.Context, reset bool) (int, error) {
	if reset {
		if err := s.indexer.Reset(ctx); err != nil {
			return 0, fmt.Errorf("failed to reset index: %w", err)
		}
	} else if err := s.indexer.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure index schema: %w", err)
	}

	structures, err := s.repo.ListVerified(ctx, repositories.StructureFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list structures: %w", err)
	}

	indexed := 0
	for _, structure := range structures {
		err := s.indexer.Index(ctx, structure)
		observability.IndexOperationsTotal.WithLabelValues("index", observability.Outcome(err)).Inc()
		if err != nil {
			log.Warn().Err(err).Int64("structure_id", structure.ID).Msg("failed to index structure")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(structures)).Msg("structure index rebuilt")
	return indexed, nil
}
