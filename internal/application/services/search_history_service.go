package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
	"github.com/annuaire-sante/backend/pkg/textnorm"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// SearchHistoryQueueSize is how many entries may wait for storage before
// Track starts dropping them.
const SearchHistoryQueueSize = 256

// SearchHistoryService logs public searches and serves them to administrators
type SearchHistoryService struct {
	repo repositories.SearchHistoryRepository
	now  func() time.Time

	mu       sync.RWMutex
	stopped  bool
	queue    chan *entities.SearchHistory
	done     chan struct{}
	stopOnce sync.Once
}

// NewSearchHistoryService creates a new search history service and starts
// its storage worker. Call Stop to flush pending entries.
func NewSearchHistoryService(repo repositories.SearchHistoryRepository) *SearchHistoryService {
	s := &SearchHistoryService{
		repo:  repo,
		now:   time.Now,
		queue: make(chan *entities.SearchHistory, SearchHistoryQueueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// NewEntry builds the history record for a completed search
func (s *SearchHistoryService) NewEntry(query *entities.SearchQuery, resultCount int, latency time.Duration, caller *entities.Caller) *entities.SearchHistory {
	entry := &entities.SearchHistory{
		ID:              uuid.NewString(),
		Query:           query.Text,
		NormalizedQuery: textnorm.Fold(query.Text),
		ServiceIDs:      append([]int64{}, query.ServiceIDs...),
		InsuranceIDs:    append([]int64{}, query.InsuranceIDs...),
		Latitude:        query.Latitude,
		Longitude:       query.Longitude,
		RadiusKm:        query.RadiusKm,
		OpenNow:         query.OpenNow,
		ResultCount:     resultCount,
		LatencyMs:       int(latency.Milliseconds()),
		CreatedAt:       s.now().UTC(),
	}
	if query.HasTypeFilter() {
		entry.Type = query.Type
	}
	if caller != nil {
		id := caller.ID
		entry.CallerID = &id
	}
	return entry
}

// Track queues entry for storage. It never blocks: when the queue is full
// or the service is stopped the entry is dropped. Failures are logged,
// never returned.
func (s *SearchHistoryService) Track(entry *entities.SearchHistory) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		log.Warn().Str("search_id", entry.ID).Msg("search history stopped, entry dropped")
		return
	}
	select {
	case s.queue <- entry:
	default:
		log.Warn().Str("search_id", entry.ID).Msg("search history queue full, entry dropped")
	}
}

// Stop refuses new entries and waits until the queued ones are stored
func (s *SearchHistoryService) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *SearchHistoryService) run() {
	defer close(s.done)
	for entry := range s.queue {
		s.store(entry)
	}
}

func (s *SearchHistoryService) store(entry *entities.SearchHistory) {
	// Entries outlive their request context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("search_id", entry.ID).Msg("failed to record search history")
	}
}

// ListRecent returns the newest entries. Administrators only.
func (s *SearchHistoryService) ListRecent(ctx context.Context, caller *entities.Caller, limit int) ([]*entities.SearchHistory, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthenticatedError("authentication required")
	}
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("search history is restricted to administrators")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// Purge deletes entries older than retention
func (s *SearchHistoryService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	deleted, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("search history purged")
	return deleted, nil
}
