package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 10 * time.Minute

// JobSchedulerConfig controls the periodic maintenance jobs
type JobSchedulerConfig struct {
	// HistoryRetention is how long search history is kept; zero disables the purge.
	HistoryRetention time.Duration
	// PurgeAt is the daily "HH:MM" the purge runs at.
	PurgeAt string
	// ReindexInterval is the full index rebuild period; zero disables it.
	ReindexInterval time.Duration
}

// JobScheduler runs search history retention and index rebuilds
type JobScheduler struct {
	history   *SearchHistoryService
	index     *IndexSyncService
	cfg       JobSchedulerConfig
	scheduler *gocron.Scheduler
}

// NewJobScheduler creates a scheduler running in loc. index may be nil.
func NewJobScheduler(history *SearchHistoryService, index *IndexSyncService, cfg JobSchedulerConfig, loc *time.Location) *JobScheduler {
	if loc == nil {
		loc = time.Local
	}
	if cfg.PurgeAt == "" {
		cfg.PurgeAt = "03:00"
	}
	scheduler := gocron.NewScheduler(loc)
	scheduler.SingletonModeAll()
	return &JobScheduler{
		history:   history,
		index:     index,
		cfg:       cfg,
		scheduler: scheduler,
	}
}

// Start registers the jobs and starts the scheduler asynchronously
func (j *JobScheduler) Start() error {
	if j.history != nil && j.cfg.HistoryRetention > 0 {
		if _, err := j.scheduler.Every(1).Day().At(j.cfg.PurgeAt).Do(j.PurgeHistory); err != nil {
			return fmt.Errorf("failed to schedule search history purge: %w", err)
		}
	}

	if j.index != nil && j.cfg.ReindexInterval > 0 {
		if _, err := j.scheduler.Every(j.cfg.ReindexInterval).WaitForSchedule().Do(j.Reindex); err != nil {
			return fmt.Errorf("failed to schedule reindex: %w", err)
		}
	}

	j.scheduler.StartAsync()
	log.Info().Int("jobs", len(j.scheduler.Jobs())).Msg("job scheduler started")
	return nil
}

// Stop stops the scheduler
func (j *JobScheduler) Stop() {
	j.scheduler.Stop()
}

// PurgeHistory deletes search history past the retention period
func (j *JobScheduler) PurgeHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.history.Purge(ctx, j.cfg.HistoryRetention); err != nil {
		log.Error().Err(err).Msg("search history purge failed")
	}
}

// Reindex rebuilds the suggestion index
func (j *JobScheduler) Reindex() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.index.ReindexAll(ctx, false); err != nil {
		log.Error().Err(err).Msg("scheduled reindex failed")
	}
}
