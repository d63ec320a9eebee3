package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
	"github.com/annuaire-sante/backend/pkg/geo"
)

// SearchService answers public structure searches
type SearchService struct {
	repo     repositories.StructureRepository
	pipeline *FilterPipeline
	history  *SearchHistoryService
}

// NewSearchService creates a new search service. history may be nil.
func NewSearchService(repo repositories.StructureRepository, pipeline *FilterPipeline, history *SearchHistoryService) *SearchService {
	return &SearchService{
		repo:     repo,
		pipeline: pipeline,
		history:  history,
	}
}

// Search returns every verified structure matching query. With a location
// and radius the results are ordered by distance, otherwise by name.
func (s *SearchService) Search(ctx context.Context, query *entities.SearchQuery) (*entities.ResultPage, error) {
	if query == nil {
		query = &entities.SearchQuery{}
	}
	start := time.Now()

	filter := repositories.StructureFilter{}
	if query.HasTypeFilter() {
		filter.Type = query.Type
	}

	candidates, err := s.repo.ListVerified(ctx, filter)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("unavailable").Inc()
		log.Error().Err(err).Msg("structure store unavailable for search")
		return nil, apperrors.NewUnavailableError("structure directory is unavailable", err)
	}

	matched := s.pipeline.Apply(candidates, query)
	results := rank(matched, query)

	page := &entities.ResultPage{Structures: results, Total: len(results)}

	observability.SearchesTotal.WithLabelValues("ok").Inc()
	observability.SearchResultCount.Observe(float64(page.Total))

	if s.history != nil {
		s.history.Track(s.history.NewEntry(query, page.Total, time.Since(start), entities.CallerFromContext(ctx)))
	}

	return page, nil
}

func rank(structures []*entities.Structure, query *entities.SearchQuery) []entities.StructureResult {
	results := make([]entities.StructureResult, 0, len(structures))

	if !query.HasGeo() {
		for _, st := range structures {
			results = append(results, entities.StructureResult{Structure: st})
		}
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i], results[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		return results
	}

	meters := make(map[int64]float64, len(structures))
	for _, st := range structures {
		d, err := geo.DistanceMeters(*query.Latitude, *query.Longitude, *st.Latitude, *st.Longitude)
		if err != nil {
			continue
		}
		km := d / 1000
		meters[st.ID] = d
		results = append(results, entities.StructureResult{Structure: st, DistanceKm: &km})
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if meters[a.ID] != meters[b.ID] {
			return meters[a.ID] < meters[b.ID]
		}
		return a.ID < b.ID
	})
	return results
}
