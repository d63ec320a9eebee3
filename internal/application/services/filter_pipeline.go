package services

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/pkg/geo"
)

// FilterPipeline narrows a candidate set of structures against a search
// query. Stages run in a fixed order: verification, type, services,
// insurances, open now, then distance. Each stage only removes candidates.
type FilterPipeline struct {
	location *time.Location
	now      func() time.Time
}

// NewFilterPipeline creates a pipeline that evaluates opening hours in loc
// at the instant returned by now
func NewFilterPipeline(loc *time.Location, now func() time.Time) *FilterPipeline {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &FilterPipeline{location: loc, now: now}
}

type filterStage struct {
	name string
	keep func(*entities.Structure) bool
}

// Apply returns the candidates that satisfy every active criterion of
// query, in their original order
func (p *FilterPipeline) Apply(candidates []*entities.Structure, query *entities.SearchQuery) []*entities.Structure {
	if len(candidates) == 0 {
		return []*entities.Structure{}
	}
	if query == nil {
		query = &entities.SearchQuery{}
	}

	result := candidates
	for _, stage := range p.stages(query) {
		before := len(result)
		result = keepIf(result, stage.keep)
		log.Debug().
			Str("stage", stage.name).
			Int("in", before).
			Int("out", len(result)).
			Msg("search filter applied")
		if len(result) == 0 {
			break
		}
	}
	return result
}

func (p *FilterPipeline) stages(query *entities.SearchQuery) []filterStage {
	stages := []filterStage{{
		name: "verified",
		keep: func(s *entities.Structure) bool { return s.IsVerified() },
	}}

	if query.HasTypeFilter() {
		stages = append(stages, filterStage{
			name: "type",
			keep: func(s *entities.Structure) bool { return s.Type == query.Type },
		})
	}

	if len(query.ServiceIDs) > 0 {
		wanted := idSet(query.ServiceIDs)
		stages = append(stages, filterStage{
			name: "services",
			keep: func(s *entities.Structure) bool { return anyIn(s.ServiceIDs(), wanted) },
		})
	}

	if len(query.InsuranceIDs) > 0 {
		wanted := idSet(query.InsuranceIDs)
		stages = append(stages, filterStage{
			name: "insurances",
			keep: func(s *entities.Structure) bool { return anyIn(s.InsuranceIDs(), wanted) },
		})
	}

	if query.OpenNow {
		now := p.now()
		stages = append(stages, filterStage{
			name: "open_now",
			keep: func(s *entities.Structure) bool { return IsOpenAt(s, now, p.location) },
		})
	}

	if query.HasGeo() {
		lat, lon, radius := *query.Latitude, *query.Longitude, *query.RadiusKm
		stages = append(stages, filterStage{
			name: "radius",
			keep: func(s *entities.Structure) bool {
				if !s.HasCoordinates() {
					return false
				}
				within, _ := geo.WithinRadiusKm(lat, lon, *s.Latitude, *s.Longitude, radius)
				return within
			},
		})
	}

	return stages
}

func keepIf(in []*entities.Structure, keep func(*entities.Structure) bool) []*entities.Structure {
	out := make([]*entities.Structure, 0, len(in))
	for _, s := range in {
		if s != nil && keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func anyIn(ids []int64, set map[int64]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
