package handlers

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

const (
	defaultSuggestLimit = 8
	maxSuggestLimit     = 20
)

// SearchService defines the search operation used by the handler
type SearchService interface {
	Search(ctx context.Context, query *entities.SearchQuery) (*entities.ResultPage, error)
}

// SearchHandler handles public structure search and name suggestions
type SearchHandler struct {
	service   SearchService
	suggester providers.StructureIndexer
}

// NewSearchHandler creates a new search handler. suggester may be nil when
// the search index is disabled.
func NewSearchHandler(service SearchService, suggester providers.StructureIndexer) *SearchHandler {
	return &SearchHandler{service: service, suggester: suggester}
}

type searchResponse struct {
	Status     bool                       `json:"status"`
	Structures []entities.StructureResult `json:"structures"`
	Count      int                        `json:"count"`
}

// SearchStructures handles GET /api/structures-sante/search
func (h *SearchHandler) SearchStructures(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	page, err := h.service.Search(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, searchResponse{
		Status:     true,
		Structures: page.Structures,
		Count:      page.Total,
	})
}

type suggestResponse struct {
	Status      bool                             `json:"status"`
	Suggestions []*providers.StructureSuggestion `json:"suggestions"`
	Count       int                              `json:"count"`
}

// SuggestStructures handles GET /api/structures-sante/suggest
func (h *SearchHandler) SuggestStructures(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		respondWithError(w, http.StatusServiceUnavailable, "suggestions are not available")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("invalid query", map[string]string{"q": "is required"}))
		return
	}

	limit := defaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithAppError(w, apperrors.NewFieldValidationError("invalid query", map[string]string{"limit": "must be a positive integer"}))
			return
		}
		limit = min(n, maxSuggestLimit)
	}

	suggestions, err := h.suggester.Suggest(r.Context(), q, limit)
	if err != nil {
		respondWithAppError(w, apperrors.NewUnavailableError("search index unavailable", err))
		return
	}
	if suggestions == nil {
		suggestions = []*providers.StructureSuggestion{}
	}

	respondWithJSON(w, http.StatusOK, suggestResponse{Status: true, Suggestions: suggestions, Count: len(suggestions)})
}

// parseSearchQuery reads the public search parameters. Malformed values
// are reported per field.
func parseSearchQuery(values url.Values) (*entities.SearchQuery, error) {
	fields := map[string]string{}
	query := &entities.SearchQuery{Text: strings.TrimSpace(values.Get("search"))}

	if t := strings.TrimSpace(values.Get("type")); t != "" {
		query.Type = entities.StructureType(strings.ToLower(t))
		if query.Type != entities.StructureTypeAll && !query.Type.IsValid() {
			fields["type"] = "is not a known structure type"
		}
	}

	var err error
	if query.ServiceIDs, err = parseIDList(values, "service"); err != nil {
		fields["service"] = err.Error()
	}
	if query.InsuranceIDs, err = parseIDList(values, "assurance"); err != nil {
		fields["assurance"] = err.Error()
	}

	query.Latitude = parseFloatParam(values, "user_lat", -90, 90, fields)
	query.Longitude = parseFloatParam(values, "user_lon", -180, 180, fields)
	query.RadiusKm = parseFloatParam(values, "radius", 0, math.MaxFloat64, fields)
	if query.RadiusKm != nil && *query.RadiusKm <= 0 {
		fields["radius"] = "must be greater than 0"
	}

	if raw := strings.TrimSpace(values.Get("open_now")); raw != "" {
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			query.OpenNow = true
		case "0", "false", "no", "off":
		default:
			fields["open_now"] = "must be a boolean"
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError("invalid search parameters", fields)
	}
	return query, nil
}

// parseIDList accepts repeated keys (service=1&service=2), array keys
// (service[]=1) and comma separated values (service=1,2)
func parseIDList(values url.Values, key string) ([]int64, error) {
	raw := append(append([]string{}, values[key]...), values[key+"[]"]...)

	var ids []int64
	seen := map[int64]struct{}{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, errInvalidIDList
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

const errInvalidIDList = fieldError("must be a list of positive integer ids")

func parseFloatParam(values url.Values, key string, lo, hi float64, fields map[string]string) *float64 {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		fields[key] = "must be a number"
		return nil
	}
	if v < lo || v > hi {
		fields[key] = "is out of range"
		return nil
	}
	return &v
}
