package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// SearchHistoryService defines the history read used by the handler
type SearchHistoryService interface {
	ListRecent(ctx context.Context, caller *entities.Caller, limit int) ([]*entities.SearchHistory, error)
}

// SearchHistoryHandler exposes recent searches to administrators
type SearchHistoryHandler struct {
	service SearchHistoryService
}

// NewSearchHistoryHandler creates a new search history handler
func NewSearchHistoryHandler(service SearchHistoryService) *SearchHistoryHandler {
	return &SearchHistoryHandler{service: service}
}

// ListRecent handles GET /api/search-history
func (h *SearchHistoryHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithAppError(w, apperrors.NewFieldValidationError("invalid query", map[string]string{
				"limit": "must be a non-negative integer",
			}))
			return
		}
		limit = n
	}

	entries, err := h.service.ListRecent(r.Context(), entities.CallerFromContext(r.Context()), limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if entries == nil {
		entries = []*entities.SearchHistory{}
	}
	respondWithData(w, http.StatusOK, "", entries)
}
