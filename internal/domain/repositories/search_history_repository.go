package repositories

import (
	"context"
	"time"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

type SearchHistoryRepository interface {
	Create(ctx context.Context, entry *entities.SearchHistory) error
	ListRecent(ctx context.Context, limit int) ([]*entities.SearchHistory, error)
	// PurgeBefore deletes entries created before cutoff and returns how many
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
