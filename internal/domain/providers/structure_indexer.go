package providers

import (
	"context"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// StructureIndexer keeps a full-text index of verified structures for
// name suggestions
type StructureIndexer interface {
	// EnsureSchema creates the index collection when missing
	EnsureSchema(ctx context.Context) error

	// Index upserts a structure document
	Index(ctx context.Context, structure *entities.Structure) error

	// Delete removes a structure document; a missing document is not an error
	Delete(ctx context.Context, id int64) error

	// Suggest returns up to limit verified structures whose name matches q
	Suggest(ctx context.Context, q string, limit int) ([]*StructureSuggestion, error)

	// Reset drops and recreates the collection
	Reset(ctx context.Context) error
}

// StructureSuggestion is a lightweight name match
type StructureSuggestion struct {
	ID   int64                  `json:"id"`
	Name string                 `json:"name"`
	Type entities.StructureType `json:"type"`
	City string                 `json:"city,omitempty"`
}
