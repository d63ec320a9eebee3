package repositories

import (
	"context"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// StructureRepository is the facility store: structure rows and their
// hydrated collections.
type StructureRepository interface {
	// ListVerified returns verified structures, hydrated with services,
	// insurances, evaluations and stock
	ListVerified(ctx context.Context, filter StructureFilter) ([]*entities.Structure, error)

	// GetVerified returns one hydrated verified structure, or NotFound
	GetVerified(ctx context.Context, id int64) (*entities.Structure, error)

	// GetByID returns a structure of any status without its collections
	GetByID(ctx context.Context, id int64) (*entities.Structure, error)

	// ListAll returns structures of any status, hydrated
	ListAll(ctx context.Context, filter StructureFilter) ([]*entities.Structure, error)

	// Create inserts a structure and sets its ID and timestamps
	Create(ctx context.Context, structure *entities.Structure) error

	// Update replaces a structure's own fields
	Update(ctx context.Context, structure *entities.Structure) error

	// Delete removes a structure; association rows cascade
	Delete(ctx context.Context, id int64) error
}

// StructureFilter narrows structure listings
type StructureFilter struct {
	Type   entities.StructureType
	Status entities.VerificationStatus
}
