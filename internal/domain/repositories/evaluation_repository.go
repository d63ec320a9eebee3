package repositories

import (
	"context"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// EvaluationRepository defines the interface for evaluation operations
type EvaluationRepository interface {
	// ListByStructure returns a structure's evaluations, newest first
	ListByStructure(ctx context.Context, structureID int64) ([]*entities.Evaluation, error)

	// Exists reports whether the user already rated the structure
	Exists(ctx context.Context, structureID, userID int64) (bool, error)

	// Create inserts an evaluation; Conflict on a second rating by the same user
	Create(ctx context.Context, evaluation *entities.Evaluation) error
}
