package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

const maxCommentLength = 2000

// EvaluationService handles structure ratings
type EvaluationService struct {
	structures  repositories.StructureRepository
	evaluations repositories.EvaluationRepository
	eventBus    providers.EventBus
}

// NewEvaluationService creates a new evaluation service. eventBus may be nil.
func NewEvaluationService(structures repositories.StructureRepository, evaluations repositories.EvaluationRepository, eventBus providers.EventBus) *EvaluationService {
	return &EvaluationService{
		structures:  structures,
		evaluations: evaluations,
		eventBus:    eventBus,
	}
}

// List returns the evaluations of a verified structure
func (s *EvaluationService) List(ctx context.Context, structureID int64) ([]*entities.Evaluation, error) {
	if _, err := s.structures.GetVerified(ctx, structureID); err != nil {
		return nil, err
	}
	return s.evaluations.ListByStructure(ctx, structureID)
}

// Submit records the caller's rating of a verified structure. A user may
// rate a structure once.
func (s *EvaluationService) Submit(ctx context.Context, caller *entities.Caller, evaluation *entities.Evaluation) error {
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}

	fields := map[string]string{}
	if evaluation.Rating < entities.MinRating || evaluation.Rating > entities.MaxRating {
		fields["rating"] = fmt.Sprintf("must be between %d and %d", entities.MinRating, entities.MaxRating)
	}
	evaluation.Comment = strings.TrimSpace(evaluation.Comment)
	if len(evaluation.Comment) > maxCommentLength {
		fields["comment"] = "is too long"
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError("invalid evaluation", fields)
	}

	if _, err := s.structures.GetVerified(ctx, evaluation.StructureID); err != nil {
		return err
	}

	exists, err := s.evaluations.Exists(ctx, evaluation.StructureID, caller.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewConflictError("you have already rated this structure")
	}

	evaluation.UserID = caller.ID
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now().UTC()
	}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		return err
	}

	if s.eventBus != nil {
		event := entities.NewStructureEvent(evaluation.StructureID, entities.StructureEventEvaluationSubmitted)
		if err := s.eventBus.Publish(ctx, providers.EventChannelStructureUpdates, event); err != nil {
			log.Warn().Err(err).Int64("structure_id", evaluation.StructureID).Msg("failed to publish evaluation event")
		}
	}
	return nil
}
