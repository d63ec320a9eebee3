package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// StructureService handles business logic for structures
type StructureService struct {
	repo     repositories.StructureRepository
	index    *IndexSyncService
	eventBus providers.EventBus
}

// NewStructureService creates a new structure service. index and eventBus may be nil.
func NewStructureService(repo repositories.StructureRepository, index *IndexSyncService, eventBus providers.EventBus) *StructureService {
	return &StructureService{
		repo:     repo,
		index:    index,
		eventBus: eventBus,
	}
}

// List returns verified structures, optionally of one type
func (s *StructureService) List(ctx context.Context, structureType entities.StructureType) ([]*entities.Structure, error) {
	filter := repositories.StructureFilter{}
	if structureType != "" && structureType != entities.StructureTypeAll {
		filter.Type = structureType
	}
	return s.repo.ListVerified(ctx, filter)
}

// ListAll returns structures of any status. Administrators only.
func (s *StructureService) ListAll(ctx context.Context, caller *entities.Caller, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, filter)
}

// Get returns one verified structure with its collections
func (s *StructureService) Get(ctx context.Context, id int64) (*entities.Structure, error) {
	return s.repo.GetVerified(ctx, id)
}

// Create registers a structure. Administrators only.
func (s *StructureService) Create(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if structure.Status == "" {
		structure.Status = entities.VerificationPending
	}
	if err := validateStructure(structure); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, structure); err != nil {
		return err
	}

	s.reindex(ctx, structure.ID)
	s.publish(ctx, structure.ID, entities.StructureEventCreated)
	return nil
}

// Update replaces a structure's own fields. A structure manager may edit
// the structure they manage but not its status or manager.
func (s *StructureService) Update(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error {
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}
	existing, err := s.repo.GetByID(ctx, structure.ID)
	if err != nil {
		return err
	}
	if !CanManageStructure(caller, existing) {
		return apperrors.NewForbiddenError("not allowed to manage this structure")
	}

	if structure.Status == "" {
		structure.Status = existing.Status
	}
	if !caller.IsAdmin() {
		if structure.Status != existing.Status {
			return apperrors.NewForbiddenError("only administrators can change a structure's status")
		}
		if structure.ManagerID == nil {
			structure.ManagerID = existing.ManagerID
		} else if existing.ManagerID == nil || *structure.ManagerID != *existing.ManagerID {
			return apperrors.NewForbiddenError("only administrators can change a structure's manager")
		}
	}
	if err := validateStructure(structure); err != nil {
		return err
	}

	structure.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, structure); err != nil {
		return err
	}

	s.reindex(ctx, structure.ID)
	s.publish(ctx, structure.ID, entities.StructureEventUpdated)
	return nil
}

// Delete removes a structure and, through the schema, its associations.
// Administrators only.
func (s *StructureService) Delete(ctx context.Context, caller *entities.Caller, id int64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			log.Warn().Err(err).Int64("structure_id", id).Msg("failed to remove structure from index")
		}
	}
	s.publish(ctx, id, entities.StructureEventDeleted)
	return nil
}

func (s *StructureService) reindex(ctx context.Context, id int64) {
	if s.index == nil {
		return
	}
	if err := s.index.Reindex(ctx, id); err != nil {
		// The index catches up on the next scheduled rebuild.
		log.Warn().Err(err).Int64("structure_id", id).Msg("failed to index structure")
	}
}

func (s *StructureService) publish(ctx context.Context, id int64, eventType entities.StructureEventType) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelStructureUpdates, entities.NewStructureEvent(id, eventType)); err != nil {
		log.Warn().Err(err).Int64("structure_id", id).Msg("failed to publish structure event")
	}
}

func requireAdmin(caller *entities.Caller) error {
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}
	if !caller.IsAdmin() {
		return apperrors.NewForbiddenError("administrator role required")
	}
	return nil
}

func validateStructure(structure *entities.Structure) error {
	fields := map[string]string{}

	structure.Name = strings.TrimSpace(structure.Name)
	if structure.Name == "" {
		fields["name"] = "is required"
	}
	if !structure.Type.IsValid() {
		fields["type"] = "is not a known structure type"
	}
	if !structure.Status.IsValid() {
		fields["status"] = "must be one of pending, verified, rejected"
	}
	if (structure.Latitude == nil) != (structure.Longitude == nil) {
		fields["latitude"] = "latitude and longitude must be given together"
	}
	if structure.Latitude != nil && (*structure.Latitude < -90 || *structure.Latitude > 90) {
		fields["latitude"] = "must be between -90 and 90"
	}
	if structure.Longitude != nil && (*structure.Longitude < -180 || *structure.Longitude > 180) {
		fields["longitude"] = "must be between -180 and 180"
	}
	if structure.OnDutyFrom != nil && structure.OnDutyTo != nil && structure.OnDutyTo.Before(*structure.OnDutyFrom) {
		fields["on_duty_to"] = "must not be before on_duty_from"
	}
	if hours, err := structure.OpeningHours.Normalize(); err != nil {
		fields["opening_hours"] = err.Error()
	} else {
		structure.OpeningHours = hours
	}

	if len(fields) > 0 {
		return apperrors.NewFieldValidationError("invalid structure", fields)
	}
	return nil
}
