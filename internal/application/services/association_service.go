package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// CanManageStructure reports whether caller may change structure and its
// associations: administrators always, structure managers only for the
// structure they manage.
func CanManageStructure(caller *entities.Caller, structure *entities.Structure) bool {
	if caller == nil || structure == nil {
		return false
	}
	switch caller.Role {
	case entities.RoleAdmin:
		return true
	case entities.RoleStructureManager:
		return structure.ManagerID != nil && *structure.ManagerID == caller.ID
	}
	return false
}

// AssociationService attaches services, insurers and stocked products to
// structures on behalf of an authorized caller
type AssociationService struct {
	structures   repositories.StructureRepository
	associations repositories.AssociationRepository
	eventBus     providers.EventBus
}

// NewAssociationService creates a new association service. eventBus may be nil.
func NewAssociationService(structures repositories.StructureRepository, associations repositories.AssociationRepository, eventBus providers.EventBus) *AssociationService {
	return &AssociationService{
		structures:   structures,
		associations: associations,
		eventBus:     eventBus,
	}
}

// AttachService links a catalog service to a structure
func (s *AssociationService) AttachService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	if err := normalizeServicePivot(pivot); err != nil {
		return nil, err
	}
	return mutate(ctx, s, caller, pivot.StructureID, "service", "attach", entities.StructureEventServicesChanged,
		func() (*entities.ServicePivot, error) { return s.associations.AttachService(ctx, pivot) })
}

// UpdateService replaces the pivot data of an attached service
func (s *AssociationService) UpdateService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	if err := normalizeServicePivot(pivot); err != nil {
		return nil, err
	}
	return mutate(ctx, s, caller, pivot.StructureID, "service", "update", entities.StructureEventServicesChanged,
		func() (*entities.ServicePivot, error) { return s.associations.UpdateService(ctx, pivot) })
}

// DetachService unlinks a service from a structure
func (s *AssociationService) DetachService(ctx context.Context, caller *entities.Caller, structureID, serviceID int64) error {
	_, err := mutate(ctx, s, caller, structureID, "service", "detach", entities.StructureEventServicesChanged,
		func() (struct{}, error) { return struct{}{}, s.associations.DetachService(ctx, structureID, serviceID) })
	return err
}

// AttachInsurance records that a structure accepts an insurer
func (s *AssociationService) AttachInsurance(ctx context.Context, caller *entities.Caller, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	if pivot == nil {
		return nil, apperrors.NewValidationError("insurance association is required")
	}
	pivot.Modalities = strings.TrimSpace(pivot.Modalities)
	return mutate(ctx, s, caller, pivot.StructureID, "insurance", "attach", entities.StructureEventInsurancesChanged,
		func() (*entities.InsurancePivot, error) { return s.associations.AttachInsurance(ctx, pivot) })
}

// UpdateInsurance replaces the terms of an insurer affiliation
func (s *AssociationService) UpdateInsurance(ctx context.Context, caller *entities.Caller, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	if pivot == nil {
		return nil, apperrors.NewValidationError("insurance association is required")
	}
	pivot.Modalities = strings.TrimSpace(pivot.Modalities)
	return mutate(ctx, s, caller, pivot.StructureID, "insurance", "update", entities.StructureEventInsurancesChanged,
		func() (*entities.InsurancePivot, error) { return s.associations.UpdateInsurance(ctx, pivot) })
}

// DetachInsurance removes an insurer affiliation
func (s *AssociationService) DetachInsurance(ctx context.Context, caller *entities.Caller, structureID, insuranceID int64) error {
	_, err := mutate(ctx, s, caller, structureID, "insurance", "detach", entities.StructureEventInsurancesChanged,
		func() (struct{}, error) { return struct{}{}, s.associations.DetachInsurance(ctx, structureID, insuranceID) })
	return err
}

// AttachStock starts tracking a product's stock in a structure
func (s *AssociationService) AttachStock(ctx context.Context, caller *entities.Caller, item *entities.StockItem) (*entities.StockItem, error) {
	if err := normalizeStockItem(item); err != nil {
		return nil, err
	}
	return mutate(ctx, s, caller, item.StructureID, "stock", "attach", entities.StructureEventStockChanged,
		func() (*entities.StockItem, error) { return s.associations.AttachStock(ctx, item) })
}

// UpdateStock sets the quantity and status of a tracked product
func (s *AssociationService) UpdateStock(ctx context.Context, caller *entities.Caller, item *entities.StockItem) (*entities.StockItem, error) {
	if err := normalizeStockItem(item); err != nil {
		return nil, err
	}
	return mutate(ctx, s, caller, item.StructureID, "stock", "update", entities.StructureEventStockChanged,
		func() (*entities.StockItem, error) { return s.associations.UpdateStock(ctx, item) })
}

// DetachStock stops tracking a product in a structure
func (s *AssociationService) DetachStock(ctx context.Context, caller *entities.Caller, structureID, productID int64) error {
	_, err := mutate(ctx, s, caller, structureID, "stock", "detach", entities.StructureEventStockChanged,
		func() (struct{}, error) { return struct{}{}, s.associations.DetachStock(ctx, structureID, productID) })
	return err
}

// authorize loads the structure and checks caller may manage it. A missing
// structure is reported before a permission failure.
func (s *AssociationService) authorize(ctx context.Context, caller *entities.Caller, structureID int64) error {
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}
	structure, err := s.structures.GetByID(ctx, structureID)
	if err != nil {
		return err
	}
	if !CanManageStructure(caller, structure) {
		return apperrors.NewForbiddenError("not allowed to manage this structure")
	}
	return nil
}

func (s *AssociationService) publish(ctx context.Context, structureID int64, eventType entities.StructureEventType) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewStructureEvent(structureID, eventType)
	if err := s.eventBus.Publish(ctx, providers.EventChannelStructureUpdates, event); err != nil {
		log.Warn().Err(err).Int64("structure_id", structureID).Str("event_type", string(eventType)).
			Msg("failed to publish structure event")
	}
}

func mutate[T any](ctx context.Context, s *AssociationService, caller *entities.Caller, structureID int64, kind, operation string, eventType entities.StructureEventType, run func() (T, error)) (T, error) {
	var zero T
	err := s.authorize(ctx, caller, structureID)
	if err == nil {
		var out T
		out, err = run()
		if err == nil {
			observability.AssociationMutationsTotal.WithLabelValues(kind, operation, "ok").Inc()
			s.publish(ctx, structureID, eventType)
			return out, nil
		}
	}
	observability.AssociationMutationsTotal.WithLabelValues(kind, operation, outcomeLabel(err)).Inc()
	return zero, err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperrors.TypeOf(err)))
}

func normalizeServicePivot(pivot *entities.ServicePivot) error {
	if pivot == nil {
		return apperrors.NewValidationError("service association is required")
	}
	if pivot.Availability == "" {
		pivot.Availability = entities.AvailabilityAvailable
	}
	if !pivot.Availability.IsValid() {
		return apperrors.NewFieldValidationError("invalid service association", map[string]string{
			"disponibilite": "must be one of available, unavailable, by-appointment",
		})
	}
	pivot.Notes = strings.TrimSpace(pivot.Notes)
	return nil
}

func normalizeStockItem(item *entities.StockItem) error {
	if item == nil {
		return apperrors.NewValidationError("stock item is required")
	}
	fields := map[string]string{}
	if item.Quantity < 0 {
		fields["quantite"] = "must not be negative"
	}
	if item.Status == "" {
		item.Status = entities.StockStatusForQuantity(item.Quantity)
	} else if !item.Status.IsValid() {
		fields["statut"] = "must be one of available, critical, unavailable"
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError("invalid stock item", fields)
	}
	return nil
}
