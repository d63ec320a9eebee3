package repositories

import (
	"context"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// AssociationRepository mutates the structure↔service, structure↔insurance
// and structure↔product relations. Each call runs in one transaction with
// the structure row locked, so concurrent attach/detach on the same pair
// cannot both succeed.
//
// Attach returns NotFound when either side is missing and Conflict when
// the pair already exists. Update and Detach return NotFound when the
// pair is not attached.
type AssociationRepository interface {
	AttachService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error)
	UpdateService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error)
	DetachService(ctx context.Context, structureID, serviceID int64) error

	AttachInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error)
	UpdateInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error)
	DetachInsurance(ctx context.Context, structureID, insuranceID int64) error

	AttachStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error)
	UpdateStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error)
	DetachStock(ctx context.Context, structureID, productID int64) error
}
