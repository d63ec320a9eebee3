package repositories

import (
	"context"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// CatalogRepository holds the reference lists structures attach to.
// Names are unique; Create returns Conflict on a duplicate name.
type CatalogRepository interface {
	ListServices(ctx context.Context) ([]*entities.Service, error)
	CreateService(ctx context.Context, service *entities.Service) error

	ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error)
	CreateInsurance(ctx context.Context, insurance *entities.InsuranceCompany) error

	ListProducts(ctx context.Context) ([]*entities.Product, error)
	CreateProduct(ctx context.Context, product *entities.Product) error
}
