package services

import (
	"context"
	"strings"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// CatalogService manages the services, insurers and products structures
// can be associated with
type CatalogService struct {
	repo repositories.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repositories.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListServices(ctx context.Context) ([]*entities.Service, error) {
	return s.repo.ListServices(ctx)
}

// CreateService adds a service. Administrators only.
func (s *CatalogService) CreateService(ctx context.Context, caller *entities.Caller, service *entities.Service) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	service.Name = strings.TrimSpace(service.Name)
	if err := requireName(service.Name); err != nil {
		return err
	}
	return s.repo.CreateService(ctx, service)
}

func (s *CatalogService) ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error) {
	return s.repo.ListInsurances(ctx)
}

// CreateInsurance adds an insurer. Administrators only.
func (s *CatalogService) CreateInsurance(ctx context.Context, caller *entities.Caller, insurance *entities.InsuranceCompany) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	insurance.Name = strings.TrimSpace(insurance.Name)
	if err := requireName(insurance.Name); err != nil {
		return err
	}
	return s.repo.CreateInsurance(ctx, insurance)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	return s.repo.ListProducts(ctx)
}

// CreateProduct adds a product. Administrators only.
func (s *CatalogService) CreateProduct(ctx context.Context, caller *entities.Caller, product *entities.Product) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := requireName(product.Name); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, product)
}

func requireName(name string) error {
	if name == "" {
		return apperrors.NewFieldValidationError("invalid catalog entry", map[string]string{"name": "is required"})
	}
	return nil
}
