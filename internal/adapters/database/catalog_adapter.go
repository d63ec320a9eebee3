package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// CatalogAdapter implements the CatalogRepository interface
type CatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CatalogRepository = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) *CatalogAdapter {
	return &CatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListServices returns every service ordered by name
func (a *CatalogAdapter) ListServices(ctx context.Context) ([]*entities.Service, error) {
	query, args, err := a.db.From("services").
		Select("id", "name", "category", "description", "created_at").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list services", err)
	}
	defer rows.Close()

	services := []*entities.Service{}
	for rows.Next() {
		s := &entities.Service{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan service", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// CreateService inserts a service
func (a *CatalogAdapter) CreateService(ctx context.Context, service *entities.Service) error {
	service.CreatedAt = time.Now().UTC()
	return a.insert(ctx, "services", goqu.Record{
		"name":        service.Name,
		"category":    service.Category,
		"description": service.Description,
		"created_at":  service.CreatedAt,
	}, &service.ID, fmt.Sprintf("service %q", service.Name))
}

// ListInsurances returns every insurance company ordered by name
func (a *CatalogAdapter) ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error) {
	query, args, err := a.db.From("insurance_companies").
		Select("id", "name", "phone", "email", "logo", "website", "created_at").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list insurance companies", err)
	}
	defer rows.Close()

	companies := []*entities.InsuranceCompany{}
	for rows.Next() {
		c := &entities.InsuranceCompany{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Logo, &c.Website, &c.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan insurance company", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// CreateInsurance inserts an insurance company
func (a *CatalogAdapter) CreateInsurance(ctx context.Context, insurance *entities.InsuranceCompany) error {
	insurance.CreatedAt = time.Now().UTC()
	return a.insert(ctx, "insurance_companies", goqu.Record{
		"name":       insurance.Name,
		"phone":      insurance.Phone,
		"email":      insurance.Email,
		"logo":       insurance.Logo,
		"website":    insurance.Website,
		"created_at": insurance.CreatedAt,
	}, &insurance.ID, fmt.Sprintf("insurance company %q", insurance.Name))
}

// ListProducts returns every product ordered by name
func (a *CatalogAdapter) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	query, args, err := a.db.From("products").
		Select("id", "name", "description", "created_at").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list products", err)
	}
	defer rows.Close()

	products := []*entities.Product{}
	for rows.Next() {
		p := &entities.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan product", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a product
func (a *CatalogAdapter) CreateProduct(ctx context.Context, product *entities.Product) error {
	product.CreatedAt = time.Now().UTC()
	return a.insert(ctx, "products", goqu.Record{
		"name":        product.Name,
		"description": product.Description,
		"created_at":  product.CreatedAt,
	}, &product.ID, fmt.Sprintf("product %q", product.Name))
}

func (a *CatalogAdapter) insert(ctx context.Context, table string, record goqu.Record, id *int64, label string) error {
	query, args, err := a.db.Insert(table).Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(id); err != nil {
		return translateError(err, label)
	}
	return nil
}
