package handlers

import (
	"context"
	"net/http"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

// CatalogService defines the catalog operations used by the handler
type CatalogService interface {
	ListServices(ctx context.Context) ([]*entities.Service, error)
	CreateService(ctx context.Context, caller *entities.Caller, service *entities.Service) error
	ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error)
	CreateInsurance(ctx context.Context, caller *entities.Caller, insurance *entities.InsuranceCompany) error
	ListProducts(ctx context.Context) ([]*entities.Product, error)
	CreateProduct(ctx context.Context, caller *entities.Caller, product *entities.Product) error
}

// CatalogHandler serves the service, insurer and product reference lists
type CatalogHandler struct {
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListServices handles GET /api/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if services == nil {
		services = []*entities.Service{}
	}
	respondWithData(w, http.StatusOK, "", services)
}

// CreateService handles POST /api/services
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var service entities.Service
	if err := decodeJSON(r, &service); err != nil {
		respondWithAppError(w, err)
		return
	}
	service.ID = 0
	if err := h.service.CreateService(r.Context(), entities.CallerFromContext(r.Context()), &service); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "service created", service)
}

// ListInsurances handles GET /api/assurances
func (h *CatalogHandler) ListInsurances(w http.ResponseWriter, r *http.Request) {
	insurances, err := h.service.ListInsurances(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if insurances == nil {
		insurances = []*entities.InsuranceCompany{}
	}
	respondWithData(w, http.StatusOK, "", insurances)
}

// CreateInsurance handles POST /api/assurances
func (h *CatalogHandler) CreateInsurance(w http.ResponseWriter, r *http.Request) {
	var insurance entities.InsuranceCompany
	if err := decodeJSON(r, &insurance); err != nil {
		respondWithAppError(w, err)
		return
	}
	insurance.ID = 0
	if err := h.service.CreateInsurance(r.Context(), entities.CallerFromContext(r.Context()), &insurance); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "insurance created", insurance)
}

// ListProducts handles GET /api/produits
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if products == nil {
		products = []*entities.Product{}
	}
	respondWithData(w, http.StatusOK, "", products)
}

// CreateProduct handles POST /api/produits
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product entities.Product
	if err := decodeJSON(r, &product); err != nil {
		respondWithAppError(w, err)
		return
	}
	product.ID = 0
	if err := h.service.CreateProduct(r.Context(), entities.CallerFromContext(r.Context()), &product); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "product created", product)
}
