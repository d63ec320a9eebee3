package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/api/handlers"
	"github.com/annuaire-sante/backend/internal/domain/entities"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

type stubCatalogService struct {
	services []*entities.Service
	products []*entities.Product
	createFn func(caller *entities.Caller) error
}

func (s *stubCatalogService) ListServices(ctx context.Context) ([]*entities.Service, error) {
	return s.services, nil
}

func (s *stubCatalogService) CreateService(ctx context.Context, caller *entities.Caller, service *entities.Service) error {
	if err := s.createFn(caller); err != nil {
		return err
	}
	service.ID = int64(len(s.services) + 1)
	s.services = append(s.services, service)
	return nil
}

func (s *stubCatalogService) ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error) {
	return nil, nil
}

func (s *stubCatalogService) CreateInsurance(ctx context.Context, caller *entities.Caller, insurance *entities.InsuranceCompany) error {
	return s.createFn(caller)
}

func (s *stubCatalogService) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	return s.products, nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, caller *entities.Caller, product *entities.Product) error {
	return s.createFn(caller)
}

func adminOnly(caller *entities.Caller) error {
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}
	if !caller.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}

func TestCatalogHandler_CreateService(t *testing.T) {
	service := &stubCatalogService{createFn: adminOnly}
	handler := handlers.NewCatalogHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`{"id":99,"name":"Cardiologie"}`))
	req = req.WithContext(entities.ContextWithCaller(req.Context(), adminCaller))
	w := httptest.NewRecorder()
	handler.CreateService(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, service.services, 1)
	assert.Equal(t, int64(1), service.services[0].ID, "client supplied id is ignored")
}

func TestCatalogHandler_CreateRequiresAdmin(t *testing.T) {
	service := &stubCatalogService{createFn: adminOnly}
	handler := handlers.NewCatalogHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/produits", strings.NewReader(`{"name":"Ibuprofène"}`))
	req = req.WithContext(entities.ContextWithCaller(req.Context(), &entities.Caller{ID: 3, Role: entities.RoleUser}))
	w := httptest.NewRecorder()
	handler.CreateProduct(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogHandler_DuplicateNameConflicts(t *testing.T) {
	service := &stubCatalogService{createFn: func(*entities.Caller) error {
		return apperrors.NewConflictError("insurance company: already exists")
	}}
	handler := handlers.NewCatalogHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/assurances", strings.NewReader(`{"name":"NSIA"}`))
	req = req.WithContext(entities.ContextWithCaller(req.Context(), adminCaller))
	w := httptest.NewRecorder()
	handler.CreateInsurance(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogHandler_ListsNeverReturnNull(t *testing.T) {
	handler := handlers.NewCatalogHandler(&stubCatalogService{createFn: adminOnly})

	for _, list := range []func(http.ResponseWriter, *http.Request){
		handler.ListServices, handler.ListInsurances, handler.ListProducts,
	} {
		w := httptest.NewRecorder()
		list(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	handler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{},
	})
	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.True(t, body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)

	handler = handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": stubPinger{err: errors.New("connection refused")},
	})
	w = httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
