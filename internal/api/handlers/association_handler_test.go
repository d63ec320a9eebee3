package handlers_test

import (
	"context"
	"encoding/json"
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

type associationKey struct {
	structureID, relatedID int64
}

// stubAssociationService keeps service pivots in memory and mirrors the
// error contract of the real service for the service association only
type stubAssociationService struct {
	handlers.AssociationService
	services   map[associationKey]*entities.ServicePivot
	stocks     []*entities.StockItem
	lastCaller *entities.Caller
	forbidden  bool
}

func newStubAssociationService() *stubAssociationService {
	return &stubAssociationService{services: map[associationKey]*entities.ServicePivot{}}
}

func (s *stubAssociationService) check(caller *entities.Caller, structureID int64) error {
	s.lastCaller = caller
	if caller == nil {
		return apperrors.NewUnauthenticatedError("authentication required")
	}
	if structureID == 404 {
		return apperrors.NewNotFoundError("structure not found")
	}
	if s.forbidden {
		return apperrors.NewForbiddenError("not allowed to manage this structure")
	}
	return nil
}

func (s *stubAssociationService) AttachService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	if err := s.check(caller, pivot.StructureID); err != nil {
		return nil, err
	}
	key := associationKey{pivot.StructureID, pivot.ServiceID}
	if _, ok := s.services[key]; ok {
		return nil, apperrors.NewConflictError("service is already attached")
	}
	if pivot.Availability == "" {
		pivot.Availability = entities.AvailabilityAvailable
	}
	s.services[key] = pivot
	return pivot, nil
}

func (s *stubAssociationService) UpdateService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	if err := s.check(caller, pivot.StructureID); err != nil {
		return nil, err
	}
	key := associationKey{pivot.StructureID, pivot.ServiceID}
	if _, ok := s.services[key]; !ok {
		return nil, apperrors.NewNotFoundError("service is not attached")
	}
	s.services[key] = pivot
	return pivot, nil
}

func (s *stubAssociationService) DetachService(ctx context.Context, caller *entities.Caller, structureID, serviceID int64) error {
	if err := s.check(caller, structureID); err != nil {
		return err
	}
	key := associationKey{structureID, serviceID}
	if _, ok := s.services[key]; !ok {
		return apperrors.NewNotFoundError("service is not attached")
	}
	delete(s.services, key)
	return nil
}

func (s *stubAssociationService) AttachStock(ctx context.Context, caller *entities.Caller, item *entities.StockItem) (*entities.StockItem, error) {
	if err := s.check(caller, item.StructureID); err != nil {
		return nil, err
	}
	s.stocks = append(s.stocks, item)
	return item, nil
}

var adminCaller = &entities.Caller{ID: 1, Role: entities.RoleAdmin}

func associationRequest(method, target, body string, caller *entities.Caller, pathValues ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if caller != nil {
		req = req.WithContext(entities.ContextWithCaller(req.Context(), caller))
	}
	return req
}

func TestAssociationHandler_ServiceLifecycle(t *testing.T) {
	service := newStubAssociationService()
	handler := handlers.NewAssociationHandler(service)

	// attach
	w := httptest.NewRecorder()
	handler.AttachService(w, associationRequest(http.MethodPost, "/api/structures-sante/5/services",
		`{"id_service":3,"informations_supplementaires":"RDV conseillé"}`, adminCaller, "id", "5"))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Status bool                  `json:"status"`
		Data   entities.ServicePivot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.True(t, created.Status)
	assert.Equal(t, int64(5), created.Data.StructureID)
	assert.Equal(t, int64(3), created.Data.ServiceID)
	assert.Equal(t, entities.AvailabilityAvailable, created.Data.Availability)
	assert.Equal(t, "RDV conseillé", created.Data.Notes)
	assert.Same(t, adminCaller, service.lastCaller)

	// attach again
	w = httptest.NewRecorder()
	handler.AttachService(w, associationRequest(http.MethodPost, "/api/structures-sante/5/services",
		`{"id_service":3}`, adminCaller, "id", "5"))
	assert.Equal(t, http.StatusConflict, w.Code)

	// update
	w = httptest.NewRecorder()
	handler.UpdateService(w, associationRequest(http.MethodPut, "/api/structures-sante/5/services/3",
		`{"disponibilite":"by-appointment"}`, adminCaller, "id", "5", "serviceId", "3"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.AvailabilityByAppointment, service.services[associationKey{5, 3}].Availability)

	// detach
	w = httptest.NewRecorder()
	handler.DetachService(w, associationRequest(http.MethodDelete, "/api/structures-sante/5/services/3",
		"", adminCaller, "id", "5", "serviceId", "3"))
	assert.Equal(t, http.StatusOK, w.Code)

	// detach again
	w = httptest.NewRecorder()
	handler.DetachService(w, associationRequest(http.MethodDelete, "/api/structures-sante/5/services/3",
		"", adminCaller, "id", "5", "serviceId", "3"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssociationHandler_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		caller    *entities.Caller
		structure string
		forbidden bool
		want      int
	}{
		{"anonymous", nil, "5", false, http.StatusUnauthorized},
		{"unknown structure", adminCaller, "404", false, http.StatusNotFound},
		{"other manager", &entities.Caller{ID: 9, Role: entities.RoleStructureManager}, "5", true, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newStubAssociationService()
			service.forbidden = tt.forbidden
			handler := handlers.NewAssociationHandler(service)

			w := httptest.NewRecorder()
			handler.AttachService(w, associationRequest(http.MethodPost, "/api/structures-sante/"+tt.structure+"/services",
				`{"id_service":3}`, tt.caller, "id", tt.structure))

			assert.Equal(t, tt.want, w.Code)
			body := decodeEnvelope(t, w)
			assert.False(t, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestAssociationHandler_Validation(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"bad structure id", "abc", `{"id_service":3}`, "id"},
		{"missing service id", "5", `{}`, "id_service"},
		{"malformed json", "5", `{"id_service":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newStubAssociationService()
			handler := handlers.NewAssociationHandler(service)

			w := httptest.NewRecorder()
			handler.AttachService(w, associationRequest(http.MethodPost, "/api/structures-sante/x/services",
				tt.body, adminCaller, "id", tt.path))

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			if tt.field != "" {
				body := decodeEnvelope(t, w)
				assert.Contains(t, body.Errors, tt.field)
			}
			assert.Empty(t, service.services)
		})
	}
}

func TestAssociationHandler_AttachStockRequiresQuantity(t *testing.T) {
	service := newStubAssociationService()
	handler := handlers.NewAssociationHandler(service)

	w := httptest.NewRecorder()
	handler.AttachStock(w, associationRequest(http.MethodPost, "/api/structures-sante/5/stocks",
		`{"id_produit":2}`, adminCaller, "id", "5"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, service.stocks)

	w = httptest.NewRecorder()
	handler.AttachStock(w, associationRequest(http.MethodPost, "/api/structures-sante/5/stocks",
		`{"id_produit":2,"quantite":0}`, adminCaller, "id", "5"))
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, service.stocks, 1)
	assert.Equal(t, 0, service.stocks[0].Quantity)
}
