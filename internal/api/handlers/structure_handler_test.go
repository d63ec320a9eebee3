package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/api/handlers"
	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

type MockStructureService struct {
	mock.Mock
}

func (m *MockStructureService) List(ctx context.Context, structureType entities.StructureType) ([]*entities.Structure, error) {
	args := m.Called(ctx, structureType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Structure), args.Error(1)
}

func (m *MockStructureService) ListAll(ctx context.Context, caller *entities.Caller, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Structure), args.Error(1)
}

func (m *MockStructureService) Get(ctx context.Context, id int64) (*entities.Structure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Structure), args.Error(1)
}

func (m *MockStructureService) Create(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error {
	args := m.Called(ctx, caller, structure)
	return args.Error(0)
}

func (m *MockStructureService) Update(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error {
	args := m.Called(ctx, caller, structure)
	return args.Error(0)
}

func (m *MockStructureService) Delete(ctx context.Context, caller *entities.Caller, id int64) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func TestStructureHandler_ListStructures(t *testing.T) {
	service := new(MockStructureService)
	service.On("List", mock.Anything, entities.StructureTypeHospital).
		Return([]*entities.Structure{{ID: 1, Name: "CNHU"}}, nil)
	handler := handlers.NewStructureHandler(service)

	w := httptest.NewRecorder()
	handler.ListStructures(w, httptest.NewRequest(http.MethodGet, "/api/structures-sante?type=Hospital", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, 1, body.Count)
	service.AssertExpectations(t)
}

func TestStructureHandler_ListStructuresEmpty(t *testing.T) {
	service := new(MockStructureService)
	service.On("List", mock.Anything, entities.StructureType("")).Return(nil, nil)
	handler := handlers.NewStructureHandler(service)

	w := httptest.NewRecorder()
	handler.ListStructures(w, httptest.NewRequest(http.MethodGet, "/api/structures-sante", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"structures":[]`)
}

func TestStructureHandler_GetStructure(t *testing.T) {
	service := new(MockStructureService)
	service.On("Get", mock.Anything, int64(3)).Return(&entities.Structure{ID: 3, Name: "Pharmacie du Port"}, nil)
	service.On("Get", mock.Anything, int64(4)).Return(nil, apperrors.NewNotFoundError("structure not found"))
	handler := handlers.NewStructureHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/structures-sante/3", nil)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	handler.GetStructure(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pharmacie du Port")

	req = httptest.NewRequest(http.MethodGet, "/api/structures-sante/4", nil)
	req.SetPathValue("id", "4")
	w = httptest.NewRecorder()
	handler.GetStructure(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStructureHandler_CreateStructure(t *testing.T) {
	service := new(MockStructureService)
	service.On("Create", mock.Anything, adminCaller, mock.MatchedBy(func(s *entities.Structure) bool {
		return s.Name == "Clinique Atinkanmey" && s.Type == entities.StructureTypeClinic && s.Latitude != nil
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*entities.Structure).ID = 11
	}).Return(nil)
	handler := handlers.NewStructureHandler(service)

	body := `{"name":"Clinique Atinkanmey","type":"CLINIC","latitude":6.37,"longitude":2.39,
		"opening_hours":{"lundi":{"open":"08:00","close":"18:00"},"dimanche":"closed"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/structures-sante", strings.NewReader(body))
	req = req.WithContext(entities.ContextWithCaller(req.Context(), adminCaller))
	w := httptest.NewRecorder()
	handler.CreateStructure(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":11`)
	service.AssertExpectations(t)
}

func TestStructureHandler_UpdateStructureForbidden(t *testing.T) {
	manager := &entities.Caller{ID: 5, Role: entities.RoleStructureManager}
	service := new(MockStructureService)
	service.On("Update", mock.Anything, manager, mock.Anything).
		Return(apperrors.NewForbiddenError("structure managers cannot change verification status"))
	handler := handlers.NewStructureHandler(service)

	req := httptest.NewRequest(http.MethodPut, "/api/structures-sante/2", strings.NewReader(`{"name":"X","type":"pharmacy","status":"verified"}`))
	req.SetPathValue("id", "2")
	req = req.WithContext(entities.ContextWithCaller(req.Context(), manager))
	w := httptest.NewRecorder()
	handler.UpdateStructure(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStructureHandler_DeleteInternalErrorIsHidden(t *testing.T) {
	service := new(MockStructureService)
	service.On("Delete", mock.Anything, adminCaller, int64(2)).
		Return(apperrors.NewInternalError("failed to delete structure", errors.New("pq: deadlock detected")))
	handler := handlers.NewStructureHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/structures-sante/2", nil)
	req.SetPathValue("id", "2")
	req = req.WithContext(entities.ContextWithCaller(req.Context(), adminCaller))
	w := httptest.NewRecorder()
	handler.DeleteStructure(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")
}

func TestStructureHandler_ListAllPassesFilter(t *testing.T) {
	service := new(MockStructureService)
	service.On("ListAll", mock.Anything, adminCaller, repositories.StructureFilter{Status: entities.VerificationPending}).
		Return([]*entities.Structure{}, nil)
	handler := handlers.NewStructureHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/structures-sante?type=all&status=pending", nil)
	req = req.WithContext(entities.ContextWithCaller(req.Context(), adminCaller))
	w := httptest.NewRecorder()
	handler.ListAllStructures(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}
