package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
)

// StructureService defines the structure operations used by the handler
type StructureService interface {
	List(ctx context.Context, structureType entities.StructureType) ([]*entities.Structure, error)
	ListAll(ctx context.Context, caller *entities.Caller, filter repositories.StructureFilter) ([]*entities.Structure, error)
	Get(ctx context.Context, id int64) (*entities.Structure, error)
	Create(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error
	Update(ctx context.Context, caller *entities.Caller, structure *entities.Structure) error
	Delete(ctx context.Context, caller *entities.Caller, id int64) error
}

// StructureHandler handles structure HTTP requests
type StructureHandler struct {
	service StructureService
}

// NewStructureHandler creates a new structure handler
func NewStructureHandler(service StructureService) *StructureHandler {
	return &StructureHandler{service: service}
}

type structureRequest struct {
	Name         string                      `json:"name"`
	Type         entities.StructureType      `json:"type"`
	Address      entities.Address            `json:"address"`
	Latitude     *float64                    `json:"latitude"`
	Longitude    *float64                    `json:"longitude"`
	Phone        string                      `json:"phone"`
	Email        string                      `json:"email"`
	Website      string                      `json:"website"`
	OpeningHours entities.OpeningHours       `json:"opening_hours"`
	OnDuty       bool                        `json:"on_duty"`
	OnDutyFrom   *time.Time                  `json:"on_duty_from"`
	OnDutyTo     *time.Time                  `json:"on_duty_to"`
	Status       entities.VerificationStatus `json:"status"`
	ManagerID    *int64                      `json:"manager_id"`
}

func (req *structureRequest) toStructure(id int64) *entities.Structure {
	return &entities.Structure{
		ID:           id,
		Name:         req.Name,
		Type:         entities.StructureType(strings.ToLower(string(req.Type))),
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		Website:      strings.TrimSpace(req.Website),
		OpeningHours: req.OpeningHours,
		OnDuty:       req.OnDuty,
		OnDutyFrom:   req.OnDutyFrom,
		OnDutyTo:     req.OnDutyTo,
		Status:       req.Status,
		ManagerID:    req.ManagerID,
	}
}

type structureListResponse struct {
	Status     bool                  `json:"status"`
	Structures []*entities.Structure `json:"structures"`
	Count      int                   `json:"count"`
}

// ListStructures handles GET /api/structures-sante
func (h *StructureHandler) ListStructures(w http.ResponseWriter, r *http.Request) {
	structureType := entities.StructureType(strings.ToLower(r.URL.Query().Get("type")))

	structures, err := h.service.List(r.Context(), structureType)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if structures == nil {
		structures = []*entities.Structure{}
	}

	respondWithJSON(w, http.StatusOK, structureListResponse{Status: true, Structures: structures, Count: len(structures)})
}

// ListAllStructures handles GET /api/admin/structures-sante
func (h *StructureHandler) ListAllStructures(w http.ResponseWriter, r *http.Request) {
	filter := repositories.StructureFilter{
		Type:   entities.StructureType(strings.ToLower(r.URL.Query().Get("type"))),
		Status: entities.VerificationStatus(strings.ToLower(r.URL.Query().Get("status"))),
	}
	if filter.Type == entities.StructureTypeAll {
		filter.Type = ""
	}

	structures, err := h.service.ListAll(r.Context(), entities.CallerFromContext(r.Context()), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if structures == nil {
		structures = []*entities.Structure{}
	}

	respondWithJSON(w, http.StatusOK, structureListResponse{Status: true, Structures: structures, Count: len(structures)})
}

// GetStructure handles GET /api/structures-sante/{id}
func (h *StructureHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	structure, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, "", structure)
}

// CreateStructure handles POST /api/structures-sante
func (h *StructureHandler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	structure := req.toStructure(0)
	if err := h.service.Create(r.Context(), entities.CallerFromContext(r.Context()), structure); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithData(w, http.StatusCreated, "structure created", structure)
}

// UpdateStructure handles PUT /api/structures-sante/{id}
func (h *StructureHandler) UpdateStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	var req structureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	structure := req.toStructure(id)
	if err := h.service.Update(r.Context(), entities.CallerFromContext(r.Context()), structure); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, "structure updated", structure)
}

// DeleteStructure handles DELETE /api/structures-sante/{id}
func (h *StructureHandler) DeleteStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), entities.CallerFromContext(r.Context()), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, "structure deleted", nil)
}
