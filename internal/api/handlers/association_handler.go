package handlers

import (
	"context"
	"net/http"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// AssociationService defines the association operations used by the handler
type AssociationService interface {
	AttachService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error)
	UpdateService(ctx context.Context, caller *entities.Caller, pivot *entities.ServicePivot) (*entities.ServicePivot, error)
	DetachService(ctx context.Context, caller *entities.Caller, structureID, serviceID int64) error

	AttachInsurance(ctx context.Context, caller *entities.Caller, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error)
	UpdateInsurance(ctx context.Context, caller *entities.Caller, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error)
	DetachInsurance(ctx context.Context, caller *entities.Caller, structureID, insuranceID int64) error

	AttachStock(ctx context.Context, caller *entities.Caller, item *entities.StockItem) (*entities.StockItem, error)
	UpdateStock(ctx context.Context, caller *entities.Caller, item *entities.StockItem) (*entities.StockItem, error)
	DetachStock(ctx context.Context, caller *entities.Caller, structureID, productID int64) error
}

// AssociationHandler handles attach/update/detach of a structure's
// services, insurers and stock
type AssociationHandler struct {
	service AssociationService
}

// NewAssociationHandler creates a new association handler
func NewAssociationHandler(service AssociationService) *AssociationHandler {
	return &AssociationHandler{service: service}
}

type servicePivotRequest struct {
	ServiceID    int64                 `json:"id_service"`
	Availability entities.Availability `json:"disponibilite"`
	Notes        string                `json:"informations_supplementaires"`
}

type insurancePivotRequest struct {
	InsuranceID int64  `json:"id_assurance"`
	Modalities  string `json:"modalites_specifiques"`
}

type stockRequest struct {
	ProductID int64                `json:"id_produit"`
	Quantity  *int                 `json:"quantite"`
	Status    entities.StockStatus `json:"statut"`
}

// AttachService handles POST /api/structures-sante/{id}/services
func (h *AssociationHandler) AttachService(w http.ResponseWriter, r *http.Request) {
	structureID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req servicePivotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if req.ServiceID <= 0 {
		respondWithAppError(w, missingField("id_service"))
		return
	}

	pivot, err := h.service.AttachService(r.Context(), entities.CallerFromContext(r.Context()), &entities.ServicePivot{
		StructureID:  structureID,
		ServiceID:    req.ServiceID,
		Availability: req.Availability,
		Notes:        req.Notes,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "service attached", pivot)
}

// UpdateService handles PUT /api/structures-sante/{id}/services/{serviceId}
func (h *AssociationHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	structureID, serviceID, err := pathPair(r, "serviceId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req servicePivotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	pivot, err := h.service.UpdateService(r.Context(), entities.CallerFromContext(r.Context()), &entities.ServicePivot{
		StructureID:  structureID,
		ServiceID:    serviceID,
		Availability: req.Availability,
		Notes:        req.Notes,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "service updated", pivot)
}

// DetachService handles DELETE /api/structures-sante/{id}/services/{serviceId}
func (h *AssociationHandler) DetachService(w http.ResponseWriter, r *http.Request) {
	structureID, serviceID, err := pathPair(r, "serviceId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.service.DetachService(r.Context(), entities.CallerFromContext(r.Context()), structureID, serviceID); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "service detached", nil)
}

// AttachInsurance handles POST /api/structures-sante/{id}/assurances
func (h *AssociationHandler) AttachInsurance(w http.ResponseWriter, r *http.Request) {
	structureID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req insurancePivotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if req.InsuranceID <= 0 {
		respondWithAppError(w, missingField("id_assurance"))
		return
	}

	pivot, err := h.service.AttachInsurance(r.Context(), entities.CallerFromContext(r.Context()), &entities.InsurancePivot{
		StructureID: structureID,
		InsuranceID: req.InsuranceID,
		Modalities:  req.Modalities,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "insurance attached", pivot)
}

// UpdateInsurance handles PUT /api/structures-sante/{id}/assurances/{assuranceId}
func (h *AssociationHandler) UpdateInsurance(w http.ResponseWriter, r *http.Request) {
	structureID, insuranceID, err := pathPair(r, "assuranceId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req insurancePivotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	pivot, err := h.service.UpdateInsurance(r.Context(), entities.CallerFromContext(r.Context()), &entities.InsurancePivot{
		StructureID: structureID,
		InsuranceID: insuranceID,
		Modalities:  req.Modalities,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "insurance updated", pivot)
}

// DetachInsurance handles DELETE /api/structures-sante/{id}/assurances/{assuranceId}
func (h *AssociationHandler) DetachInsurance(w http.ResponseWriter, r *http.Request) {
	structureID, insuranceID, err := pathPair(r, "assuranceId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.service.DetachInsurance(r.Context(), entities.CallerFromContext(r.Context()), structureID, insuranceID); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "insurance detached", nil)
}

// AttachStock handles POST /api/structures-sante/{id}/stocks
func (h *AssociationHandler) AttachStock(w http.ResponseWriter, r *http.Request) {
	structureID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if req.ProductID <= 0 {
		respondWithAppError(w, missingField("id_produit"))
		return
	}
	if req.Quantity == nil {
		respondWithAppError(w, missingField("quantite"))
		return
	}

	item, err := h.service.AttachStock(r.Context(), entities.CallerFromContext(r.Context()), &entities.StockItem{
		StructureID: structureID,
		ProductID:   req.ProductID,
		Quantity:    *req.Quantity,
		Status:      req.Status,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, "stock attached", item)
}

// UpdateStock handles PUT /api/structures-sante/{id}/stocks/{productId}
func (h *AssociationHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	structureID, productID, err := pathPair(r, "productId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if req.Quantity == nil {
		respondWithAppError(w, missingField("quantite"))
		return
	}

	item, err := h.service.UpdateStock(r.Context(), entities.CallerFromContext(r.Context()), &entities.StockItem{
		StructureID: structureID,
		ProductID:   productID,
		Quantity:    *req.Quantity,
		Status:      req.Status,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "stock updated", item)
}

// DetachStock handles DELETE /api/structures-sante/{id}/stocks/{productId}
func (h *AssociationHandler) DetachStock(w http.ResponseWriter, r *http.Request) {
	structureID, productID, err := pathPair(r, "productId")
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.service.DetachStock(r.Context(), entities.CallerFromContext(r.Context()), structureID, productID); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, "stock detached", nil)
}

func pathPair(r *http.Request, related string) (int64, int64, error) {
	structureID, err := pathID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	relatedID, err := pathID(r, related)
	if err != nil {
		return 0, 0, err
	}
	return structureID, relatedID, nil
}

func missingField(name string) error {
	return apperrors.NewFieldValidationError("invalid request payload", map[string]string{name: "is required"})
}
