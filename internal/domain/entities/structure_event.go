package entities

import (
	"time"

	"github.com/google/uuid"
)

// StructureEventType represents the type of structure change
type StructureEventType string

const (
	StructureEventCreated             StructureEventType = "structure_created"
	StructureEventUpdated             StructureEventType = "structure_updated"
	StructureEventDeleted             StructureEventType = "structure_deleted"
	StructureEventServicesChanged     StructureEventType = "services_changed"
	StructureEventInsurancesChanged   StructureEventType = "insurances_changed"
	StructureEventStockChanged        StructureEventType = "stock_changed"
	StructureEventEvaluationSubmitted StructureEventType = "evaluation_submitted"
)

// StructureEvent announces a change to a structure or its associations
type StructureEvent struct {
	ID          string             `json:"id"`
	StructureID int64              `json:"structure_id"`
	EventType   StructureEventType `json:"event_type"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewStructureEvent creates a new structure event
func NewStructureEvent(structureID int64, eventType StructureEventType) *StructureEvent {
	return &StructureEvent{
		ID:          uuid.NewString(),
		StructureID: structureID,
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
	}
}
