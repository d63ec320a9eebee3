package entities

import "time"

// Availability describes how a structure offers an attached service
type Availability string

const (
	AvailabilityAvailable     Availability = "available"
	AvailabilityUnavailable   Availability = "unavailable"
	AvailabilityByAppointment Availability = "by-appointment"
)

// IsValid reports whether a is a known availability
func (a Availability) IsValid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityUnavailable, AvailabilityByAppointment:
		return true
	}
	return false
}

// ServicePivot is the structure↔service association row
type ServicePivot struct {
	StructureID  int64        `json:"structure_id" db:"structure_id"`
	ServiceID    int64        `json:"service_id" db:"service_id"`
	Availability Availability `json:"disponibilite" db:"availability"`
	Notes        string       `json:"informations_supplementaires" db:"notes"`
}

// StructureService is a service as attached to one structure
type StructureService struct {
	Service
	Pivot ServicePivot `json:"pivot"`
}

// InsurancePivot is the structure↔insurance association row
type InsurancePivot struct {
	StructureID int64  `json:"structure_id" db:"structure_id"`
	InsuranceID int64  `json:"insurance_id" db:"insurance_id"`
	Modalities  string `json:"modalites_specifiques" db:"modalities"`
}

// StructureInsurance is an insurer as affiliated with one structure
type StructureInsurance struct {
	InsuranceCompany
	Pivot InsurancePivot `json:"pivot"`
}

// StockStatus is the stock level of a product in a structure
type StockStatus string

const (
	StockAvailable   StockStatus = "available"
	StockCritical    StockStatus = "critical"
	StockUnavailable StockStatus = "unavailable"
)

// IsValid reports whether s is a known stock status
func (s StockStatus) IsValid() bool {
	switch s {
	case StockAvailable, StockCritical, StockUnavailable:
		return true
	}
	return false
}

// StockStatusForQuantity derives a status when none was supplied
func StockStatusForQuantity(quantity int) StockStatus {
	if quantity <= 0 {
		return StockUnavailable
	}
	return StockAvailable
}

// StockItem ties a product to a structure with a quantity
type StockItem struct {
	StructureID int64       `json:"structure_id" db:"structure_id"`
	ProductID   int64       `json:"product_id" db:"product_id"`
	Quantity    int         `json:"quantite" db:"quantity"`
	Status      StockStatus `json:"statut" db:"status"`
	Product     *Product    `json:"product,omitempty" db:"-"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}
