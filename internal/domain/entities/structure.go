package entities

import (
	"time"
)

// StructureType is the kind of health structure
type StructureType string

const (
	StructureTypePharmacy      StructureType = "pharmacy"
	StructureTypeHospital      StructureType = "hospital"
	StructureTypeLaboratory    StructureType = "laboratory"
	StructureTypeClinic        StructureType = "clinic"
	StructureTypeMedicalCenter StructureType = "medical-center"
	StructureTypeDentalOffice  StructureType = "dental-office"
	StructureTypeImagingOffice StructureType = "imaging-office"
	StructureTypeRehabCenter   StructureType = "rehab-center"
	StructureTypeAmbulance     StructureType = "ambulance"
	StructureTypeOther         StructureType = "other"

	// StructureTypeAll is the query sentinel meaning "no type filter".
	StructureTypeAll StructureType = "all"
)

var structureTypes = map[StructureType]struct{}{
	StructureTypePharmacy:      {},
	StructureTypeHospital:      {},
	StructureTypeLaboratory:    {},
	StructureTypeClinic:        {},
	StructureTypeMedicalCenter: {},
	StructureTypeDentalOffice:  {},
	StructureTypeImagingOffice: {},
	StructureTypeRehabCenter:   {},
	StructureTypeAmbulance:     {},
	StructureTypeOther:         {},
}

// IsValid reports whether t is one of the known structure types
func (t StructureType) IsValid() bool {
	_, ok := structureTypes[t]
	return ok
}

// VerificationStatus tracks whether a structure has been vetted
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// IsValid reports whether s is a known verification status
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// Address is the postal location of a structure
type Address struct {
	Street       string `json:"street" db:"street"`
	Neighborhood string `json:"neighborhood" db:"neighborhood"`
	City         string `json:"city" db:"city"`
	Commune      string `json:"commune" db:"commune"`
	Department   string `json:"department" db:"department"`
}

// Structure is a health structure listed in the directory, with its
// attached collections hydrated on read.
type Structure struct {
	ID           int64              `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Type         StructureType      `json:"type" db:"type"`
	Address      Address            `json:"address" db:"-"`
	Latitude     *float64           `json:"latitude" db:"latitude"`
	Longitude    *float64           `json:"longitude" db:"longitude"`
	Phone        string             `json:"phone" db:"phone"`
	Email        string             `json:"email" db:"email"`
	Website      string             `json:"website" db:"website"`
	OpeningHours OpeningHours       `json:"opening_hours,omitempty" db:"opening_hours"`
	OnDuty       bool               `json:"on_duty" db:"on_duty"`
	OnDutyFrom   *time.Time         `json:"on_duty_from,omitempty" db:"on_duty_from"`
	OnDutyTo     *time.Time         `json:"on_duty_to,omitempty" db:"on_duty_to"`
	Status       VerificationStatus `json:"status" db:"status"`
	ManagerID    *int64             `json:"manager_id,omitempty" db:"manager_id"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`

	Services    []StructureService   `json:"services" db:"-"`
	Insurances  []StructureInsurance `json:"assurances" db:"-"`
	Evaluations []Evaluation         `json:"evaluations" db:"-"`
	Stocks      []StockItem          `json:"stocks" db:"-"`
}

// IsVerified reports whether the structure is visible to public reads
func (s *Structure) IsVerified() bool {
	return s.Status == VerificationVerified
}

// HasCoordinates is true only when both latitude and longitude are recorded
func (s *Structure) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// OnDutyAt reports whether the structure is flagged on duty and t falls in
// its on-duty date range. Missing bounds are open-ended.
func (s *Structure) OnDutyAt(t time.Time) bool {
	if !s.OnDuty {
		return false
	}
	if s.OnDutyFrom != nil && t.Before(*s.OnDutyFrom) {
		return false
	}
	if s.OnDutyTo != nil && t.After(*s.OnDutyTo) {
		return false
	}
	return true
}

// ServiceIDs returns the ids of the attached services
func (s *Structure) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(s.Services))
	for _, svc := range s.Services {
		ids = append(ids, svc.ID)
	}
	return ids
}

// InsuranceIDs returns the ids of the attached insurance companies
func (s *Structure) InsuranceIDs() []int64 {
	ids := make([]int64, 0, len(s.Insurances))
	for _, ins := range s.Insurances {
		ids = append(ids, ins.ID)
	}
	return ids
}

// AverageRating returns the mean evaluation rating, or 0 without evaluations
func (s *Structure) AverageRating() float64 {
	if len(s.Evaluations) == 0 {
		return 0
	}
	total := 0
	for _, e := range s.Evaluations {
		total += e.Rating
	}
	return float64(total) / float64(len(s.Evaluations))
}
