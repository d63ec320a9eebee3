package entities

import (
	"time"
)

// SearchHistory records one public search for administrators
type SearchHistory struct {
	ID              string        `json:"id" db:"id"`
	Query           string        `json:"query" db:"query"`
	NormalizedQuery string        `json:"normalized_query" db:"normalized_query"`
	Type            StructureType `json:"type,omitempty" db:"type"`
	ServiceIDs      []int64       `json:"service_ids" db:"service_ids"`
	InsuranceIDs    []int64       `json:"insurance_ids" db:"insurance_ids"`
	Latitude        *float64      `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64      `json:"longitude,omitempty" db:"longitude"`
	RadiusKm        *float64      `json:"radius_km,omitempty" db:"radius_km"`
	OpenNow         bool          `json:"open_now" db:"open_now"`
	ResultCount     int           `json:"result_count" db:"result_count"`
	LatencyMs       int           `json:"latency_ms" db:"latency_ms"`
	CallerID        *int64        `json:"caller_id,omitempty" db:"caller_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}
