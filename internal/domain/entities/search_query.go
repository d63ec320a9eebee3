package entities

// SearchQuery is a public structure search request. Text is accepted and
// logged but does not filter.
type SearchQuery struct {
	Text         string
	Type         StructureType
	ServiceIDs   []int64
	InsuranceIDs []int64
	Latitude     *float64
	Longitude    *float64
	RadiusKm     *float64
	OpenNow      bool
}

// HasGeo reports whether the query carries a full location and radius
func (q *SearchQuery) HasGeo() bool {
	return q.Latitude != nil && q.Longitude != nil && q.RadiusKm != nil
}

// HasTypeFilter reports whether the query narrows by structure type
func (q *SearchQuery) HasTypeFilter() bool {
	return q.Type != "" && q.Type != StructureTypeAll
}

// StructureResult is a matched structure, with its distance from the
// query point when the search was geographic.
type StructureResult struct {
	*Structure
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// ResultPage is the full, sorted result of a search
type ResultPage struct {
	Structures []StructureResult `json:"structures"`
	Total      int               `json:"count"`
}
