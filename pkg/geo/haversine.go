// Package geo computes great-circle distances between coordinates.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by every distance computation,
// matching the value the directory's SQL distance expression used.
const EarthRadiusKm = 6371.0

// ErrNonFinite is returned when a coordinate is NaN or infinite.
var ErrNonFinite = errors.New("geo: non-finite coordinate")

// DistanceMeters returns the Haversine distance in meters between two points
// given in decimal degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) (float64, error) {
	for _, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNonFinite
		}
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}

	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * 1000 * c, nil
}

// WithinRadiusKm reports whether the second point lies within radiusKm of the
// first, along with the computed distance in meters. Non-finite input is
// never within range.
func WithinRadiusKm(lat1, lon1, lat2, lon2, radiusKm float64) (bool, float64) {
	d, err := DistanceMeters(lat1, lon1, lat2, lon2)
	if err != nil || math.IsNaN(radiusKm) {
		return false, 0
	}
	return d <= radiusKm*1000, d
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
