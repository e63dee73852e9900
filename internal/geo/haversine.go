// Package geo holds great-circle helpers over geographic points.
package geo

import (
	"math"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

const EarthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(a, b model.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// PathLength sums the segment lengths of pts in meters.
// Segments touching a non-finite point contribute nothing.
func PathLength(pts []model.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if !a.Finite() || !b.Finite() {
			continue
		}
		total += Haversine(a, b)
	}
	return total
}

// Near reports whether both components differ by at most tol degrees.
func Near(a, b model.GeoPoint, tol float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tol && math.Abs(a.Lng-b.Lng) <= tol
}
