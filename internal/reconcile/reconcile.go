// Package reconcile derives authoritative distance and duration for a route
// and formats them for display.
package reconcile

import (
	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/directions"
	"github.com/mohammed-shakir/route-planner/internal/geo"
)

const (
	DefaultCarKmh     = 60.0
	DefaultWalkingKmh = 4.5
)

// Speeds holds the average travel speeds used when no service duration exists.
type Speeds struct {
	CarKmh     float64
	WalkingKmh float64
}

func DefaultSpeeds() Speeds {
	return Speeds{CarKmh: DefaultCarKmh, WalkingKmh: DefaultWalkingKmh}
}

// For returns the speed for mode in km/h, falling back to the defaults for
// unset or non-positive values.
func (s Speeds) For(m model.Mode) float64 {
	if m == model.ModeWalking {
		if s.WalkingKmh > 0 {
			return s.WalkingKmh
		}
		return DefaultWalkingKmh
	}
	if s.CarKmh > 0 {
		return s.CarKmh
	}
	return DefaultCarKmh
}

type Measures struct {
	DistanceMeters  float64
	DurationSeconds float64
	// Estimated is set when the duration came from the speed table
	Estimated bool
}

// EstimateDuration returns the travel time in seconds for meters at the mode speed.
func EstimateDuration(meters float64, m model.Mode, s Speeds) float64 {
	return meters / 1000 / s.For(m) * 3600
}

// Reconcile measures f. Distance is always the haversine length of the
// geometry; the service summary distance is ignored.
func Reconcile(f directions.Feature, m model.Mode, s Speeds) Measures {
	meters := geo.PathLength(model.GeoPath(f.Coordinates))
	if f.SummaryDuration > 0 {
		return Measures{DistanceMeters: meters, DurationSeconds: f.SummaryDuration}
	}
	return Measures{
		DistanceMeters:  meters,
		DurationSeconds: EstimateDuration(meters, m, s),
		Estimated:       true,
	}
}
