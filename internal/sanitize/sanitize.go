// Package sanitize guards the directions service against degenerate coordinate input.
package sanitize

import (
	"fmt"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/geo"
)

const DefaultTolerance = 1e-4

type Sanitizer struct {
	tol float64
}

func New(tolerance float64) *Sanitizer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Sanitizer{tol: tolerance}
}

// Sanitize collapses consecutive equal points and rejects inputs that do not
// describe at least two distinct points.
func (s *Sanitizer) Sanitize(pts []model.GeoPoint) ([]model.GeoPoint, error) {
	out := Collapse(pts)
	if err := s.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate assumes pts is already collapsed.
func (s *Sanitizer) Validate(pts []model.GeoPoint) error {
	switch {
	case len(pts) < 2:
		return fmt.Errorf("%d distinct point(s): %w", len(pts), model.ErrInsufficientWaypoints)
	case len(pts) == 2 && geo.Near(pts[0], pts[1], s.tol):
		return fmt.Errorf("start and end within %g degrees: %w", s.tol, model.ErrInsufficientWaypoints)
	}
	return nil
}

// Collapse drops points equal to their predecessor, keeping order.
func Collapse(pts []model.GeoPoint) []model.GeoPoint {
	out := make([]model.GeoPoint, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
