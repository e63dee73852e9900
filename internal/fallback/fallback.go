// Package fallback builds approximate straight-line routes when the
// directions service cannot supply one.
package fallback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/directions"
	"github.com/mohammed-shakir/route-planner/internal/geo"
	"github.com/mohammed-shakir/route-planner/internal/reconcile"
)

// Reason explains why a route is approximate.
type Reason struct {
	Kind   model.FallbackKind
	Status int
	Detail string
}

func ServiceError(status int, detail string) Reason {
	return Reason{Kind: model.FallbackServiceUnavailable, Status: status, Detail: detail}
}

func NoRoute(detail string) Reason {
	return Reason{Kind: model.FallbackNoRouteFound, Detail: detail}
}

func InsufficientWaypoints() Reason {
	return Reason{Kind: model.FallbackInsufficientWaypoints}
}

// FromError maps a directions error to a Reason. Anything that is not a
// *directions.Failure counts as the service being unavailable.
func FromError(err error) Reason {
	var f *directions.Failure
	if errors.As(err, &f) {
		if f.Kind == directions.NoRouteFound {
			return NoRoute(f.Message)
		}
		return ServiceError(f.Status, f.Message)
	}
	if err == nil {
		return ServiceError(0, "")
	}
	return ServiceError(0, err.Error())
}

// Message renders the reason for the UI.
func (r Reason) Message() string {
	var b strings.Builder
	switch r.Kind {
	case model.FallbackNoRouteFound:
		b.WriteString("No route found between the waypoints")
	case model.FallbackInsufficientWaypoints:
		b.WriteString("Not enough distinct waypoints to calculate a route")
	default:
		b.WriteString("Directions service unavailable")
		if r.Status > 0 {
			fmt.Fprintf(&b, " (HTTP %d)", r.Status)
		}
	}
	if d := strings.TrimSpace(r.Detail); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	b.WriteString("; showing a straight-line approximation")
	return b.String()
}

// Synthesize connects the resolved waypoints in order with straight lines.
// Unresolved waypoints are skipped. The result is always Approximate.
func Synthesize(wps []model.Waypoint, m model.Mode, r Reason, s reconcile.Speeds) model.Route {
	valid := make([]model.Waypoint, 0, len(wps))
	path := make([]model.GeoPoint, 0, len(wps))
	for _, w := range wps {
		if !w.Resolved() {
			continue
		}
		valid = append(valid, w)
		path = append(path, *w.Coord)
	}

	meters := geo.PathLength(path)
	seconds := reconcile.EstimateDuration(meters, m, s)

	return model.Route{
		Mode:            m,
		Distance:        reconcile.FormatDistance(meters),
		Duration:        reconcile.FormatDuration(seconds),
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Instructions:    instructions(valid),
		Path:            path,
		Waypoints:       valid,
		Approximate:     true,
		FallbackKind:    r.Kind,
		Message:         r.Message(),
	}
}

func instructions(wps []model.Waypoint) []string {
	out := make([]string, 0, len(wps))
	for i, w := range wps {
		var verb string
		switch {
		case i == 0:
			verb = "Start at"
		case i == len(wps)-1:
			verb = "Arrive at"
		default:
			verb = "Continue to"
		}
		out = append(out, fmt.Sprintf("%d. %s %s", i+1, verb, name(w)))
	}
	return out
}

// name prefers the address, then the label, then the coordinates.
func name(w model.Waypoint) string {
	if s := strings.TrimSpace(w.Address); s != "" {
		return s
	}
	if s := strings.TrimSpace(w.Label); s != "" {
		return s
	}
	if w.Coord != nil {
		return w.Coord.String()
	}
	return w.ID
}
