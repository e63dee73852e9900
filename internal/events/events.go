// Package events publishes one Kafka message per computed route.
package events

import (
	"time"

	"github.com/google/uuid"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

type RouteEvent struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id,omitempty"`
	TS              time.Time `json:"ts"`
	Mode            string    `json:"mode"`
	Approximate     bool      `json:"approximate"`
	FallbackReason  string    `json:"fallback_reason,omitempty"`
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds float64   `json:"duration_seconds"`
	Waypoints       int       `json:"waypoints"`
	Unresolved      int       `json:"unresolved"`
	OriginCell      string    `json:"origin_cell,omitempty"`
	DestinationCell string    `json:"destination_cell,omitempty"`
}

// Sink receives route events. Implementations must not block.
type Sink interface {
	Publish(ev RouteEvent)
}

type Nop struct{}

func (Nop) Publish(RouteEvent) {}

// FromRoute summarizes r. Origin and destination are reduced to H3 cells at
// res so events never carry exact coordinates.
func FromRoute(r model.Route, requestID string, res int, now time.Time) RouteEvent {
	ev := RouteEvent{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		TS:              now.UTC(),
		Mode:            string(r.Mode),
		Approximate:     r.Approximate,
		FallbackReason:  string(r.FallbackKind),
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Waypoints:       len(r.Waypoints),
		Unresolved:      len(r.Unresolved),
	}
	if len(r.Path) > 0 {
		ev.OriginCell = cellFor(r.Path[0], res)
		ev.DestinationCell = cellFor(r.Path[len(r.Path)-1], res)
	}
	return ev
}

func cellFor(p model.GeoPoint, res int) string {
	if !p.Valid() {
		return ""
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return ""
	}
	return c.String()
}
