package router

import (
	"encoding/json"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	polyline "github.com/twpayne/go-polyline"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

type routeResponse struct {
	Mode            string         `json:"mode"`
	Distance        string         `json:"distance"`
	Duration        string         `json:"duration"`
	DistanceMeters  float64        `json:"distanceMeters"`
	DistanceKm      float64        `json:"distanceKm"`
	DurationSeconds float64        `json:"durationSeconds"`
	Instructions    []string       `json:"instructions"`
	Geometry        any            `json:"geometry"`
	Polyline        string         `json:"polyline"`
	Waypoints       []waypointJSON `json:"waypoints"`
	Unresolved      []string       `json:"unresolved"`
	Fallback        bool           `json:"fallback"`
	FallbackReason  string         `json:"fallbackReason,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
}

func newRouteResponse(r model.Route) routeResponse {
	out := routeResponse{
		Mode:            string(r.Mode),
		Distance:        r.Distance,
		Duration:        r.Duration,
		DistanceMeters:  r.DistanceMeters,
		DistanceKm:      r.DistanceKm(),
		DurationSeconds: r.DurationSeconds,
		Instructions:    r.Instructions,
		Geometry:        geometry(r),
		Polyline:        encodePolyline(r.Path),
		Waypoints:       make([]waypointJSON, 0, len(r.Waypoints)),
		Unresolved:      r.Unresolved,
		Fallback:        r.Approximate,
		FallbackReason:  string(r.FallbackKind),
		ErrorMessage:    r.Message,
	}
	if out.Instructions == nil {
		out.Instructions = []string{}
	}
	if out.Unresolved == nil {
		out.Unresolved = []string{}
	}
	for _, w := range r.Waypoints {
		wj := waypointJSON{ID: w.ID, Label: w.Label, Address: w.Address}
		if w.Coord != nil {
			lat, lng := w.Coord.Lat, w.Coord.Lng
			wj.Lat, wj.Lng = &lat, &lng
		}
		out.Waypoints = append(out.Waypoints, wj)
	}
	return out
}

// geometry keeps the wire contract the UI expects: routed paths are a GeoJSON
// LineString in [lon,lat], approximate paths a bare [[lat,lon],...] list.
func geometry(r model.Route) any {
	if r.Approximate {
		out := make([][2]float64, len(r.Path))
		for i, p := range r.Path {
			out[i] = p.Pair()
		}
		return out
	}
	ls := make(orb.LineString, len(r.Path))
	for i, p := range r.Path {
		ls[i] = orb.Point(p.Service().Pair())
	}
	return geojson.NewGeometry(ls)
}

func encodePolyline(path []model.GeoPoint) string {
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
