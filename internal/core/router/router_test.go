package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	polyline "github.com/twpayne/go-polyline"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

type fakePlanner struct {
	lastReq model.RouteRequest
	route   model.Route
	err     error
	calls   int
}

func (f *fakePlanner) Plan(_ context.Context, req model.RouteRequest) (model.Route, error) {
	f.calls++
	f.lastReq = req
	return f.route, f.err
}

func serve(t *testing.T, p Planner, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := HandleRoute(slog.New(slog.NewTextHandler(io.Discard, nil)), p)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("response not json: %v (%s)", err, rr.Body.String())
	}
	return m
}

func resolved(id, addr string, p model.GeoPoint) model.Waypoint {
	return model.Waypoint{ID: id, Address: addr}.WithCoord(p)
}

func TestHandleRoute_DecodesRequest(t *testing.T) {
	fp := &fakePlanner{route: model.Route{Mode: model.ModeWalking}}
	rr := serve(t, fp, `{
		"waypoints":[{"id":"a","address":" Berlin "},{"address":"Potsdam","lat":52.39,"lng":13.06}],
		"mode":"walking","avoidTolls":true,"fastestRoute":false
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	req := fp.lastReq
	if req.Mode != model.ModeWalking || !req.Options.AvoidTolls || req.Options.Fastest() {
		t.Fatalf("req=%+v", req)
	}
	if req.Waypoints[0].ID != "a" || req.Waypoints[0].Address != "Berlin" || req.Waypoints[0].Resolved() {
		t.Fatalf("wp0=%+v", req.Waypoints[0])
	}
	if req.Waypoints[1].ID != "2" || !req.Waypoints[1].Resolved() || req.Waypoints[1].Coord.Lat != 52.39 {
		t.Fatalf("wp1=%+v", req.Waypoints[1])
	}
}

func TestHandleRoute_RoutedGeometryIsLonLatLineString(t *testing.T) {
	fp := &fakePlanner{route: model.Route{
		Mode:            model.ModeCar,
		Distance:        "1.050 km",
		Duration:        "10h 0min",
		DistanceMeters:  1_050_000,
		DurationSeconds: 36000,
		Instructions:    []string{"1. Head west"},
		Path:            []model.GeoPoint{{Lat: 52.52, Lng: 13.405}, {Lat: 48.86, Lng: 2.35}},
		Waypoints:       []model.Waypoint{resolved("1", "Berlin", model.GeoPoint{Lat: 52.52, Lng: 13.405})},
	}}
	rr := serve(t, fp, `{"waypoints":[{"address":"Berlin"},{"address":"Paris"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	m := decode(t, rr)
	if m["distance"] != "1.050 km" || m["duration"] != "10h 0min" || m["fallback"] != false {
		t.Fatalf("body=%v", m)
	}
	if m["distanceKm"].(float64) != 1050 {
		t.Fatalf("distanceKm=%v", m["distanceKm"])
	}
	if _, ok := m["errorMessage"]; ok {
		t.Fatal("errorMessage must be omitted on success")
	}
	geom := m["geometry"].(map[string]any)
	if geom["type"] != "LineString" {
		t.Fatalf("geometry=%v", geom)
	}
	first := geom["coordinates"].([]any)[0].([]any)
	if first[0].(float64) != 13.405 || first[1].(float64) != 52.52 {
		t.Fatalf("routed geometry must be [lon,lat], got %v", first)
	}

	coords, _, err := polyline.DecodeCoords([]byte(m["polyline"].(string)))
	if err != nil || len(coords) != 2 || math.Abs(coords[0][0]-52.52) > 1e-5 || math.Abs(coords[0][1]-13.405) > 1e-5 {
		t.Fatalf("polyline=%v err=%v", coords, err)
	}
	wps := m["waypoints"].([]any)
	if wps[0].(map[string]any)["lat"].(float64) != 52.52 {
		t.Fatalf("waypoints=%v", wps)
	}
}

func TestHandleRoute_FallbackGeometryIsLatLonList(t *testing.T) {
	fp := &fakePlanner{route: model.Route{
		Mode:         model.ModeCar,
		Path:         []model.GeoPoint{{Lat: 52.52, Lng: 13.405}, {Lat: 48.86, Lng: 2.35}},
		Approximate:  true,
		FallbackKind: model.FallbackServiceUnavailable,
		Message:      "Directions service unavailable (HTTP 500)",
		Unresolved:   []string{"3"},
	}}
	m := decode(t, serve(t, fp, `{"waypoints":[{"address":"Berlin"},{"address":"Paris"}]}`))

	if m["fallback"] != true || m["fallbackReason"] != "service_unavailable" || m["errorMessage"] == "" {
		t.Fatalf("body=%v", m)
	}
	first := m["geometry"].([]any)[0].([]any)
	if first[0].(float64) != 52.52 || first[1].(float64) != 13.405 {
		t.Fatalf("fallback geometry must be [lat,lon], got %v", first)
	}
	if u := m["unresolved"].([]any); len(u) != 1 || u[0] != "3" {
		t.Fatalf("unresolved=%v", u)
	}
	if ins, ok := m["instructions"].([]any); !ok || len(ins) != 0 {
		t.Fatalf("instructions must be an empty list, got %v", m["instructions"])
	}
}

func TestHandleRoute_RequestErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed json", `{"waypoints":`, nil, http.StatusBadRequest, "invalid_request"},
		{"unknown mode", `{"mode":"bike","waypoints":[{"address":"a"},{"address":"b"}]}`, nil, http.StatusBadRequest, "invalid_request"},
		{"one waypoint", `{"waypoints":[{"address":"Berlin"}]}`, nil, http.StatusUnprocessableEntity, "insufficient_waypoints"},
		{"empty waypoint", `{"waypoints":[{"address":" "},{"address":"b"}]}`, nil, http.StatusBadRequest, "invalid_request"},
		{"half coordinates", `{"waypoints":[{"address":"a","lat":1},{"address":"b"}]}`, nil, http.StatusBadRequest, "invalid_request"},
		{"out of range", `{"waypoints":[{"lat":95,"lng":1},{"address":"b"}]}`, nil, http.StatusBadRequest, "invalid_request"},
		{"planner insufficient", `{"waypoints":[{"address":"a"},{"address":"b"}]}`, fmt.Errorf("1 of 2 resolved: %w", model.ErrInsufficientWaypoints), http.StatusUnprocessableEntity, "insufficient_waypoints"},
		{"not configured", `{"waypoints":[{"address":"a"},{"address":"b"}]}`, model.ErrConfigurationMissing, http.StatusServiceUnavailable, "configuration_missing"},
		{"internal", `{"waypoints":[{"address":"a"},{"address":"b"}]}`, fmt.Errorf("boom: %w", model.ErrInternal), http.StatusInternalServerError, "internal_error"},
		{"unexpected", `{"waypoints":[{"address":"a"},{"address":"b"}]}`, errors.New("weird"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fp := &fakePlanner{err: tc.err}
			rr := serve(t, fp, tc.body)
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.status, rr.Body.String())
			}
			m := decode(t, rr)
			if m["error"] != tc.code || m["message"] == "" {
				t.Fatalf("body=%v", m)
			}
			if tc.err == nil && fp.calls != 0 {
				t.Fatal("planner must not be called for rejected input")
			}
		})
	}
}

func TestParseRouteRequest_Defaults(t *testing.T) {
	req, err := ParseRouteRequest(strings.NewReader(`{"waypoints":[{"address":"a"},{"address":"b"}]}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Mode != model.ModeCar || !req.Options.Fastest() || req.Options.AvoidTolls || req.Options.AvoidHighways {
		t.Fatalf("req=%+v", req)
	}
	if req.Waypoints[0].ID != "1" || req.Waypoints[1].ID != "2" {
		t.Fatalf("ids=%q,%q", req.Waypoints[0].ID, req.Waypoints[1].ID)
	}
}
