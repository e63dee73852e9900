package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
)

const (
	routePath    = "/api/v1/route"
	maxBodyBytes = 1 << 20
	maxWaypoints = 50
)

// computes routes for validated requests
type Planner interface {
	Plan(ctx context.Context, req model.RouteRequest) (model.Route, error)
}

// decodes and validates the route request and calls the planner
func HandleRoute(logger *slog.Logger, p Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, routePath, sw.code, time.Since(start).Seconds())
		}()

		req, err := ParseRouteRequest(r.Body)
		if err != nil {
			logger.InfoContext(r.Context(), "rejected route request", "err", err)
			writeError(sw, err)
			return
		}

		route, err := p.Plan(r.Context(), req)
		if err != nil {
			if errors.Is(err, model.ErrInternal) {
				logger.ErrorContext(r.Context(), "route planning failed", "err", err)
			} else {
				logger.InfoContext(r.Context(), "route planning refused", "err", err)
			}
			writeError(sw, err)
			return
		}

		writeJSON(sw, http.StatusOK, newRouteResponse(route))
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type waypointJSON struct {
	ID      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type routeRequestJSON struct {
	Waypoints     []waypointJSON `json:"waypoints"`
	Mode          string         `json:"mode"`
	AvoidTolls    bool           `json:"avoidTolls"`
	AvoidHighways bool           `json:"avoidHighways"`
	FastestRoute  *bool          `json:"fastestRoute"`
}

// errInvalidRequest marks client input that cannot be decoded or validated
var errInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errInvalidRequest)
}

func ParseRouteRequest(body io.Reader) (model.RouteRequest, error) {
	if body == nil {
		return model.RouteRequest{}, invalid("empty body")
	}
	var in routeRequestJSON
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return model.RouteRequest{}, invalid("decode body: %v", err)
	}

	mode, err := model.ParseMode(in.Mode)
	if err != nil {
		return model.RouteRequest{}, invalid("%v", err)
	}
	if len(in.Waypoints) < 2 {
		return model.RouteRequest{}, fmt.Errorf("%d waypoint(s) given, need at least 2: %w",
			len(in.Waypoints), model.ErrInsufficientWaypoints)
	}
	if len(in.Waypoints) > maxWaypoints {
		return model.RouteRequest{}, invalid("too many waypoints (%d > %d)", len(in.Waypoints), maxWaypoints)
	}

	wps := make([]model.Waypoint, len(in.Waypoints))
	for i, w := range in.Waypoints {
		wp, err := w.toModel(i)
		if err != nil {
			return model.RouteRequest{}, err
		}
		wps[i] = wp
	}

	return model.RouteRequest{
		Waypoints: wps,
		Mode:      mode,
		Options: model.Options{
			AvoidTolls:    in.AvoidTolls,
			AvoidHighways: in.AvoidHighways,
			PreferFastest: in.FastestRoute,
		},
	}, nil
}

func (w waypointJSON) toModel(i int) (model.Waypoint, error) {
	id := strings.TrimSpace(w.ID)
	if id == "" {
		id = strconv.Itoa(i + 1)
	}
	wp := model.Waypoint{
		ID:      id,
		Label:   strings.TrimSpace(w.Label),
		Address: strings.TrimSpace(w.Address),
	}
	switch {
	case w.Lat != nil && w.Lng != nil:
		p := model.GeoPoint{Lat: *w.Lat, Lng: *w.Lng}
		if !p.Valid() {
			return model.Waypoint{}, invalid("waypoint %s: coordinates out of range", id)
		}
		wp = wp.WithCoord(p)
	case w.Lat != nil || w.Lng != nil:
		return model.Waypoint{}, invalid("waypoint %s: lat and lng must be given together", id)
	}
	if !wp.Resolved() && wp.Address == "" {
		return model.Waypoint{}, invalid("waypoint %s: address or coordinates required", id)
	}
	return wp, nil
}
