// Package planner assembles a normalized route from geocoding, sanitizing,
// directions and fallback.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
	"github.com/mohammed-shakir/route-planner/internal/directions"
	"github.com/mohammed-shakir/route-planner/internal/events"
	"github.com/mohammed-shakir/route-planner/internal/fallback"
	"github.com/mohammed-shakir/route-planner/internal/geocode"
	"github.com/mohammed-shakir/route-planner/internal/logger"
	"github.com/mohammed-shakir/route-planner/internal/reconcile"
	"github.com/mohammed-shakir/route-planner/internal/sanitize"
)

type Options struct {
	// Configured is false when the directions credential is missing
	Configured     bool
	GeocodeTimeout time.Duration
	Speeds         reconcile.Speeds
	Tolerance      float64
	H3Res          int
}

type Planner struct {
	logger     *slog.Logger
	geocoder   geocode.Geocoder
	directions directions.Client
	sanitizer  *sanitize.Sanitizer
	sink       events.Sink
	opts       Options
	now        func() time.Time // for tests
}

func New(logger *slog.Logger, g geocode.Geocoder, dc directions.Client, sink events.Sink, opts Options) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &Planner{
		logger:     logger,
		geocoder:   g,
		directions: dc,
		sanitizer:  sanitize.New(opts.Tolerance),
		sink:       sink,
		opts:       opts,
		now:        time.Now,
	}
}

// Ready reports whether routes can be requested upstream.
func (p *Planner) Ready() error {
	if !p.opts.Configured {
		return fmt.Errorf("directions api key not set: %w", model.ErrConfigurationMissing)
	}
	return nil
}

// Plan computes a route for req. Directions failures and degenerate but
// resolved input yield an approximate route, not an error. The returned
// errors wrap ErrInsufficientWaypoints, ErrConfigurationMissing or ErrInternal.
func (p *Planner) Plan(ctx context.Context, req model.RouteRequest) (route model.Route, err error) {
	mode := req.Mode
	if mode == "" {
		mode = model.ModeCar
	}
	ctx = logger.WithMode(logger.WithComponent(ctx, "planner"), string(mode))

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.ErrorContext(ctx, "panic in planner", "panic", rec, "stack", string(debug.Stack()))
			route, err = model.Route{}, fmt.Errorf("planner: %v: %w", rec, model.ErrInternal)
		}
	}()

	if err := p.Ready(); err != nil {
		return model.Route{}, err
	}
	if len(req.Waypoints) < 2 {
		return model.Route{}, fmt.Errorf("%d waypoint(s) given: %w", len(req.Waypoints), model.ErrInsufficientWaypoints)
	}
	if p.geocoder == nil || p.directions == nil {
		return model.Route{}, fmt.Errorf("planner not wired: %w", model.ErrInternal)
	}

	res := geocode.ResolveAll(ctx, p.geocoder, req.Waypoints, p.opts.GeocodeTimeout)
	if len(res.Unresolved) > 0 {
		p.logger.InfoContext(ctx, "waypoints dropped",
			"unresolved", strings.Join(res.Unresolved, ","),
			"err", model.ErrGeocodingUnresolved)
	}
	if len(res.Resolved) < 2 {
		return model.Route{}, fmt.Errorf("%d of %d waypoint(s) resolved: %w",
			len(res.Resolved), len(req.Waypoints), model.ErrInsufficientWaypoints)
	}

	route = p.route(ctx, res.Resolved, mode, req.Options)
	route.Unresolved = res.Unresolved

	observability.IncRoute(string(mode), string(route.FallbackKind))
	p.sink.Publish(events.FromRoute(route, logger.RequestID(ctx), p.opts.H3Res, p.now()))
	p.logger.InfoContext(ctx, "route computed",
		"distance_m", route.DistanceMeters,
		"duration_s", route.DurationSeconds,
		"points", len(route.Path),
		"approximate", route.Approximate,
		"fallback_reason", string(route.FallbackKind))
	return route, nil
}

func (p *Planner) route(ctx context.Context, wps []model.Waypoint, mode model.Mode, opts model.Options) model.Route {
	pts := make([]model.GeoPoint, len(wps))
	for i, w := range wps {
		pts[i] = *w.Coord
	}

	clean, err := p.sanitizer.Sanitize(pts)
	if err != nil {
		p.logger.InfoContext(ctx, "degenerate waypoints", "err", err)
		return fallback.Synthesize(wps, mode, fallback.InsufficientWaypoints(), p.opts.Speeds)
	}

	f, err := p.directions.Route(ctx, directions.Request{
		Points:  model.ServicePath(clean),
		Mode:    mode,
		Options: opts,
	})
	if err != nil {
		if !errors.Is(err, model.ErrNoRouteFound) && !errors.Is(err, model.ErrDirectionsUnavailable) {
			p.logger.WarnContext(ctx, "unexpected directions error", "err", err)
		}
		return fallback.Synthesize(wps, mode, fallback.FromError(err), p.opts.Speeds)
	}

	m := reconcile.Reconcile(f, mode, p.opts.Speeds)
	return model.Route{
		Mode:            mode,
		Distance:        reconcile.FormatDistance(m.DistanceMeters),
		Duration:        reconcile.FormatDuration(m.DurationSeconds),
		DistanceMeters:  m.DistanceMeters,
		DurationSeconds: m.DurationSeconds,
		Instructions:    numbered(f.Instructions),
		Path:            model.GeoPath(f.Coordinates),
		Waypoints:       wps,
	}
}

func numbered(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		out = append(out, strconv.Itoa(len(out)+1)+". "+s)
	}
	return out
}
