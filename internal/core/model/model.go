// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"math"
	"strings"
)

// GeoPoint is a coordinate in geographic order (latitude, longitude).
type GeoPoint struct {
	Lat float64
	Lng float64
}

// ServicePoint is a coordinate in directions-service order (longitude, latitude).
type ServicePoint struct {
	Lng float64
	Lat float64
}

func (p GeoPoint) Service() ServicePoint { return ServicePoint{Lng: p.Lng, Lat: p.Lat} }

func (p ServicePoint) Geo() GeoPoint { return GeoPoint{Lat: p.Lat, Lng: p.Lng} }

// Pair returns the point as [lat, lng].
func (p GeoPoint) Pair() [2]float64 { return [2]float64{p.Lat, p.Lng} }

// Pair returns the point as [lng, lat].
func (p ServicePoint) Pair() [2]float64 { return [2]float64{p.Lng, p.Lat} }

// Finite reports whether both components are real numbers.
func (p GeoPoint) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Valid reports whether the point is finite and inside WGS84 bounds.
func (p GeoPoint) Valid() bool {
	return p.Finite() && p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// GeoPath converts a service-order sequence to geographic order.
func GeoPath(pts []ServicePoint) []GeoPoint {
	out := make([]GeoPoint, len(pts))
	for i, p := range pts {
		out[i] = p.Geo()
	}
	return out
}

// ServicePath converts a geographic sequence to service order.
func ServicePath(pts []GeoPoint) []ServicePoint {
	out := make([]ServicePoint, len(pts))
	for i, p := range pts {
		out[i] = p.Service()
	}
	return out
}

type Waypoint struct {
	ID      string
	Label   string
	Address string
	Coord   *GeoPoint
}

// Resolved reports whether the waypoint carries usable coordinates.
func (w Waypoint) Resolved() bool {
	return w.Coord != nil && w.Coord.Finite()
}

// WithCoord returns a copy of w carrying p.
func (w Waypoint) WithCoord(p GeoPoint) Waypoint {
	w.Coord = &p
	return w
}

type Mode string

const (
	ModeCar     Mode = "car"
	ModeWalking Mode = "walking"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCar, "":
		return ModeCar, nil
	case ModeWalking:
		return ModeWalking, nil
	default:
		return "", fmt.Errorf("unsupported mode %q (want car|walking)", s)
	}
}

type Options struct {
	AvoidTolls    bool
	AvoidHighways bool
	// nil means unspecified and is treated as fastest
	PreferFastest *bool
}

// Fastest resolves the preference, defaulting to true.
func (o Options) Fastest() bool {
	return o.PreferFastest == nil || *o.PreferFastest
}

type RouteRequest struct {
	Waypoints []Waypoint
	Mode      Mode
	Options   Options
}

type FallbackKind string

const (
	FallbackNone                  FallbackKind = ""
	FallbackServiceUnavailable    FallbackKind = "service_unavailable"
	FallbackNoRouteFound          FallbackKind = "no_route_found"
	FallbackInsufficientWaypoints FallbackKind = "insufficient_waypoints"
)

// Route is the normalized result of one calculation. Path is always geographic order.
type Route struct {
	Mode            Mode
	Distance        string
	Duration        string
	DistanceMeters  float64
	DurationSeconds float64
	Instructions    []string
	Path            []GeoPoint
	Waypoints       []Waypoint
	Unresolved      []string
	Approximate     bool
	FallbackKind    FallbackKind
	Message         string
}

func (r Route) DistanceKm() float64 { return r.DistanceMeters / 1000 }
