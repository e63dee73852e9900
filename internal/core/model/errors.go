package model

import "errors"

var (
	// fewer than two usable points after geocoding and sanitizing
	ErrInsufficientWaypoints = errors.New("insufficient waypoints")
	// an address could not be located; the waypoint is dropped
	ErrGeocodingUnresolved = errors.New("geocoding unresolved")
	// transport or HTTP failure while talking to the directions service
	ErrDirectionsUnavailable = errors.New("directions service unavailable")
	// directions service answered without a usable path
	ErrNoRouteFound = errors.New("no route found")
	// directions credential is absent
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrInternal             = errors.New("internal error")
)
