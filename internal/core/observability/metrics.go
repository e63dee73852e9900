// Package observability records service metrics.
package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream", "outcome"},
	)

	geocodeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_results_total",
			Help: "Geocoding lookups by outcome (found, not_found, error, skipped).",
		},
		[]string{"outcome"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Geocode cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	routeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_results_total",
			Help: "Computed routes by travel mode and kind (routed or fallback reason).",
		},
		[]string{"mode", "kind"},
	)

	invalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_invalidations_total",
			Help: "Geocode invalidation events by outcome (applied, duplicate, invalid, decode_error, error, redeliver).",
		},
		[]string{"outcome"},
	)

	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "route_events_dropped_total",
			Help: "Route events dropped because the publish queue was full.",
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		upstreamLatencySeconds,
		geocodeResults,
		cacheResults,
		routeResults,
		invalidations,
		eventsDropped,
	}
}

// Init registers the service collectors on reg. With on=false observations are no-ops.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if !on || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstream(upstream string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamLatencySeconds.WithLabelValues(upstream, outcome).Observe(durationSeconds)
}

func IncGeocode(outcome string) {
	if !enabled.Load() {
		return
	}
	geocodeResults.WithLabelValues(outcome).Inc()
}

func IncCache(tier string, hit bool) {
	if !enabled.Load() {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheResults.WithLabelValues(tier, outcome).Inc()
}

func IncRoute(mode, kind string) {
	if !enabled.Load() {
		return
	}
	if kind == "" {
		kind = "routed"
	}
	routeResults.WithLabelValues(mode, kind).Inc()
}

func IncEventsDropped() {
	if !enabled.Load() {
		return
	}
	eventsDropped.Inc()
}

func IncInvalidation(outcome string) {
	if !enabled.Load() {
		return
	}
	invalidations.WithLabelValues(outcome).Inc()
}
