// Package metrics owns the Prometheus registry exposed by the service.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

type Config struct {
	Service string
	Build   BuildInfo
	// Upstreams maps each optional dependency to whether it is configured
	Upstreams map[string]bool
}

type Provider struct {
	reg *prometheus.Registry
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"service", "version", "revision", "build_date", "go_version"},
	)
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(cfg.Service, v.Version, v.Revision, v.BuildDate, runtime.Version()).Set(1)

	upstreams := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "route_planner_upstream_configured",
			Help: "1 when the named upstream is configured for this process.",
		},
		[]string{"upstream"},
	)
	reg.MustRegister(upstreams)
	for name, on := range cfg.Upstreams {
		val := 0.0
		if on {
			val = 1
		}
		upstreams.WithLabelValues(name).Set(val)
	}

	return &Provider{reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
