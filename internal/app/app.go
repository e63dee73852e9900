// Package app wires configuration into a running route planner.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mohammed-shakir/route-planner/internal/cache/redisstore"
	"github.com/mohammed-shakir/route-planner/internal/core/config"
	"github.com/mohammed-shakir/route-planner/internal/core/health"
	"github.com/mohammed-shakir/route-planner/internal/core/httpclient"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
	"github.com/mohammed-shakir/route-planner/internal/core/server"
	"github.com/mohammed-shakir/route-planner/internal/directions"
	"github.com/mohammed-shakir/route-planner/internal/events"
	"github.com/mohammed-shakir/route-planner/internal/geocode"
	"github.com/mohammed-shakir/route-planner/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/route-planner/internal/metrics"
	"github.com/mohammed-shakir/route-planner/internal/planner"
	"github.com/mohammed-shakir/route-planner/internal/reconcile"
)

const serviceName = "route-planner"

type App struct {
	cfg       config.Config
	logger    *slog.Logger
	planner   *planner.Planner
	metrics   *metrics.Provider
	redis     *redisstore.Client
	publisher *events.Publisher
	consumer  *kafkaconsumer.Consumer
	checks    map[string]health.Check
}

// New builds every component from cfg. Redis and Kafka are optional; a
// failure to reach Redis disables the shared cache tier instead of aborting.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, build metrics.BuildInfo) (*App, error) {
	a := &App{cfg: cfg, logger: logger, checks: map[string]health.Check{}}

	a.metrics = metrics.Init(metrics.Config{
		Service: serviceName,
		Build:   build,
		Upstreams: map[string]bool{
			"directions":   cfg.Directions.APIKey != "",
			"redis":        cfg.RedisAddr != "",
			"events":       cfg.Events.Enabled,
			"invalidation": cfg.Invalidation.Enabled,
		},
	})
	observability.Init(a.metrics.Registerer(), cfg.MetricsEnabled)

	nominatim, err := geocode.NewNominatim(logger, httpclient.NewOutbound(cfg.Geocoder.Timeout), geocode.NominatimConfig{
		BaseURL:   cfg.Geocoder.URL,
		Countries: cfg.Geocoder.Countries,
		UserAgent: cfg.Geocoder.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}

	cacheCfg := geocode.CacheConfig{
		Countries: cfg.Geocoder.Countries,
		Size:      cfg.Geocoder.CacheSize,
		TTL:       cfg.Geocoder.CacheTTL,
		OpTimeout: cfg.CacheOpTimeout,
	}
	var g *geocode.Cached
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, geocode cache is process-local", "addr", cfg.RedisAddr, "err", err)
		} else {
			a.redis = rc
			a.checks["redis"] = rc.Ping
		}
	}
	if a.redis != nil {
		g = geocode.NewCached(nominatim, a.redis, logger, cacheCfg)
	} else {
		g = geocode.NewCached(nominatim, nil, logger, cacheCfg)
	}

	dc, err := directions.NewORS(logger, httpclient.NewOutbound(cfg.Directions.Timeout), directions.Config{
		BaseURL: cfg.Directions.URL,
		APIKey:  cfg.Directions.APIKey,
		Timeout: cfg.Directions.Timeout,
	})
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("directions: %w", err)
	}

	if cfg.Invalidation.Enabled {
		a.consumer = kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.Events.BrokerList(),
			Topic:   cfg.Invalidation.Topic,
			GroupID: cfg.Invalidation.GroupID,
		}, logger, g)
	}

	var sink events.Sink = events.Nop{}
	if cfg.Events.Enabled {
		p, err := events.NewPublisher(logger, cfg.Events.BrokerList(), cfg.Events.Topic, cfg.Events.Queue)
		if err != nil {
			logger.Warn("route events disabled", "brokers", cfg.Events.Brokers, "err", err)
		} else {
			a.publisher = p
			sink = p
		}
	}

	a.planner = planner.New(logger, g, dc, sink, planner.Options{
		Configured:     cfg.Directions.APIKey != "",
		GeocodeTimeout: cfg.Geocoder.Timeout,
		Speeds:         reconcile.Speeds{CarKmh: cfg.SpeedCarKmh, WalkingKmh: cfg.SpeedWalkingKmh},
		Tolerance:      cfg.SanitizeTolerance,
		H3Res:          cfg.Events.H3Res,
	})
	a.checks["directions"] = func(context.Context) error { return a.planner.Ready() }

	if !cfg.MetricsEnabled {
		logger.Info("metrics disabled")
	}
	return a, nil
}

func (a *App) Handler() http.Handler {
	return server.NewHandler(a.logger, a.deps())
}

// Run serves HTTP until ctx is done. The invalidation consumer, when
// enabled, runs alongside and stops with the same context.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("geocode invalidation consumer stopped", "err", err)
			}
		}()
	}
	return server.Run(ctx, a.cfg, a.logger, a.deps())
}

func (a *App) deps() server.Deps {
	return server.Deps{
		Planner: a.planner,
		Checks:  a.checks,
		Metrics: a.metrics.Handler(),
	}
}

// Close flushes the event publisher and releases the Redis pool.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.closeStores())
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	if a.redis == nil {
		return nil
	}
	err := a.redis.Close()
	a.redis = nil
	return err
}
