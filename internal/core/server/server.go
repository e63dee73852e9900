package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/route-planner/internal/core/config"
	"github.com/mohammed-shakir/route-planner/internal/core/health"
	middleware "github.com/mohammed-shakir/route-planner/internal/core/middleware"
	"github.com/mohammed-shakir/route-planner/internal/core/router"
)

type Deps struct {
	Planner router.Planner
	Checks  map[string]health.Check
	// Metrics serves /metrics; nil falls back to the default registry
	Metrics http.Handler
}

// NewHandler builds the chi router with all middlewares and routes.
func NewHandler(logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Checks))
	r.Handle("/metrics", metricsHandler)
	r.Post("/api/v1/route", router.HandleRoute(logger, d.Planner))
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// leaves room for geocoding plus the directions call
		WriteTimeout: cfg.Geocoder.Timeout + cfg.Directions.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
