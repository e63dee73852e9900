package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/route-planner/internal/app"
	"github.com/mohammed-shakir/route-planner/internal/core/config"
	"github.com/mohammed-shakir/route-planner/internal/logger"
	"github.com/mohammed-shakir/route-planner/internal/metrics"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	// flag overrides ADDR
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if a := strings.TrimSpace(*addrFlag); a != "" {
		cfg.Addr = a
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "route-planner",
		Component: "planner",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting route planner",
		"addr", cfg.Addr,
		"version", Version,
		"geocoder", cfg.Geocoder.URL,
		"directions", cfg.Directions.URL,
		"redis", cfg.RedisAddr != "",
		"events", cfg.Events.Enabled)
	if cfg.Directions.APIKey == "" {
		appLog.Warn("ORS_API_KEY not set; route requests will be refused")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, appLog, metrics.BuildInfo{
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
	})
	if err != nil {
		appLog.Error("failed to initialize", "err", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Warn("shutdown", "err", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
