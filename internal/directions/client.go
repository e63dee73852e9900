// Package directions talks to an OpenRouteService-compatible directions API.
package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
)

const (
	upstreamName = "directions"
	maxBody      = 8 << 20
)

type Client interface {
	Route(ctx context.Context, req Request) (Feature, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type ORS struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  *url.URL
	apiKey   string
	timeout  time.Duration
	startNow func() time.Time // for tests
}

func NewORS(logger *slog.Logger, client *http.Client, cfg Config) (*ORS, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse directions url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("directions url %q must be absolute", cfg.BaseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ORS{
		logger:   logger,
		client:   client,
		baseURL:  u,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		startNow: time.Now,
	}, nil
}

func (c *ORS) endpoint(m model.Mode) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/v2/directions/" + Profile(m) + "/geojson"
	return u.String()
}

// Route requests a route for req. Every non-nil error is a *Failure.
func (c *ORS) Route(ctx context.Context, req Request) (Feature, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := c.startNow()
	f, fail := c.do(ctx, req)
	dur := time.Since(start)

	if fail != nil {
		observability.ObserveUpstream(upstreamName, fail, dur.Seconds())
		c.logger.WarnContext(ctx, "directions failed",
			"profile", Profile(req.Mode),
			"kind", fail.Kind.String(),
			"status", fail.Status,
			"err", fail.Message,
			"duration", dur.String())
		return Feature{}, fail
	}
	observability.ObserveUpstream(upstreamName, nil, dur.Seconds())
	c.logger.DebugContext(ctx, "directions done",
		"profile", Profile(req.Mode),
		"points", len(f.Coordinates),
		"duration", dur.String())
	return f, nil
}

func (c *ORS) do(ctx context.Context, req Request) (Feature, *Failure) {
	payload, err := json.Marshal(buildBody(req))
	if err != nil {
		return Feature{}, unavailable(0, "encode request: %v", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.Mode), bytes.NewReader(payload))
	if err != nil {
		return Feature{}, unavailable(0, "build request: %v", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json, application/geo+json")
	hreq.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(hreq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Feature{}, unavailable(0, "request timed out")
		}
		return Feature{}, unavailable(0, "do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Feature{}, unavailable(resp.StatusCode, "read body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Feature{}, &Failure{Kind: ServiceUnavailable, Status: resp.StatusCode, Message: msg}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Feature{}, unavailable(resp.StatusCode, "empty response body")
	}

	f, fail := parseFeature(body)
	if fail != nil && fail.Status == 0 {
		fail.Status = resp.StatusCode
	}
	return f, fail
}
