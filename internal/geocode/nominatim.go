package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
)

const upstreamName = "geocoder"

type NominatimConfig struct {
	BaseURL   string
	Countries string
	UserAgent string
}

// Nominatim queries a Nominatim-compatible /search endpoint.
type Nominatim struct {
	logger    *slog.Logger
	client    *http.Client
	searchURL *url.URL
	countries string
	userAgent string
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(logger *slog.Logger, client *http.Client, cfg NominatimConfig) (*Nominatim, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse geocoder url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("geocoder url %q must be absolute", cfg.BaseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Nominatim{
		logger:    logger,
		client:    client,
		searchURL: u,
		countries: strings.TrimSpace(cfg.Countries),
		userAgent: cfg.UserAgent,
	}, nil
}

func (n *Nominatim) Resolve(ctx context.Context, address string) (model.GeoPoint, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.GeoPoint{}, false
	}

	start := time.Now()
	p, found, err := n.search(ctx, address)
	observability.ObserveUpstream(upstreamName, err, time.Since(start).Seconds())

	switch {
	case err != nil:
		observability.IncGeocode("error")
		n.logger.WarnContext(ctx, "geocode failed", "address", address, "err", err)
		return model.GeoPoint{}, false
	case !found:
		observability.IncGeocode("not_found")
		n.logger.InfoContext(ctx, "geocode no match", "address", address)
		return model.GeoPoint{}, false
	}
	observability.IncGeocode("found")
	return p, true
}

func (n *Nominatim) search(ctx context.Context, address string) (model.GeoPoint, bool, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	if n.countries != "" {
		params.Set("countrycodes", n.countries)
	}

	u := *n.searchURL
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.GeoPoint{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return model.GeoPoint{}, false, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return model.GeoPoint{}, false, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var hits []searchHit
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&hits); err != nil {
		return model.GeoPoint{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(hits) == 0 {
		return model.GeoPoint{}, false, nil
	}
	p, ok := hits[0].point()
	return p, ok, nil
}

func (h searchHit) point() (model.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(h.Lat), 64)
	if err != nil {
		return model.GeoPoint{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(h.Lon), 64)
	if err != nil {
		return model.GeoPoint{}, false
	}
	p := model.GeoPoint{Lat: lat, Lng: lng}
	return p, p.Valid()
}
