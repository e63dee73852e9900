package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/route-planner/internal/cache"
	"github.com/mohammed-shakir/route-planner/internal/cache/keys"
	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
)

type CacheConfig struct {
	Countries string
	Size      int
	TTL       time.Duration
	// bounds each shared-store operation; zero means no extra deadline
	OpTimeout time.Duration
}

// Cached puts an in-process LRU and an optional shared store in front of a
// Geocoder. Only positive results are cached.
type Cached struct {
	inner     Geocoder
	logger    *slog.Logger
	lru       *expirable.LRU[string, model.GeoPoint]
	store     cache.Store
	countries string
	ttl       time.Duration
	opTimeout time.Duration
}

type cachedPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCached wraps inner. store may be nil.
func NewCached(inner Geocoder, store cache.Store, logger *slog.Logger, cfg CacheConfig) *Cached {
	if cfg.Size <= 0 {
		cfg.Size = 4096
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		inner:     inner,
		logger:    logger,
		lru:       expirable.NewLRU[string, model.GeoPoint](cfg.Size, nil, cfg.TTL),
		store:     store,
		countries: cfg.Countries,
		ttl:       cfg.TTL,
		opTimeout: cfg.OpTimeout,
	}
}

func (c *Cached) Resolve(ctx context.Context, address string) (model.GeoPoint, bool) {
	key := keys.Geocode(c.countries, address)

	if p, ok := c.lru.Get(key); ok {
		observability.IncCache("lru", true)
		return p, true
	}
	observability.IncCache("lru", false)

	if p, ok := c.fromStore(ctx, key); ok {
		c.lru.Add(key, p)
		return p, true
	}

	p, ok := c.inner.Resolve(ctx, address)
	if !ok {
		return model.GeoPoint{}, false
	}
	c.lru.Add(key, p)
	c.toStore(ctx, key, p)
	return p, true
}

// Evict drops addresses from both tiers so the next lookup goes upstream.
func (c *Cached) Evict(ctx context.Context, addresses ...string) error {
	ks := make([]string, 0, len(addresses))
	for _, a := range addresses {
		k := keys.Geocode(c.countries, a)
		c.lru.Remove(k)
		ks = append(ks, k)
	}
	if c.store == nil || len(ks) == 0 {
		return nil
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.store.Del(opCtx, ks...); err != nil {
		return fmt.Errorf("evict %d address(es): %w", len(ks), err)
	}
	return nil
}

// Len reports the number of entries held in process.
func (c *Cached) Len() int { return c.lru.Len() }

func (c *Cached) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *Cached) fromStore(ctx context.Context, key string) (model.GeoPoint, bool) {
	if c.store == nil {
		return model.GeoPoint{}, false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	m, err := c.store.MGet(opCtx, []string{key})
	if err != nil {
		c.logger.WarnContext(ctx, "geocode cache read failed, continuing with lookup", "err", err)
		return model.GeoPoint{}, false
	}
	raw, ok := m[key]
	if !ok || len(raw) == 0 {
		observability.IncCache("redis", false)
		return model.GeoPoint{}, false
	}
	var cp cachedPoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		c.logger.WarnContext(ctx, "geocode cache entry corrupt", "key", key, "err", err)
		return model.GeoPoint{}, false
	}
	p := model.GeoPoint{Lat: cp.Lat, Lng: cp.Lng}
	if !p.Valid() {
		return model.GeoPoint{}, false
	}
	observability.IncCache("redis", true)
	return p, true
}

func (c *Cached) toStore(ctx context.Context, key string, p model.GeoPoint) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(cachedPoint{Lat: p.Lat, Lng: p.Lng})
	if err != nil {
		return
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.store.MSetWithTTL(opCtx, map[string][]byte{key: b}, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "geocode cache write failed", "err", err)
	}
}
