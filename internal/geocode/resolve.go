package geocode

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/cache/keys"
	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/core/observability"
)

// Resolution is the outcome of resolving a batch of waypoints.
type Resolution struct {
	// waypoints with finite coordinates, in input order
	Resolved []model.Waypoint
	// ids of waypoints dropped because they could not be located
	Unresolved []string
}

// ResolveAll fills in coordinates for waypoints that lack them. Lookups run
// concurrently, one per distinct address, each bounded by timeout. Waypoints
// that already carry finite coordinates are never looked up. g must honor
// context cancellation. A panicking lookup counts as not found.
func ResolveAll(ctx context.Context, g Geocoder, wps []model.Waypoint, timeout time.Duration) Resolution {
	type lookup struct {
		address string
		point   model.GeoPoint
		ok      bool
	}

	// group pending waypoints by normalized address so duplicates share one call
	pending := map[string]*lookup{}
	var order []string
	for _, w := range wps {
		if w.Resolved() || keys.NormalizeAddress(w.Address) == "" {
			continue
		}
		norm := keys.NormalizeAddress(w.Address)
		if _, ok := pending[norm]; !ok {
			pending[norm] = &lookup{address: w.Address}
			order = append(order, norm)
		}
	}

	var wg sync.WaitGroup
	for _, norm := range order {
		lk := pending[norm]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					lk.ok = false
					observability.IncGeocode("error")
					slog.Default().ErrorContext(ctx, "panic in geocoder",
						"address", lk.address, "panic", rec, "stack", string(debug.Stack()))
				}
			}()
			callCtx, cancel := withTimeout(ctx, timeout)
			defer cancel()
			lk.point, lk.ok = g.Resolve(callCtx, lk.address)
		}()
	}
	wg.Wait()

	res := Resolution{Resolved: make([]model.Waypoint, 0, len(wps))}
	for _, w := range wps {
		if w.Resolved() {
			observability.IncGeocode("skipped")
			res.Resolved = append(res.Resolved, w)
			continue
		}
		if lk, ok := pending[keys.NormalizeAddress(w.Address)]; ok && lk.ok && lk.point.Finite() {
			res.Resolved = append(res.Resolved, w.WithCoord(lk.point))
			continue
		}
		res.Unresolved = append(res.Unresolved, w.ID)
	}
	return res
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
