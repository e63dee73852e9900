// Package geocode resolves free-text addresses to geographic points.
package geocode

import (
	"context"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

// Geocoder resolves an address. A false result means no usable match and is
// never fatal to the caller.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (model.GeoPoint, bool)
}

// GeocoderFunc adapts a function to Geocoder.
type GeocoderFunc func(ctx context.Context, address string) (model.GeoPoint, bool)

func (f GeocoderFunc) Resolve(ctx context.Context, address string) (model.GeoPoint, bool) {
	return f(ctx, address)
}
