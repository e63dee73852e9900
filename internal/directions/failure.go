package directions

import (
	"fmt"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

type FailureKind int

const (
	ServiceUnavailable FailureKind = iota + 1
	NoRouteFound
)

func (k FailureKind) String() string {
	switch k {
	case ServiceUnavailable:
		return "service_unavailable"
	case NoRouteFound:
		return "no_route_found"
	default:
		return "unknown"
	}
}

// Failure is the only error type returned by Client.Route. Status is the HTTP
// status of the upstream answer, zero for transport errors.
type Failure struct {
	Kind    FailureKind
	Status  int
	Message string
}

func (f *Failure) Error() string {
	switch {
	case f.Status > 0 && f.Message != "":
		return fmt.Sprintf("directions %s (status %d): %s", f.Kind, f.Status, f.Message)
	case f.Status > 0:
		return fmt.Sprintf("directions %s (status %d)", f.Kind, f.Status)
	case f.Message != "":
		return fmt.Sprintf("directions %s: %s", f.Kind, f.Message)
	}
	return "directions " + f.Kind.String()
}

func (f *Failure) Unwrap() error {
	if f.Kind == NoRouteFound {
		return model.ErrNoRouteFound
	}
	return model.ErrDirectionsUnavailable
}

func unavailable(status int, format string, args ...any) *Failure {
	return &Failure{Kind: ServiceUnavailable, Status: status, Message: fmt.Sprintf(format, args...)}
}
