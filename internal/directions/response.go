package directions

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

// Feature is the first usable route of a directions answer. Coordinates stay
// in service order; callers convert explicitly.
type Feature struct {
	Coordinates     []model.ServicePoint
	SummaryDuration float64
	// SummaryDistance is reported for diagnostics only
	SummaryDistance float64
	Instructions    []string
}

type orsStep struct {
	Instruction string `json:"instruction"`
}

type orsSegment struct {
	Steps []orsStep `json:"steps"`
}

type orsProperties struct {
	Summary struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"summary"`
	Segments []orsSegment `json:"segments"`
}

type orsPropertiesEnvelope struct {
	Features []struct {
		Properties orsProperties `json:"properties"`
	} `json:"features"`
}

// parseFeature decodes a successful directions body. The geometry goes through
// orb/geojson; summary and steps are read with a typed second pass.
func parseFeature(body []byte) (Feature, *Failure) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return Feature{}, unavailable(0, "malformed response: %v", err)
	}
	if len(fc.Features) == 0 {
		return Feature{}, &Failure{Kind: NoRouteFound, Message: "response contained no routes"}
	}

	idx, ls := -1, orb.LineString(nil)
	for i, f := range fc.Features {
		if l, ok := f.Geometry.(orb.LineString); ok && len(l) >= 2 {
			idx, ls = i, l
			break
		}
	}
	if idx < 0 {
		return Feature{}, &Failure{Kind: NoRouteFound, Message: "route geometry is not a line"}
	}

	out := Feature{Coordinates: make([]model.ServicePoint, len(ls))}
	for i, p := range ls {
		out.Coordinates[i] = model.ServicePoint{Lng: p.Lon(), Lat: p.Lat()}
	}

	// properties of the same feature the geometry came from
	var env orsPropertiesEnvelope
	if err := json.Unmarshal(body, &env); err == nil && idx < len(env.Features) {
		props := env.Features[idx].Properties
		out.SummaryDuration = props.Summary.Duration
		out.SummaryDistance = props.Summary.Distance
		for _, seg := range props.Segments {
			for _, st := range seg.Steps {
				if s := strings.TrimSpace(st.Instruction); s != "" {
					out.Instructions = append(out.Instructions, s)
				}
			}
		}
	}
	return out, nil
}

type orsErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorMessage extracts the service message from either
// {"error":{"message":".."}} or {"error":".."}.
func errorMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj orsErrorObject
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
