package directions

import (
	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

const (
	profileDrivingCar  = "driving-car"
	profileFootWalking = "foot-walking"

	avoidTollways = "tollways"
	avoidHighways = "highways"
)

type Request struct {
	Points  []model.ServicePoint
	Mode    model.Mode
	Options model.Options
}

type orsOptions struct {
	AvoidFeatures []string `json:"avoid_features,omitempty"`
}

type orsBody struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Preference   string       `json:"preference"`
	Options      *orsOptions  `json:"options,omitempty"`
	Instructions bool         `json:"instructions"`
	Units        string       `json:"units"`
}

// Profile maps a travel mode to the directions profile name.
func Profile(m model.Mode) string {
	if m == model.ModeWalking {
		return profileFootWalking
	}
	return profileDrivingCar
}

func buildBody(req Request) orsBody {
	coords := make([][2]float64, len(req.Points))
	for i, p := range req.Points {
		coords[i] = p.Pair()
	}

	body := orsBody{
		Coordinates:  coords,
		Preference:   "fastest",
		Instructions: true,
		Units:        "km",
	}
	if !req.Options.Fastest() {
		body.Preference = "shortest"
	}

	// avoid features only apply to driving profiles
	if req.Mode != model.ModeWalking {
		var avoid []string
		if req.Options.AvoidTolls {
			avoid = append(avoid, avoidTollways)
		}
		if req.Options.AvoidHighways {
			avoid = append(avoid, avoidHighways)
		}
		if len(avoid) > 0 {
			body.Options = &orsOptions{AvoidFeatures: avoid}
		}
	}
	return body
}
