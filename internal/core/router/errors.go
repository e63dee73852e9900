package router

import (
	"errors"
	"net/http"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps request-level errors to a status and a stable code.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	msg := "internal error"

	switch {
	case errors.Is(err, errInvalidRequest):
		status, code, msg = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, model.ErrInsufficientWaypoints):
		status, code, msg = http.StatusUnprocessableEntity, "insufficient_waypoints", err.Error()
	case errors.Is(err, model.ErrConfigurationMissing):
		status, code, msg = http.StatusServiceUnavailable, "configuration_missing", "route service is not configured"
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
