package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/AdamBeresnev/padel-elo/internal/padel"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type ValidationErrorBody struct {
	Kind             padel.ErrorKind `json:"kind"`
	Message          string          `json:"message"`
	TeamID           string          `json:"team_id,omitempty"`
	Court            string          `json:"court,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
}

// MatchError answers 422 with the validation details when err is a rejected match, 500 otherwise
func MatchError(w http.ResponseWriter, msg string, err error) {
	var verr *padel.ValidationError
	if !errors.As(err, &verr) {
		InternalServerError(w, msg, err)
		return
	}

	JSON(w, http.StatusUnprocessableEntity, ValidationErrorBody{
		Kind:             verr.Kind,
		Message:          verr.Error(),
		TeamID:           verr.TeamID,
		Court:            verr.Court,
		RemainingSeconds: int(math.Ceil(verr.Remaining.Seconds())),
	})
}
