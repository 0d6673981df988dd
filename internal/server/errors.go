package server

import (
	"errors"
	"net/http"

	"github.com/Impact2025/impacttour/internal/oracle"
	"github.com/Impact2025/impacttour/internal/quest"
)

// questError is the error body for rejected progression and scoring calls.
// Retryable is true only for oracle unavailability; every rule violation is
// final for the given input.
type questError struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Retryable bool     `json:"retryable"`
	DistanceM *float64 `json:"distanceM,omitempty"`
	RadiusM   *float64 `json:"radiusM,omitempty"`
}

// writeQuestError maps engine errors onto HTTP statuses: state conflicts to
// 409, fixable client conditions (too far, no position) to 422, oracle
// unavailability to 503.
func writeQuestError(w http.ResponseWriter, err error) bool {
	var tooFar *quest.TooFarError

	switch {
	case errors.Is(err, quest.ErrNotActive):
		writeJSON(w, http.StatusConflict, questError{
			Error: "session is not active", Code: "session_not_active",
		})
	case errors.Is(err, quest.ErrOutOfOrder):
		writeJSON(w, http.StatusConflict, questError{
			Error: "checkpoint is not your current checkpoint", Code: "out_of_order",
		})
	case errors.Is(err, quest.ErrAlreadyScored):
		writeJSON(w, http.StatusConflict, questError{
			Error: "checkpoint already scored", Code: "already_scored",
		})
	case errors.Is(err, quest.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, questError{
			Error: "answer text or photo reference is required", Code: "invalid_input",
		})
	case errors.Is(err, quest.ErrNoPosition):
		writeJSON(w, http.StatusUnprocessableEntity, questError{
			Error: "no recent trusted position; report your position first", Code: "no_position",
		})
	case errors.As(err, &tooFar):
		writeJSON(w, http.StatusUnprocessableEntity, questError{
			Error:     tooFar.Error(),
			Code:      "too_far",
			DistanceM: &tooFar.DistanceM,
			RadiusM:   &tooFar.RadiusM,
		})
	case errors.Is(err, oracle.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, questError{
			Error: "evaluation temporarily unavailable, try again", Code: "oracle_unavailable", Retryable: true,
		})
	case errors.Is(err, ErrStaleIndex):
		writeJSON(w, http.StatusConflict, questError{
			Error: "progress changed concurrently, re-fetch state", Code: "stale_progress",
		})
	default:
		return false
	}
	return true
}
