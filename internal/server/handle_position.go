package server

import (
	"net/http"
	"time"

	"github.com/Impact2025/impacttour/internal/geo"
)

type PositionRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracyM"`
}

type PositionResponse struct {
	Trusted         bool `json:"trusted"`
	OutsideGeofence bool `json:"outsideGeofence"`
}

func handlePosition(store Store, accuracyCeilingM float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		var req PositionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			writeError(w, http.StatusBadRequest, "lat/lng out of range")
			return
		}

		fix := geo.Fix{
			Point:      geo.Point{Lat: req.Lat, Lng: req.Lng},
			AccuracyM:  req.AccuracyM,
			ReportedAt: time.Now().UTC(),
		}

		st, err := store.TeamState(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// The geofence flags, never blocks. A team wandering out of bounds
		// shows up on the operator report; their position is still recorded.
		outside := false
		if len(st.Session.Geofence) >= 3 {
			outside = !st.Session.Geofence.Contains(fix.Point)
		}

		if err := store.RecordPosition(r.Context(), sess.TeamID, fix, outside); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, PositionResponse{
			Trusted:         fix.Trusted(accuracyCeilingM),
			OutsideGeofence: outside,
		})
	}
}
