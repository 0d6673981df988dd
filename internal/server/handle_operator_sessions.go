package server

import (
	"crypto/rand"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Impact2025/impacttour/internal/quest"
)

func handleOperatorListSessions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleOperatorCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.TourID == "" {
			writeError(w, http.StatusBadRequest, "tourId is required")
			return
		}
		if n := len(req.Geofence); n > 0 && n < 3 {
			writeError(w, http.StatusBadRequest, "geofence needs at least 3 vertices")
			return
		}

		if _, err := store.GetTour(r.Context(), req.TourID); errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "tour not found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Retry on the rare join code collision.
		for attempt := 0; ; attempt++ {
			summary, err := store.CreateSession(r.Context(), req, newJoinCode())
			if isUniqueViolation(err) && attempt < 3 {
				continue
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			writeJSON(w, http.StatusCreated, summary)
			return
		}
	}
}

// SessionStatusRequest is the request body for a lifecycle transition.
type SessionStatusRequest struct {
	Status string `json:"status"`
}

func handleOperatorSessionStatus(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")

		var req SessionStatusRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		to := quest.SessionStatus(req.Status)
		if !to.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}

		sess, err := store.SessionByID(r.Context(), sessionID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if _, err := quest.Transition(sess.Status, to); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		err = store.UpdateSessionStatus(r.Context(), sessionID, sess.Status, to)
		if errors.Is(err, ErrStaleIndex) {
			writeError(w, http.StatusConflict, "session status changed concurrently")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(sessionID, Event{
			Type:   EventSessionStatusChanged,
			Status: string(to),
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": string(to)})
	}
}

func handleOperatorSessionReport(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")

		if _, err := store.SessionByID(r.Context(), sessionID); errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		report, err := store.SessionReport(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleOperatorSessionLeaderboard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")

		standings, err := store.Leaderboard(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if standings == nil {
			standings = []quest.TeamStanding{}
		}
		writeJSON(w, http.StatusOK, LeaderboardResponse{SessionID: sessionID, Standings: standings})
	}
}

// joinCodeAlphabet leaves out the characters teams misread when the code is
// shouted across a square: 0/O, 1/I/L.
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func newJoinCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	for i := range buf {
		buf[i] = joinCodeAlphabet[int(buf[i])%len(joinCodeAlphabet)]
	}
	return string(buf)
}
