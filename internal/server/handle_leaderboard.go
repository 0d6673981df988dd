package server

import (
	"net/http"

	"github.com/Impact2025/impacttour/internal/quest"
)

type LeaderboardResponse struct {
	SessionID string               `json:"sessionId"`
	Standings []quest.TeamStanding `json:"standings"`
}

func handleLeaderboard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		standings, err := store.Leaderboard(r.Context(), sess.SessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if standings == nil {
			standings = []quest.TeamStanding{}
		}

		writeJSON(w, http.StatusOK, LeaderboardResponse{
			SessionID: sess.SessionID,
			Standings: standings,
		})
	}
}
