package server

import (
	"net/http"
	"strings"

	"github.com/Impact2025/impacttour/internal/quest"
)

type UnlockRequest struct {
	CheckpointID string `json:"checkpointId"`
}

type UnlockResponse struct {
	Unlocked         bool     `json:"unlocked"`
	AlreadyCompleted bool     `json:"alreadyCompleted,omitempty"`
	CheckpointID     string   `json:"checkpointId"`
	CheckpointName   string   `json:"checkpointName,omitempty"`
	MissionType      string   `json:"missionType,omitempty"`
	MissionPrompt    string   `json:"missionPrompt,omitempty"`
	DistanceM        *float64 `json:"distanceM,omitempty"`
	NextIndex        int      `json:"nextIndex"`
	TourComplete     bool     `json:"tourComplete,omitempty"`
}

// handleUnlock validates an arrival at the team's current checkpoint and
// advances the progression pointer. Per-team serialization plus the store's
// compare-and-swap make concurrent unlocks of the same checkpoint resolve to
// one winner; the loser sees the already-completed no-op on retry.
func handleUnlock(store Store, broker *Broker, locks *teamLocks, accuracyCeilingM float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		var req UnlockRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.CheckpointID = strings.TrimSpace(req.CheckpointID)
		if req.CheckpointID == "" {
			writeError(w, http.StatusBadRequest, "checkpointId is required")
			return
		}

		unlock := locks.lock(sess.TeamID)
		defer unlock()

		st, err := store.TeamState(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		dec, err := quest.ValidateUnlock(st.Session, st.Team, st.Checkpoints, req.CheckpointID, accuracyCeilingM)
		if err != nil {
			if !writeQuestError(w, err) {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		if dec.AlreadyCompleted {
			writeJSON(w, http.StatusOK, UnlockResponse{
				Unlocked:         true,
				AlreadyCompleted: true,
				CheckpointID:     req.CheckpointID,
				NextIndex:        dec.NextIndex,
				TourComplete:     st.Team.Finished(len(st.Checkpoints)),
			})
			return
		}

		err = store.AdvanceTeam(r.Context(), sess.TeamID, st.Team.CurrentCheckpointIndex, req.CheckpointID)
		if err != nil {
			if !writeQuestError(w, err) {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		broker.Publish(sess.SessionID, Event{
			Type:            EventCheckpointUnlocked,
			TeamName:        st.Team.Name,
			CheckpointIndex: dec.Checkpoint.OrderIndex,
		})

		resp := UnlockResponse{
			Unlocked:       true,
			CheckpointID:   dec.Checkpoint.ID,
			CheckpointName: dec.Checkpoint.Name,
			MissionType:    string(dec.Checkpoint.MissionType),
			MissionPrompt:  dec.Checkpoint.MissionPrompt,
			NextIndex:      dec.NextIndex,
			TourComplete:   dec.NextIndex >= len(st.Checkpoints),
		}
		if dec.DistanceM >= 0 {
			resp.DistanceM = &dec.DistanceM
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
