package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Impact2025/impacttour/internal/oracle"
	"github.com/Impact2025/impacttour/internal/quest"
)

type SubmitRequest struct {
	// SubmissionID lets the client retry safely: re-delivering an ID that
	// was already applied returns the stored result instead of scoring twice.
	SubmissionID string `json:"submissionId,omitempty"`
	CheckpointID string `json:"checkpointId"`
	Answer       string `json:"answer,omitempty"`
	PhotoRef     string `json:"photoRef,omitempty"`
}

type SubmitResponse struct {
	SubmissionID   string                `json:"submissionId"`
	Accepted       bool                  `json:"accepted"`
	AlreadyApplied bool                  `json:"alreadyApplied,omitempty"`
	Overall        int                   `json:"overall"`
	Dimensions     quest.DimensionScores `json:"dimensions"`
	Earned         int                   `json:"earned"`
	Bonus          int                   `json:"bonus"`
	Feedback       string                `json:"feedback"`
	TotalScore     int                   `json:"totalScore"`
}

// kidMediaRetention is how long a photo reference survives in a
// kid-friendly session before it is scheduled for deletion.
const kidMediaRetention = 24 * time.Hour

// handleSubmit runs the evaluation pipeline: precondition checks under the
// team lock, the oracle call outside any lock, then the durable commit.
// The commit transaction re-checks that the session is still active, so a
// pause racing a slow oracle call wins and no score lands.
func handleSubmit(store Store, broker *Broker, locks *teamLocks, eval oracle.Oracle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.CheckpointID = strings.TrimSpace(req.CheckpointID)
		req.Answer = strings.TrimSpace(req.Answer)
		if req.CheckpointID == "" {
			writeError(w, http.StatusBadRequest, "checkpointId is required")
			return
		}

		if req.SubmissionID != "" {
			prev, err := store.SubmissionByID(r.Context(), req.SubmissionID)
			if err == nil && prev.TeamID != sess.TeamID {
				// Someone else's submission ID is not a redelivery.
				writeError(w, http.StatusNotFound, "submission not found")
				return
			}
			if err == nil {
				st, serr := store.TeamState(r.Context(), sess.TeamID)
				if serr != nil {
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				writeJSON(w, http.StatusOK, SubmitResponse{
					SubmissionID:   prev.ID,
					Accepted:       prev.Status == quest.SubmissionApproved,
					AlreadyApplied: true,
					Overall:        prev.Overall,
					Dimensions:     prev.Dimensions,
					Earned:         prev.Earned,
					Bonus:          prev.Bonus,
					Feedback:       prev.Feedback,
					TotalScore:     st.Team.TotalScore + st.Team.BonusPoints,
				})
				return
			}
			if !errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}

		// Preconditions under the team lock, so a concurrent submit for the
		// same checkpoint is seen before both reach the oracle.
		unlock := locks.lock(sess.TeamID)
		st, err := store.TeamState(r.Context(), sess.TeamID)
		if err != nil {
			unlock()
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		alreadyScored, err := store.HasApprovedSubmission(r.Context(), sess.TeamID, req.CheckpointID)
		if err != nil {
			unlock()
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		verr := quest.ValidateSubmission(st.Session, st.Team, req.CheckpointID, req.Answer, req.PhotoRef, alreadyScored)
		unlock()
		if verr != nil {
			if !writeQuestError(w, verr) {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		var checkpoint quest.Checkpoint
		for _, cp := range st.Checkpoints {
			if cp.ID == req.CheckpointID {
				checkpoint = cp
				break
			}
		}
		if checkpoint.ID == "" {
			writeQuestError(w, quest.ErrOutOfOrder)
			return
		}

		// The oracle call happens outside any lock: it can take seconds and
		// must not block the rest of the team's requests.
		result, err := eval.Evaluate(r.Context(), oracle.Request{
			MissionPrompt: checkpoint.MissionPrompt,
			Caps:          checkpoint.Caps,
			Answer:        req.Answer,
			PhotoRef:      req.PhotoRef,
			Lenient:       st.Session.KidFriendly,
		})
		if err != nil {
			if !writeQuestError(w, err) {
				writeQuestError(w, oracle.ErrUnavailable)
			}
			return
		}

		clamped := quest.ClampDimensions(result.Dimensions, checkpoint.Caps)
		sub := quest.Submission{
			ID:           req.SubmissionID,
			TeamID:       sess.TeamID,
			CheckpointID: checkpoint.ID,
			Answer:       req.Answer,
			PhotoRef:     req.PhotoRef,
			Status:       quest.SubmissionApproved,
			Overall:      result.Overall,
			Dimensions:   clamped,
			Earned:       clamped.Sum(),
			Feedback:     result.Feedback,
		}
		if sub.ID == "" {
			sub.ID = newID()
		}
		if req.PhotoRef != "" {
			sub.Bonus = checkpoint.PhotoBonus
			if st.Session.KidFriendly {
				deleteAt := time.Now().UTC().Add(kidMediaRetention)
				sub.DeleteMediaAt = &deleteAt
			}
		}

		entry := quest.HistoryEntry{
			CheckpointName: checkpoint.Name,
			GMSEarned:      sub.Earned,
			OrderIndex:     checkpoint.OrderIndex,
		}
		score, err := store.ApplyAccepted(r.Context(), sess.SessionID, sub, entry)
		if err != nil {
			if !writeQuestError(w, err) {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		broker.Publish(sess.SessionID, Event{
			Type:       EventScoreUpdate,
			TeamName:   st.Team.Name,
			TotalScore: score.Total + score.Bonus,
		})

		writeJSON(w, http.StatusOK, SubmitResponse{
			SubmissionID: sub.ID,
			Accepted:     true,
			Overall:      sub.Overall,
			Dimensions:   sub.Dimensions,
			Earned:       sub.Earned,
			Bonus:        sub.Bonus,
			Feedback:     sub.Feedback,
			TotalScore:   score.Total + score.Bonus,
		})
	}
}
