package server

import (
	"errors"
	"net/http"

	"github.com/Impact2025/impacttour/internal/quest"
)

// CheckpointView is one checkpoint as the team sees it. Coordinates and the
// mission prompt are withheld while the checkpoint is still locked; the team
// only gets the name and its place in the order.
type CheckpointView struct {
	ID            string  `json:"id"`
	OrderIndex    int     `json:"orderIndex"`
	Name          string  `json:"name"`
	State         string  `json:"state"` // "completed", "current" or "locked"
	Lat           float64 `json:"lat,omitempty"`
	Lng           float64 `json:"lng,omitempty"`
	RadiusM       float64 `json:"radiusM,omitempty"`
	MissionType   string  `json:"missionType,omitempty"`
	MissionPrompt string  `json:"missionPrompt,omitempty"`
}

type StateResponse struct {
	SessionID       string               `json:"sessionId"`
	SessionStatus   string               `json:"sessionStatus"`
	TourName        string               `json:"tourName"`
	TestMode        bool                 `json:"testMode"`
	TeamName        string               `json:"teamName"`
	CurrentIndex    int                  `json:"currentIndex"`
	TourComplete    bool                 `json:"tourComplete"`
	TotalScore      int                  `json:"totalScore"`
	BonusPoints     int                  `json:"bonusPoints"`
	OutsideGeofence bool                 `json:"outsideGeofence"`
	Checkpoints     []CheckpointView     `json:"checkpoints"`
	History         []quest.HistoryEntry `json:"history"`
}

func handleState(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		st, err := store.TeamState(r.Context(), sess.TeamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		history, err := store.SessionScoreHistory(r.Context(), sess.SessionID, sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		views := make([]CheckpointView, 0, len(st.Checkpoints))
		for _, cp := range st.Checkpoints {
			v := CheckpointView{
				ID:         cp.ID,
				OrderIndex: cp.OrderIndex,
				Name:       cp.Name,
				State:      "locked",
			}
			switch {
			case st.Team.HasCompleted(cp.ID):
				v.State = "completed"
			case cp.OrderIndex == st.Team.CurrentCheckpointIndex:
				v.State = "current"
			}
			if v.State != "locked" {
				v.Lat = cp.Center.Lat
				v.Lng = cp.Center.Lng
				v.RadiusM = cp.RadiusM
				v.MissionType = string(cp.MissionType)
				v.MissionPrompt = cp.MissionPrompt
			}
			views = append(views, v)
		}

		writeJSON(w, http.StatusOK, StateResponse{
			SessionID:       st.Session.ID,
			SessionStatus:   string(st.Session.Status),
			TourName:        st.TourName,
			TestMode:        st.Session.TestMode,
			TeamName:        st.Team.Name,
			CurrentIndex:    st.Team.CurrentCheckpointIndex,
			TourComplete:    st.Team.Finished(len(st.Checkpoints)),
			TotalScore:      st.Team.TotalScore,
			BonusPoints:     st.Team.BonusPoints,
			OutsideGeofence: st.Team.OutsideGeofence,
			Checkpoints:     views,
			History:         history,
		})
	}
}
