package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Impact2025/impacttour/internal/quest"
)

type JoinRequest struct {
	JoinCode string `json:"joinCode"`
	TeamName string `json:"teamName"`
}

type JoinResponse struct {
	Token     string `json:"token"`
	TeamID    string `json:"teamId"`
	TeamName  string `json:"teamName"`
	SessionID string `json:"sessionId"`
	TourName  string `json:"tourName"`
}

func handleJoin(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.JoinCode = strings.ToUpper(strings.TrimSpace(req.JoinCode))
		req.TeamName = strings.TrimSpace(req.TeamName)
		if req.JoinCode == "" || req.TeamName == "" {
			writeError(w, http.StatusBadRequest, "joinCode and teamName are required")
			return
		}

		lookup, err := store.SessionLookup(r.Context(), req.JoinCode)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found or not joinable")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Late joiners are allowed while the session runs; a paused session
		// holds the door until play resumes.
		if lookup.Status == string(quest.StatusPaused) {
			writeError(w, http.StatusConflict, "session is paused")
			return
		}

		teamID, token, err := store.JoinSession(r.Context(), lookup.SessionID, req.TeamName)
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "team name already taken in this session")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(lookup.SessionID, Event{
			Type:     EventTeamJoined,
			TeamName: req.TeamName,
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			Token:     token,
			TeamID:    teamID,
			TeamName:  req.TeamName,
			SessionID: lookup.SessionID,
			TourName:  lookup.TourName,
		})
	}
}
