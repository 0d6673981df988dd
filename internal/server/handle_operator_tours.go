package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Impact2025/impacttour/internal/quest"
)

func handleOperatorListTours(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tours, err := store.ListTours(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, tours)
	}
}

func handleOperatorCreateTour(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TourRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if len(req.Checkpoints) == 0 {
			writeError(w, http.StatusBadRequest, "at least one checkpoint is required")
			return
		}
		for i, cp := range req.Checkpoints {
			if err := validateCheckpoint(cp); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("checkpoint %d: %s", i, err))
				return
			}
		}

		detail, err := store.CreateTour(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, detail)
	}
}

func handleOperatorGetTour(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := store.GetTour(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "tour not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func validateCheckpoint(cp CheckpointRequest) error {
	if strings.TrimSpace(cp.Name) == "" {
		return errors.New("name is required")
	}
	if cp.Lat < -90 || cp.Lat > 90 || cp.Lng < -180 || cp.Lng > 180 {
		return errors.New("lat/lng out of range")
	}
	if cp.RadiusM <= 0 {
		return errors.New("radiusM must be positive")
	}
	switch quest.MissionType(cp.MissionType) {
	case quest.MissionText, quest.MissionPhoto:
	default:
		return errors.New("missionType must be text or photo")
	}
	if strings.TrimSpace(cp.MissionPrompt) == "" {
		return errors.New("missionPrompt is required")
	}
	for _, v := range []int{cp.Caps.Connection, cp.Caps.Meaning, cp.Caps.Joy, cp.Caps.Growth} {
		if v < 0 || v > 25 {
			return errors.New("dimension caps must be between 0 and 25")
		}
	}
	if cp.Caps.Sum() == 0 {
		return errors.New("at least one dimension cap must be positive")
	}
	if cp.PhotoBonus < 0 {
		return errors.New("photoBonus must not be negative")
	}
	return nil
}
