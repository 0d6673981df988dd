package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func handleSessionLookup(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		joinCode := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "joinCode")))

		resp, err := store.SessionLookup(r.Context(), joinCode)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found or not joinable")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
