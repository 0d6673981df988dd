package server

import (
	"errors"
	"net/http"
	"strings"
)

var (
	errNoSession         = errors.New("no valid team token")
	errNoOperatorSession = errors.New("no valid operator session")
)

type operatorSession struct {
	OperatorID string
	Email      string
}

const operatorCookieName = "impacttour_operator"

func teamFromRequest(r *http.Request, store Store) (teamSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return teamSession{}, errNoSession
	}
	return store.TeamFromToken(r.Context(), token)
}
