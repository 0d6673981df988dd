package server

import (
	"net/http"
	"testing"

	"github.com/Impact2025/impacttour/internal/quest"
)

func TestSessionLookup(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusLobby, false)

	var resp SessionLookupResponse
	status := env.do(t, http.MethodGet, "/api/sessions/"+session.JoinCode, "", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.SessionID != session.ID {
		t.Errorf("sessionId = %q, want %q", resp.SessionID, session.ID)
	}
	if resp.TourName != "Test Tour" {
		t.Errorf("tourName = %q", resp.TourName)
	}
	if resp.Status != string(quest.StatusLobby) {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestSessionLookupDraftHidden(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusDraft, false)

	status := env.do(t, http.MethodGet, "/api/sessions/"+session.JoinCode, "", nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestJoin(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusLobby, false)

	resp := env.joinTeam(t, session.JoinCode, "De Fietsers")
	if resp.Token == "" {
		t.Fatal("token is empty")
	}
	if resp.SessionID != session.ID {
		t.Errorf("sessionId = %q, want %q", resp.SessionID, session.ID)
	}

	// The token authenticates the state endpoint.
	var state StateResponse
	status := env.do(t, http.MethodGet, "/api/state", resp.Token, nil, &state)
	if status != http.StatusOK {
		t.Fatalf("state status = %d", status)
	}
	if state.TeamName != "De Fietsers" {
		t.Errorf("teamName = %q", state.TeamName)
	}
	if state.CurrentIndex != 0 {
		t.Errorf("currentIndex = %d, want 0", state.CurrentIndex)
	}
	if len(state.Checkpoints) != 3 {
		t.Fatalf("checkpoints = %d, want 3", len(state.Checkpoints))
	}
	if state.Checkpoints[0].State != "current" {
		t.Errorf("first checkpoint state = %q, want current", state.Checkpoints[0].State)
	}
	// Locked checkpoints hide coordinates and the mission.
	if state.Checkpoints[2].State != "locked" {
		t.Errorf("last checkpoint state = %q, want locked", state.Checkpoints[2].State)
	}
	if state.Checkpoints[2].MissionPrompt != "" || state.Checkpoints[2].Lat != 0 {
		t.Error("locked checkpoint leaks mission or coordinates")
	}
}

func TestJoinDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusLobby, false)

	env.joinTeam(t, session.JoinCode, "De Fietsers")
	status := env.do(t, http.MethodPost, "/api/join", "", JoinRequest{JoinCode: session.JoinCode, TeamName: "De Fietsers"}, nil)
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
}

func TestJoinValidation(t *testing.T) {
	env := newTestEnv(t)

	status := env.do(t, http.MethodPost, "/api/join", "", JoinRequest{JoinCode: "", TeamName: "x"}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}

	status = env.do(t, http.MethodPost, "/api/join", "", JoinRequest{JoinCode: "NOSUCH", TeamName: "x"}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestJoinPausedSession(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusPaused, false)

	status := env.do(t, http.MethodPost, "/api/join", "", JoinRequest{JoinCode: session.JoinCode, TeamName: "Laat"}, nil)
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
}
