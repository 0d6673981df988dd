package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/Impact2025/impacttour/internal/geo"
	"github.com/Impact2025/impacttour/internal/quest"
)

func TestPositionGeofenceFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A fenced session on the same tour: roughly a 2km x 1.4km box
	// around the first checkpoint.
	base := env.seedSession(t, quest.StatusActive, false)
	fence := geo.Polygon{
		{Lat: baseLat - 0.01, Lng: baseLng - 0.01},
		{Lat: baseLat - 0.01, Lng: baseLng + 0.01},
		{Lat: baseLat + 0.01, Lng: baseLng + 0.01},
		{Lat: baseLat + 0.01, Lng: baseLng - 0.01},
	}
	session, err := env.store.CreateSession(ctx, SessionRequest{TourID: base.TourID, Geofence: fence}, newJoinCode())
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	if err := env.store.UpdateSessionStatus(ctx, session.ID, quest.StatusDraft, quest.StatusLobby); err != nil {
		t.Fatalf("transition to lobby: %v", err)
	}
	if err := env.store.UpdateSessionStatus(ctx, session.ID, quest.StatusLobby, quest.StatusActive); err != nil {
		t.Fatalf("transition to active: %v", err)
	}

	team := env.joinTeam(t, session.JoinCode, "De Zwervers")

	// Well north of the fence.
	var resp PositionResponse
	status := env.do(t, http.MethodPost, "/api/position", team.Token,
		PositionRequest{Lat: baseLat + 0.05, Lng: baseLng, AccuracyM: 10}, &resp)
	if status != http.StatusOK {
		t.Fatalf("position status = %d", status)
	}
	if !resp.OutsideGeofence {
		t.Error("outsideGeofence = false for a fix outside the fence")
	}
	st, err := env.store.TeamState(ctx, team.TeamID)
	if err != nil {
		t.Fatalf("team state: %v", err)
	}
	if !st.Team.OutsideGeofence {
		t.Error("team not flagged outside the fence after the fix")
	}

	// Back inside clears the flag.
	status = env.do(t, http.MethodPost, "/api/position", team.Token,
		PositionRequest{Lat: baseLat, Lng: baseLng, AccuracyM: 10}, &resp)
	if status != http.StatusOK {
		t.Fatalf("position status = %d", status)
	}
	if resp.OutsideGeofence {
		t.Error("outsideGeofence = true for a fix inside the fence")
	}
	st, err = env.store.TeamState(ctx, team.TeamID)
	if err != nil {
		t.Fatalf("team state: %v", err)
	}
	if st.Team.OutsideGeofence {
		t.Error("team still flagged after returning inside the fence")
	}
}

func TestPositionWithoutGeofenceNeverFlags(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusActive, false)
	team := env.joinTeam(t, session.JoinCode, "De Dwalers")

	var resp PositionResponse
	status := env.do(t, http.MethodPost, "/api/position", team.Token,
		PositionRequest{Lat: baseLat + 1, Lng: baseLng + 1, AccuracyM: 10}, &resp)
	if status != http.StatusOK {
		t.Fatalf("position status = %d", status)
	}
	if resp.OutsideGeofence {
		t.Error("outsideGeofence = true for a session without a fence")
	}
}

func TestPositionRejectsOutOfRangeCoordinates(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusActive, false)
	team := env.joinTeam(t, session.JoinCode, "De Verkenners")

	status := env.do(t, http.MethodPost, "/api/position", team.Token,
		PositionRequest{Lat: 91, Lng: baseLng, AccuracyM: 10}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d for lat 91, want 400", status)
	}
}
