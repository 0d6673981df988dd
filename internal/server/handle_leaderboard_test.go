package server

import (
	"net/http"
	"testing"

	"github.com/Impact2025/impacttour/internal/oracle"
	"github.com/Impact2025/impacttour/internal/quest"
)

func TestLeaderboardOrderingAndTies(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusActive, true)
	cps := env.checkpointIDs(t, session.TourID)

	// Three teams; Zebra and Antelope end up tied, Marmot scores higher.
	teams := map[string]JoinResponse{}
	for _, name := range []string{"Zebra", "Antelope", "Marmot"} {
		teams[name] = env.joinTeam(t, session.JoinCode, name)
	}

	score := func(name string, dims quest.DimensionScores) {
		t.Helper()
		token := teams[name].Token
		if status := env.do(t, http.MethodPost, "/api/unlock", token, UnlockRequest{CheckpointID: cps[0]}, nil); status != http.StatusOK {
			t.Fatalf("%s unlock status = %d", name, status)
		}
		env.oracle.Result = oracle.Result{Overall: 50, Dimensions: dims}
		if status := env.do(t, http.MethodPost, "/api/submissions", token, SubmitRequest{CheckpointID: cps[0], Answer: "x"}, nil); status != http.StatusOK {
			t.Fatalf("%s submit status = %d", name, status)
		}
	}

	// Caps on the first checkpoint: {connection: 20, meaning: 5}.
	score("Zebra", quest.DimensionScores{Connection: 8, Meaning: 2})
	score("Antelope", quest.DimensionScores{Connection: 8, Meaning: 2})
	score("Marmot", quest.DimensionScores{Connection: 15, Meaning: 5})

	var resp LeaderboardResponse
	status := env.do(t, http.MethodGet, "/api/leaderboard", teams["Zebra"].Token, nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(resp.Standings) != 3 {
		t.Fatalf("standings = %d, want 3", len(resp.Standings))
	}

	wantOrder := []string{"Marmot", "Antelope", "Zebra"}
	for i, want := range wantOrder {
		got := resp.Standings[i]
		if got.TeamName != want {
			t.Errorf("rank %d: team = %q, want %q", i+1, got.TeamName, want)
		}
		if got.Rank != i+1 {
			t.Errorf("rank field = %d, want %d", got.Rank, i+1)
		}
	}
	if resp.Standings[0].Total != 20 {
		t.Errorf("top total = %d, want 20", resp.Standings[0].Total)
	}
	if resp.Standings[1].Total != 10 || resp.Standings[2].Total != 10 {
		t.Error("tied teams must both show 10")
	}
}

func TestLeaderboardEmptySession(t *testing.T) {
	env := newTestEnv(t)
	session := env.seedSession(t, quest.StatusActive, false)
	team := env.joinTeam(t, session.JoinCode, "Alleen")

	var resp LeaderboardResponse
	status := env.do(t, http.MethodGet, "/api/leaderboard", team.Token, nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(resp.Standings) != 1 {
		t.Fatalf("standings = %d, want 1", len(resp.Standings))
	}
	if resp.Standings[0].Total != 0 || resp.Standings[0].CheckpointsScored != 0 {
		t.Errorf("fresh team standing = %+v", resp.Standings[0])
	}
}
