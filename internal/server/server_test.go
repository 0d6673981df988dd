package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Impact2025/impacttour/internal/database"
	"github.com/Impact2025/impacttour/internal/migrations"
	"github.com/Impact2025/impacttour/internal/oracle"
	"github.com/Impact2025/impacttour/internal/quest"
)

// Checkpoint centers used across handler tests. Offsets are roughly meters
// of northward latitude.
const (
	baseLat = 52.0900
	baseLng = 5.1100
)

func offsetLat(meters float64) float64 {
	return baseLat + meters/111194.9
}

type testEnv struct {
	store  *SQLiteStore
	broker *Broker
	oracle *oracle.Static
	srv    *httptest.Server

	// eval is what the router calls; tests may point it at another oracle.
	eval oracle.Oracle
}

// oracleFunc adapts a function to the oracle interface.
type oracleFunc func(ctx context.Context, req oracle.Request) (oracle.Result, error)

func (f oracleFunc) Evaluate(ctx context.Context, req oracle.Request) (oracle.Result, error) {
	return f(ctx, req)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	broker := NewBroker()
	eval := &oracle.Static{Result: oracle.Result{
		Overall:    80,
		Dimensions: quest.DimensionScores{Connection: 12, Meaning: 8, Joy: 5, Growth: 3},
		Feedback:   "nice work",
	}}

	env := &testEnv{store: store, broker: broker, oracle: eval, eval: eval}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	indirect := oracleFunc(func(ctx context.Context, req oracle.Request) (oracle.Result, error) {
		return env.eval.Evaluate(ctx, req)
	})
	addRoutes(r, logger, store, broker, indirect, db, nil, 50, "")

	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)

	return env
}

// seedSession creates a three-checkpoint tour and a session in the given
// status, returning the session summary.
func (e *testEnv) seedSession(t *testing.T, status quest.SessionStatus, testMode bool) SessionSummary {
	t.Helper()
	ctx := context.Background()

	tour, err := e.store.CreateTour(ctx, TourRequest{
		Name: "Test Tour",
		City: "Utrecht",
		Checkpoints: []CheckpointRequest{
			{
				Name: "Dom Tower", Lat: baseLat, Lng: baseLng, RadiusM: 50,
				MissionType: "text", MissionPrompt: "Talk to a stranger.",
				Caps: quest.DimensionScores{Connection: 20, Meaning: 5},
			},
			{
				Name: "Oudegracht", Lat: offsetLat(400), Lng: baseLng, RadiusM: 50,
				MissionType: "photo", MissionPrompt: "Team photo at the wharf.",
				Caps:       quest.DimensionScores{Joy: 15, Connection: 10},
				PhotoBonus: 5,
			},
			{
				Name: "Griftpark", Lat: offsetLat(800), Lng: baseLng, RadiusM: 60,
				MissionType: "text", MissionPrompt: "Describe something new you learned.",
				Caps: quest.DimensionScores{Growth: 15, Meaning: 10},
			},
		},
	})
	if err != nil {
		t.Fatalf("creating tour: %v", err)
	}

	session, err := e.store.CreateSession(ctx, SessionRequest{TourID: tour.ID, TestMode: testMode}, newJoinCode())
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	path := map[quest.SessionStatus][]quest.SessionStatus{
		quest.StatusDraft:  nil,
		quest.StatusLobby:  {quest.StatusLobby},
		quest.StatusActive: {quest.StatusLobby, quest.StatusActive},
		quest.StatusPaused: {quest.StatusLobby, quest.StatusActive, quest.StatusPaused},
	}[status]
	from := quest.StatusDraft
	for _, to := range path {
		if err := e.store.UpdateSessionStatus(ctx, session.ID, from, to); err != nil {
			t.Fatalf("transition %s -> %s: %v", from, to, err)
		}
		from = to
	}
	session.Status = string(status)
	return session
}

func (e *testEnv) joinTeam(t *testing.T, joinCode, name string) JoinResponse {
	t.Helper()
	var resp JoinResponse
	status := e.do(t, http.MethodPost, "/api/join", "", JoinRequest{JoinCode: joinCode, TeamName: name}, &resp)
	if status != http.StatusOK {
		t.Fatalf("join status = %d", status)
	}
	return resp
}

func (e *testEnv) reportPosition(t *testing.T, token string, lat, lng, accuracy float64) {
	t.Helper()
	status := e.do(t, http.MethodPost, "/api/position", token, PositionRequest{Lat: lat, Lng: lng, AccuracyM: accuracy}, nil)
	if status != http.StatusOK {
		t.Fatalf("position status = %d", status)
	}
}

// do performs a request and decodes the JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) checkpointIDs(t *testing.T, tourID string) []string {
	t.Helper()
	detail, err := e.store.GetTour(context.Background(), tourID)
	if err != nil {
		t.Fatalf("getting tour: %v", err)
	}
	ids := make([]string, len(detail.Checkpoints))
	for i, cp := range detail.Checkpoints {
		ids[i] = cp.ID
	}
	return ids
}
