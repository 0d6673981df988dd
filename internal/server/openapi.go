package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse documents the /healthz body.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "ImpactTour API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the ImpactTour checkpoint game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/sessions/{joinCode}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{joinCode}")
	getSession.SetSummary("Look up session")
	getSession.SetDescription("Look up a joinable session by its join code before joining.")
	getSession.AddRespStructure(SessionLookupResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/join")
	postJoin.SetSummary("Join a session")
	postJoin.SetDescription("Registers a team in a session by join code. Returns the team's bearer token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// GET /api/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/state")
	getState.SetSummary("Get team state")
	getState.SetDescription("Returns session status, checkpoint progression, and score history for the team. Requires Bearer token.")
	getState.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/position
	postPosition, _ := r.NewOperationContext(http.MethodPost, "/api/position")
	postPosition.SetSummary("Report position")
	postPosition.SetDescription("Records the team's GPS fix and evaluates the session geofence. Requires Bearer token.")
	postPosition.AddReqStructure(PositionRequest{})
	postPosition.AddRespStructure(PositionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPosition)

	// POST /api/unlock
	postUnlock, _ := r.NewOperationContext(http.MethodPost, "/api/unlock")
	postUnlock.SetSummary("Unlock checkpoint")
	postUnlock.SetDescription("Unlocks the team's current checkpoint when the last reported position is inside its radius. Requires Bearer token.")
	postUnlock.AddReqStructure(UnlockRequest{})
	postUnlock.AddRespStructure(UnlockResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postUnlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postUnlock.AddRespStructure(questError{}, openapi.WithHTTPStatus(http.StatusConflict))
	postUnlock.AddRespStructure(questError{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postUnlock)

	// POST /api/submissions
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/submissions")
	postSubmit.SetSummary("Submit mission answer")
	postSubmit.SetDescription("Sends the mission answer for evaluation and applies points on acceptance. Safe to retry with the same submissionId. Requires Bearer token.")
	postSubmit.AddReqStructure(SubmitRequest{})
	postSubmit.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postSubmit.AddRespStructure(questError{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSubmit.AddRespStructure(questError{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postSubmit)

	// GET /api/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Returns ranked standings for the team's session. Requires Bearer token.")
	getLeaderboard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of session updates. Pass the team token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/operator/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/operator/login")
	postLogin.SetSummary("Operator login")
	postLogin.SetDescription("Authenticate with email and password. Sets operator session cookie.")
	postLogin.AddReqStructure(OperatorLoginRequest{})
	postLogin.AddRespStructure(OperatorMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/operator/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/operator/logout")
	postLogout.SetSummary("Operator logout")
	postLogout.SetDescription("Clears the operator session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/operator/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/operator/me")
	getMe.SetSummary("Current operator")
	getMe.SetDescription("Returns the currently authenticated operator. Requires session cookie.")
	getMe.AddRespStructure(OperatorMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/operator/tours
	listTours, _ := r.NewOperationContext(http.MethodGet, "/api/operator/tours")
	listTours.SetSummary("List tours")
	listTours.SetDescription("Returns all tours with checkpoint counts. Requires session cookie.")
	listTours.AddRespStructure([]TourSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listTours.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listTours)

	// POST /api/operator/tours
	createTour, _ := r.NewOperationContext(http.MethodPost, "/api/operator/tours")
	createTour.SetSummary("Create tour")
	createTour.SetDescription("Creates a tour with its ordered checkpoints. Requires session cookie.")
	createTour.AddReqStructure(TourRequest{})
	createTour.AddRespStructure(TourDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createTour)

	// GET /api/operator/tours/{id}
	getTour, _ := r.NewOperationContext(http.MethodGet, "/api/operator/tours/{id}")
	getTour.SetSummary("Get tour")
	getTour.SetDescription("Returns a tour with full checkpoint details. Requires session cookie.")
	getTour.AddRespStructure(TourDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getTour.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getTour)

	// GET /api/operator/sessions
	listSessions, _ := r.NewOperationContext(http.MethodGet, "/api/operator/sessions")
	listSessions.SetSummary("List sessions")
	listSessions.SetDescription("Returns all sessions with team counts. Requires session cookie.")
	listSessions.AddRespStructure([]SessionSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSessions)

	// POST /api/operator/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/operator/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Creates a draft session for a tour and generates its join code. Requires session cookie.")
	createSession.AddReqStructure(SessionRequest{})
	createSession.AddRespStructure(SessionSummary{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createSession)

	// POST /api/operator/sessions/{id}/status
	postStatus, _ := r.NewOperationContext(http.MethodPost, "/api/operator/sessions/{id}/status")
	postStatus.SetSummary("Change session status")
	postStatus.SetDescription("Applies a lifecycle transition: draft, lobby, active, paused, completed, cancelled. Requires session cookie.")
	postStatus.AddReqStructure(SessionStatusRequest{})
	postStatus.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStatus)

	// GET /api/operator/sessions/{id}/leaderboard
	sessionBoard, _ := r.NewOperationContext(http.MethodGet, "/api/operator/sessions/{id}/leaderboard")
	sessionBoard.SetSummary("Session leaderboard")
	sessionBoard.SetDescription("Returns ranked standings for a session. Requires session cookie.")
	sessionBoard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	sessionBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(sessionBoard)

	// GET /api/operator/sessions/{id}/report
	getReport, _ := r.NewOperationContext(http.MethodGet, "/api/operator/sessions/{id}/report")
	getReport.SetSummary("Session report")
	getReport.SetDescription("Returns per-team standings, score history, and last known positions. Requires session cookie.")
	getReport.AddRespStructure([]SessionReportRow{}, openapi.WithHTTPStatus(http.StatusOK))
	getReport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getReport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getReport)

	// GET /api/operator/sessions/{id}/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/operator/sessions/{id}/live")
	getLive.SetSummary("Live session feed")
	getLive.SetDescription("Upgrades to a WebSocket that pushes session events. Requires session cookie.")
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getLive)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
