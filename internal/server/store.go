package server

import (
	"context"
	"errors"

	"github.com/Impact2025/impacttour/internal/geo"
	"github.com/Impact2025/impacttour/internal/quest"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStaleIndex signals a lost compare-and-swap on the team's
	// checkpoint pointer: another request advanced it first.
	ErrStaleIndex = errors.New("checkpoint index changed concurrently")
)

// teamSession identifies the caller behind a team token.
type teamSession struct {
	TeamID    string
	SessionID string
}

// teamState is everything the engine needs to validate one team action:
// the session gate, the team's progression state, and the frozen tour.
type teamState struct {
	Session     quest.Session
	Team        quest.Team
	TourName    string
	Checkpoints []quest.Checkpoint
}

// SessionLookupResponse is returned when a team looks up a join code.
type SessionLookupResponse struct {
	SessionID string `json:"sessionId"`
	TourName  string `json:"tourName"`
	City      string `json:"city"`
	Status    string `json:"status"`
	TestMode  bool   `json:"testMode"`
}

// SessionReportRow is one team in the operator's session report.
type SessionReportRow struct {
	quest.TeamStanding
	History         []quest.HistoryEntry `json:"history"`
	OutsideGeofence bool                 `json:"outsideGeofence"`
	LastLat         *float64             `json:"lastLat"`
	LastLng         *float64             `json:"lastLng"`
	LastPositionAt  *string              `json:"lastPositionAt"`
}

type Store interface {
	// Team surface.
	TeamFromToken(ctx context.Context, token string) (teamSession, error)
	SessionLookup(ctx context.Context, joinCode string) (SessionLookupResponse, error)
	JoinSession(ctx context.Context, sessionID, teamName string) (teamID, token string, err error)
	TeamState(ctx context.Context, teamID string) (teamState, error)
	RecordPosition(ctx context.Context, teamID string, fix geo.Fix, outsideGeofence bool) error

	// Progression. AdvanceTeam is a compare-and-swap on the team's pointer:
	// it fails with ErrStaleIndex when fromIndex no longer matches.
	AdvanceTeam(ctx context.Context, teamID string, fromIndex int, checkpointID string) error

	// Scoring. ApplyAccepted is the durable commit point: submission row,
	// team totals, and the session_scores aggregate move in one transaction,
	// and the session's active status is re-checked inside it. Re-delivery
	// of an already-applied submission ID returns the stored submission
	// without double-applying.
	SubmissionByID(ctx context.Context, submissionID string) (quest.Submission, error)
	HasApprovedSubmission(ctx context.Context, teamID, checkpointID string) (bool, error)
	ApplyAccepted(ctx context.Context, sessionID string, sub quest.Submission, entry quest.HistoryEntry) (quest.SessionScore, error)

	// Reads.
	Leaderboard(ctx context.Context, sessionID string) ([]quest.TeamStanding, error)
	SessionByID(ctx context.Context, sessionID string) (quest.Session, error)
	SessionScoreHistory(ctx context.Context, sessionID, teamID string) ([]quest.HistoryEntry, error)

	// Operator surface.
	OperatorByEmail(ctx context.Context, email string) (operatorID, passwordHash string, err error)
	CreateOperatorSession(ctx context.Context, operatorID string) (sessionID string, err error)
	DeleteOperatorSession(ctx context.Context, sessionID string) error
	OperatorFromSession(ctx context.Context, sessionID string) (operatorSession, error)

	ListTours(ctx context.Context) ([]TourSummary, error)
	CreateTour(ctx context.Context, req TourRequest) (TourDetail, error)
	GetTour(ctx context.Context, id string) (TourDetail, error)

	ListSessions(ctx context.Context) ([]SessionSummary, error)
	CreateSession(ctx context.Context, req SessionRequest, joinCode string) (SessionSummary, error)
	UpdateSessionStatus(ctx context.Context, sessionID string, from, to quest.SessionStatus) error
	SessionReport(ctx context.Context, sessionID string) ([]SessionReportRow, error)
}
