// Package quest defines the core domain types and the pure rules of the
// checkpoint progression and scoring engine: session lifecycle, unlock
// validation, dimension clamping, and leaderboard ordering. It has no
// storage or transport dependencies.
package quest

import (
	"time"

	"github.com/Impact2025/impacttour/internal/geo"
)

// SessionStatus is the coarse lifecycle state of a session.
type SessionStatus string

const (
	StatusDraft     SessionStatus = "draft"
	StatusLobby     SessionStatus = "lobby"
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusLobby, StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Session is one live run of a tour.
type Session struct {
	ID          string
	TourID      string
	Status      SessionStatus
	JoinCode    string
	TestMode    bool
	KidFriendly bool
	Geofence    geo.Polygon
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Tour is a static route definition: an ordered sequence of checkpoints.
// Frozen for any session referencing it once that session is active.
type Tour struct {
	ID          string
	Name        string
	City        string
	Description string
	Checkpoints []Checkpoint
}

// MissionType distinguishes what a checkpoint asks of a team.
type MissionType string

const (
	MissionText  MissionType = "text"
	MissionPhoto MissionType = "photo"
)

// Checkpoint is one stop on a tour with a location, unlock radius, and a
// scored mission.
type Checkpoint struct {
	ID            string
	TourID        string
	OrderIndex    int
	Name          string
	Center        geo.Point
	RadiusM       float64
	MissionType   MissionType
	MissionPrompt string
	Caps          DimensionScores
	PhotoBonus    int
}

// Team is one competing unit within a session. CurrentCheckpointIndex is a
// 0-based pointer into the tour's ordered checkpoints; it never decreases.
type Team struct {
	ID                     string
	SessionID              string
	Name                   string
	Token                  string
	CurrentCheckpointIndex int
	Completed              []string
	TotalScore             int
	BonusPoints            int
	IsActive               bool
	OutsideGeofence        bool
	LastFix                *geo.Fix
}

// HasCompleted reports whether checkpointID is already in the completed set.
func (t *Team) HasCompleted(checkpointID string) bool {
	for _, id := range t.Completed {
		if id == checkpointID {
			return true
		}
	}
	return false
}

// Finished reports whether the team has walked the whole tour.
func (t *Team) Finished(tourLength int) bool {
	return t.CurrentCheckpointIndex >= tourLength
}

// SubmissionStatus is the evaluation status of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is one scored attempt by a team at one checkpoint.
type Submission struct {
	ID            string
	TeamID        string
	CheckpointID  string
	Answer        string
	PhotoRef      string
	Status        SubmissionStatus
	Overall       int
	Dimensions    DimensionScores
	Earned        int
	Bonus         int
	Feedback      string
	SubmittedAt   time.Time
	DeleteMediaAt *time.Time
}

// DimensionScores holds the four-axis point model.
type DimensionScores struct {
	Connection int `json:"connection"`
	Meaning    int `json:"meaning"`
	Joy        int `json:"joy"`
	Growth     int `json:"growth"`
}

// Sum returns the total across all four dimensions.
func (d DimensionScores) Sum() int {
	return d.Connection + d.Meaning + d.Joy + d.Growth
}

// Add returns the element-wise sum of d and o.
func (d DimensionScores) Add(o DimensionScores) DimensionScores {
	return DimensionScores{
		Connection: d.Connection + o.Connection,
		Meaning:    d.Meaning + o.Meaning,
		Joy:        d.Joy + o.Joy,
		Growth:     d.Growth + o.Growth,
	}
}

// HistoryEntry is one row of a team's per-checkpoint score history.
type HistoryEntry struct {
	CheckpointName string `json:"checkpointName"`
	GMSEarned      int    `json:"gmsEarned"`
	OrderIndex     int    `json:"orderIndex"`
}

// SessionScore is the denormalized per-(session, team) aggregate. It is a
// derived projection of approved submissions and must always be
// reconstructible from them.
type SessionScore struct {
	SessionID         string
	TeamID            string
	Dimensions        DimensionScores
	Total             int
	Bonus             int
	CheckpointsScored int
	History           []HistoryEntry
}
