package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Impact2025/impacttour/internal/geo"
	"github.com/Impact2025/impacttour/internal/quest"
)

// TourSummary is returned in the operator tour list.
type TourSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	City            string `json:"city"`
	Description     string `json:"description"`
	CheckpointCount int    `json:"checkpointCount"`
	CreatedAt       string `json:"createdAt"`
}

// CheckpointRequest is one checkpoint in a tour create request.
type CheckpointRequest struct {
	Name          string                `json:"name"`
	Lat           float64               `json:"lat"`
	Lng           float64               `json:"lng"`
	RadiusM       float64               `json:"radiusM"`
	MissionType   string                `json:"missionType"`
	MissionPrompt string                `json:"missionPrompt"`
	Caps          quest.DimensionScores `json:"caps"`
	PhotoBonus    int                   `json:"photoBonus"`
}

// TourRequest is the request body for creating a tour.
type TourRequest struct {
	Name        string              `json:"name"`
	City        string              `json:"city"`
	Description string              `json:"description"`
	Checkpoints []CheckpointRequest `json:"checkpoints"`
}

// TourDetail is the full tour with its ordered checkpoints.
type TourDetail struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	City        string             `json:"city"`
	Description string             `json:"description"`
	Checkpoints []CheckpointDetail `json:"checkpoints"`
	CreatedAt   string             `json:"createdAt"`
}

// CheckpointDetail is one checkpoint in a tour detail response.
type CheckpointDetail struct {
	ID string `json:"id"`
	CheckpointRequest
	OrderIndex int `json:"orderIndex"`
}

// SessionRequest is the request body for creating a session.
type SessionRequest struct {
	TourID      string      `json:"tourId"`
	TestMode    bool        `json:"testMode"`
	KidFriendly bool        `json:"kidFriendly"`
	Geofence    geo.Polygon `json:"geofence,omitempty"`
}

// SessionSummary is returned in the operator session list.
type SessionSummary struct {
	ID          string `json:"id"`
	TourID      string `json:"tourId"`
	TourName    string `json:"tourName"`
	Status      string `json:"status"`
	JoinCode    string `json:"joinCode"`
	TestMode    bool   `json:"testMode"`
	KidFriendly bool   `json:"kidFriendly"`
	TeamCount   int    `json:"teamCount"`
	CreatedAt   string `json:"createdAt"`
}

func (s *SQLiteStore) OperatorByEmail(ctx context.Context, email string) (string, string, error) {
	var operatorID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM operators WHERE email = ?
	`, email).Scan(&operatorID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return operatorID, passwordHash, err
}

func (s *SQLiteStore) CreateOperatorSession(ctx context.Context, operatorID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO operator_sessions (operator_id)
		VALUES (?)
		RETURNING id
	`, operatorID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteOperatorSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operator_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) OperatorFromSession(ctx context.Context, sessionID string) (operatorSession, error) {
	var sess operatorSession
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.email
		FROM operator_sessions s
		JOIN operators o ON o.id = s.operator_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.OperatorID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return operatorSession{}, errNoOperatorSession
	}
	return sess, err
}

func (s *SQLiteStore) ListTours(ctx context.Context) ([]TourSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.city, t.description,
			(SELECT COUNT(*) FROM checkpoints c WHERE c.tour_id = t.id),
			t.created_at
		FROM tours t
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tours := []TourSummary{}
	for rows.Next() {
		var t TourSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Description, &t.CheckpointCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (s *SQLiteStore) CreateTour(ctx context.Context, req TourRequest) (TourDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TourDetail{}, err
	}
	defer tx.Rollback()

	tourID := newID()
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tours (id, name, city, description)
		VALUES (?, ?, ?, ?)
		RETURNING created_at
	`, tourID, req.Name, req.City, req.Description).Scan(&createdAt)
	if err != nil {
		return TourDetail{}, err
	}

	detail := TourDetail{
		ID:          tourID,
		Name:        req.Name,
		City:        req.City,
		Description: req.Description,
		Checkpoints: []CheckpointDetail{},
		CreatedAt:   createdAt,
	}
	for i, cp := range req.Checkpoints {
		cpID := newID()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO checkpoints (id, tour_id, order_index, name, lat, lng, radius_m,
				mission_type, mission_prompt, cap_connection, cap_meaning, cap_joy,
				cap_growth, photo_bonus)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, cpID, tourID, i, cp.Name, cp.Lat, cp.Lng, cp.RadiusM,
			cp.MissionType, cp.MissionPrompt,
			cp.Caps.Connection, cp.Caps.Meaning, cp.Caps.Joy, cp.Caps.Growth,
			cp.PhotoBonus)
		if err != nil {
			return TourDetail{}, fmt.Errorf("inserting checkpoint %d: %w", i, err)
		}
		detail.Checkpoints = append(detail.Checkpoints, CheckpointDetail{
			ID:                cpID,
			CheckpointRequest: cp,
			OrderIndex:        i,
		})
	}

	if err := tx.Commit(); err != nil {
		return TourDetail{}, err
	}
	return detail, nil
}

func (s *SQLiteStore) GetTour(ctx context.Context, id string) (TourDetail, error) {
	var d TourDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, description, created_at FROM tours WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &d.City, &d.Description, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}

	cps, err := s.tourCheckpoints(ctx, id)
	if err != nil {
		return d, err
	}
	d.Checkpoints = []CheckpointDetail{}
	for _, cp := range cps {
		d.Checkpoints = append(d.Checkpoints, CheckpointDetail{
			ID: cp.ID,
			CheckpointRequest: CheckpointRequest{
				Name:          cp.Name,
				Lat:           cp.Center.Lat,
				Lng:           cp.Center.Lng,
				RadiusM:       cp.RadiusM,
				MissionType:   string(cp.MissionType),
				MissionPrompt: cp.MissionPrompt,
				Caps:          cp.Caps,
				PhotoBonus:    cp.PhotoBonus,
			},
			OrderIndex: cp.OrderIndex,
		})
	}
	return d, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.tour_id, t.name, s.status, s.join_code, s.test_mode, s.kid_friendly,
			(SELECT COUNT(*) FROM teams tm WHERE tm.session_id = s.id),
			s.created_at
		FROM sessions s
		JOIN tours t ON t.id = s.tour_id
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sm SessionSummary
		var testMode, kidFriendly int
		if err := rows.Scan(&sm.ID, &sm.TourID, &sm.TourName, &sm.Status, &sm.JoinCode,
			&testMode, &kidFriendly, &sm.TeamCount, &sm.CreatedAt); err != nil {
			return nil, err
		}
		sm.TestMode = testMode == 1
		sm.KidFriendly = kidFriendly == 1
		sessions = append(sessions, sm)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, req SessionRequest, joinCode string) (SessionSummary, error) {
	testMode, kidFriendly := 0, 0
	if req.TestMode {
		testMode = 1
	}
	if req.KidFriendly {
		kidFriendly = 1
	}
	var geofence any
	if len(req.Geofence) >= 3 {
		data, err := json.Marshal(req.Geofence)
		if err != nil {
			return SessionSummary{}, err
		}
		geofence = string(data)
	}

	var id, createdAt, tourName string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, tour_id, status, join_code, test_mode, kid_friendly, geofence)
		VALUES (?, ?, 'draft', ?, ?, ?, ?)
		RETURNING id, created_at, (SELECT name FROM tours WHERE id = tour_id)
	`, newID(), req.TourID, joinCode, testMode, kidFriendly, geofence).Scan(&id, &createdAt, &tourName)
	if err != nil {
		return SessionSummary{}, err
	}

	return SessionSummary{
		ID:          id,
		TourID:      req.TourID,
		TourName:    tourName,
		Status:      string(quest.StatusDraft),
		JoinCode:    joinCode,
		TestMode:    req.TestMode,
		KidFriendly: req.KidFriendly,
		CreatedAt:   createdAt,
	}, nil
}

// UpdateSessionStatus applies a validated lifecycle transition with a
// compare-and-swap on the current status, stamping started_at on the first
// activation and completed_at on entering a terminal state.
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID string, from, to quest.SessionStatus) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var startedAt, completedAt any
	if to == quest.StatusActive {
		startedAt = now
	}
	if to.Terminal() {
		completedAt = now
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?,
			started_at = COALESCE(started_at, ?),
			completed_at = COALESCE(completed_at, ?)
		WHERE id = ? AND status = ?
	`, to, startedAt, completedAt, sessionID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleIndex
	}
	return nil
}

func (s *SQLiteStore) SessionReport(ctx context.Context, sessionID string) ([]SessionReportRow, error) {
	standings, err := s.Leaderboard(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := []SessionReportRow{}
	for _, st := range standings {
		row := SessionReportRow{TeamStanding: st}

		row.History, err = s.SessionScoreHistory(ctx, sessionID, st.TeamID)
		if err != nil {
			return nil, err
		}

		var outside int
		var lat, lng sql.NullFloat64
		var at sql.NullString
		err = s.db.QueryRowContext(ctx, `
			SELECT outside_geofence, last_lat, last_lng, last_position_at
			FROM teams WHERE id = ?
		`, st.TeamID).Scan(&outside, &lat, &lng, &at)
		if err != nil {
			return nil, err
		}
		row.OutsideGeofence = outside == 1
		if lat.Valid {
			row.LastLat = &lat.Float64
		}
		if lng.Valid {
			row.LastLng = &lng.Float64
		}
		if at.Valid {
			row.LastPositionAt = &at.String
		}
		report = append(report, row)
	}
	return report, nil
}
