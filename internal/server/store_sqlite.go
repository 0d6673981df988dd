package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Impact2025/impacttour/internal/geo"
	"github.com/Impact2025/impacttour/internal/quest"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	return uuid.NewString()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func (s *SQLiteStore) TeamFromToken(ctx context.Context, token string) (teamSession, error) {
	var sess teamSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id FROM teams WHERE token = ? AND is_active = 1
	`, token).Scan(&sess.TeamID, &sess.SessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) SessionLookup(ctx context.Context, joinCode string) (SessionLookupResponse, error) {
	var resp SessionLookupResponse
	var testMode int
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, t.name, t.city, s.status, s.test_mode
		FROM sessions s
		JOIN tours t ON t.id = s.tour_id
		WHERE s.join_code = ? AND s.status IN ('lobby', 'active', 'paused')
	`, joinCode).Scan(&resp.SessionID, &resp.TourName, &resp.City, &resp.Status, &testMode)
	if errors.Is(err, sql.ErrNoRows) {
		return resp, ErrNotFound
	}
	resp.TestMode = testMode == 1
	return resp, err
}

func (s *SQLiteStore) JoinSession(ctx context.Context, sessionID, teamName string) (string, string, error) {
	var teamID, token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, session_id, name, token)
		VALUES (?, ?, ?, lower(hex(randomblob(16))))
		RETURNING id, token
	`, newID(), sessionID, teamName).Scan(&teamID, &token)
	return teamID, token, err
}

func (s *SQLiteStore) TeamState(ctx context.Context, teamID string) (teamState, error) {
	var st teamState
	var (
		testMode, kidFriendly, isActive, outside int
		geofence, completedJSON                  sql.NullString
		startedAt, completedAt                   sql.NullString
		lastLat, lastLng, lastAcc                sql.NullFloat64
		lastAt                                   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.tour_id, s.status, s.join_code, s.test_mode, s.kid_friendly,
			s.geofence, s.started_at, s.completed_at,
			tm.name, tm.token, tm.current_checkpoint_index, tm.completed,
			tm.total_score, tm.bonus_points, tm.is_active, tm.outside_geofence,
			tm.last_lat, tm.last_lng, tm.last_accuracy_m, tm.last_position_at,
			tr.name
		FROM teams tm
		JOIN sessions s ON s.id = tm.session_id
		JOIN tours tr ON tr.id = s.tour_id
		WHERE tm.id = ?
	`, teamID).Scan(
		&st.Session.ID, &st.Session.TourID, &st.Session.Status, &st.Session.JoinCode,
		&testMode, &kidFriendly, &geofence, &startedAt, &completedAt,
		&st.Team.Name, &st.Team.Token, &st.Team.CurrentCheckpointIndex, &completedJSON,
		&st.Team.TotalScore, &st.Team.BonusPoints, &isActive, &outside,
		&lastLat, &lastLng, &lastAcc, &lastAt,
		&st.TourName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNotFound
	}
	if err != nil {
		return st, err
	}

	st.Team.ID = teamID
	st.Team.SessionID = st.Session.ID
	st.Session.TestMode = testMode == 1
	st.Session.KidFriendly = kidFriendly == 1
	st.Session.StartedAt = parseTimePtr(startedAt)
	st.Session.CompletedAt = parseTimePtr(completedAt)
	st.Team.IsActive = isActive == 1
	st.Team.OutsideGeofence = outside == 1

	if geofence.Valid && geofence.String != "" {
		if err := json.Unmarshal([]byte(geofence.String), &st.Session.Geofence); err != nil {
			return st, fmt.Errorf("decoding session geofence: %w", err)
		}
	}
	if completedJSON.Valid {
		if err := json.Unmarshal([]byte(completedJSON.String), &st.Team.Completed); err != nil {
			return st, fmt.Errorf("decoding completed set: %w", err)
		}
	}
	if lastLat.Valid && lastLng.Valid {
		fix := geo.Fix{Point: geo.Point{Lat: lastLat.Float64, Lng: lastLng.Float64}}
		if lastAcc.Valid {
			fix.AccuracyM = lastAcc.Float64
		}
		if t := parseTimePtr(lastAt); t != nil {
			fix.ReportedAt = *t
		}
		st.Team.LastFix = &fix
	}

	st.Checkpoints, err = s.tourCheckpoints(ctx, st.Session.TourID)
	return st, err
}

func (s *SQLiteStore) tourCheckpoints(ctx context.Context, tourID string) ([]quest.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_index, name, lat, lng, radius_m, mission_type, mission_prompt,
			cap_connection, cap_meaning, cap_joy, cap_growth, photo_bonus
		FROM checkpoints
		WHERE tour_id = ?
		ORDER BY order_index
	`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cps []quest.Checkpoint
	for rows.Next() {
		cp := quest.Checkpoint{TourID: tourID}
		if err := rows.Scan(
			&cp.ID, &cp.OrderIndex, &cp.Name, &cp.Center.Lat, &cp.Center.Lng,
			&cp.RadiusM, &cp.MissionType, &cp.MissionPrompt,
			&cp.Caps.Connection, &cp.Caps.Meaning, &cp.Caps.Joy, &cp.Caps.Growth,
			&cp.PhotoBonus,
		); err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

func (s *SQLiteStore) RecordPosition(ctx context.Context, teamID string, fix geo.Fix, outsideGeofence bool) error {
	outside := 0
	if outsideGeofence {
		outside = 1
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE teams
		SET last_lat = ?, last_lng = ?, last_accuracy_m = ?,
			last_position_at = ?, outside_geofence = ?
		WHERE id = ?
	`, fix.Lat, fix.Lng, fix.AccuracyM, fix.ReportedAt.UTC().Format(time.RFC3339Nano), outside, teamID)
	return err
}

func (s *SQLiteStore) AdvanceTeam(ctx context.Context, teamID string, fromIndex int, checkpointID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE teams
		SET current_checkpoint_index = ?,
			completed = json_insert(completed, '$[#]', ?)
		WHERE id = ? AND current_checkpoint_index = ?
	`, fromIndex+1, checkpointID, teamID, fromIndex)
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

func (s *SQLiteStore) SubmissionByID(ctx context.Context, submissionID string) (quest.Submission, error) {
	var sub quest.Submission
	var deleteAt sql.NullString
	var submittedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, checkpoint_id, answer, photo_ref, status, overall,
			dim_connection, dim_meaning, dim_joy, dim_growth, earned, bonus,
			feedback, submitted_at, delete_media_at
		FROM submissions WHERE id = ?
	`, submissionID).Scan(
		&sub.ID, &sub.TeamID, &sub.CheckpointID, &sub.Answer, &sub.PhotoRef,
		&sub.Status, &sub.Overall,
		&sub.Dimensions.Connection, &sub.Dimensions.Meaning, &sub.Dimensions.Joy, &sub.Dimensions.Growth,
		&sub.Earned, &sub.Bonus, &sub.Feedback, &submittedAt, &deleteAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, err
	}
	if t, err := time.Parse(time.RFC3339Nano, submittedAt); err == nil {
		sub.SubmittedAt = t
	}
	sub.DeleteMediaAt = parseTimePtr(deleteAt)
	return sub, nil
}

func (s *SQLiteStore) HasApprovedSubmission(ctx context.Context, teamID, checkpointID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM submissions
		WHERE team_id = ? AND checkpoint_id = ? AND status = 'approved'
	`, teamID, checkpointID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ApplyAccepted commits an accepted evaluation: the submission row, the
// team's running totals, and the session_scores aggregate move in a single
// transaction. The session must still be active at commit time; a pause or
// end recorded after the oracle call wins, and no score is applied.
func (s *SQLiteStore) ApplyAccepted(ctx context.Context, sessionID string, sub quest.Submission, entry quest.HistoryEntry) (quest.SessionScore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.SessionScore{}, err
	}
	defer tx.Rollback()

	var status quest.SessionStatus
	if err := tx.QueryRowContext(ctx,
		`SELECT status FROM sessions WHERE id = ?`, sessionID,
	).Scan(&status); err != nil {
		return quest.SessionScore{}, err
	}
	if !status.AllowsPlay() {
		return quest.SessionScore{}, quest.ErrNotActive
	}

	var deleteAt any
	if sub.DeleteMediaAt != nil {
		deleteAt = sub.DeleteMediaAt.UTC().Format(time.RFC3339Nano)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, team_id, checkpoint_id, answer, photo_ref, status,
			overall, dim_connection, dim_meaning, dim_joy, dim_growth, earned, bonus,
			feedback, delete_media_at)
		VALUES (?, ?, ?, ?, ?, 'approved', ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.TeamID, sub.CheckpointID, sub.Answer, sub.PhotoRef,
		sub.Overall, sub.Dimensions.Connection, sub.Dimensions.Meaning,
		sub.Dimensions.Joy, sub.Dimensions.Growth, sub.Earned, sub.Bonus,
		sub.Feedback, deleteAt)
	if isUniqueViolation(err) {
		return quest.SessionScore{}, quest.ErrAlreadyScored
	}
	if err != nil {
		return quest.SessionScore{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE teams
		SET total_score = total_score + ?, bonus_points = bonus_points + ?
		WHERE id = ?
	`, sub.Earned, sub.Bonus, sub.TeamID); err != nil {
		return quest.SessionScore{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO session_scores (session_id, team_id) VALUES (?, ?)
	`, sessionID, sub.TeamID); err != nil {
		return quest.SessionScore{}, err
	}

	score := quest.SessionScore{SessionID: sessionID, TeamID: sub.TeamID}
	var historyJSON string
	if err := tx.QueryRowContext(ctx, `
		SELECT sum_connection, sum_meaning, sum_joy, sum_growth, total, bonus,
			checkpoints_scored, history
		FROM session_scores WHERE session_id = ? AND team_id = ?
	`, sessionID, sub.TeamID).Scan(
		&score.Dimensions.Connection, &score.Dimensions.Meaning,
		&score.Dimensions.Joy, &score.Dimensions.Growth,
		&score.Total, &score.Bonus, &score.CheckpointsScored, &historyJSON,
	); err != nil {
		return quest.SessionScore{}, err
	}
	if err := json.Unmarshal([]byte(historyJSON), &score.History); err != nil {
		return quest.SessionScore{}, fmt.Errorf("decoding score history: %w", err)
	}

	checkpoint := quest.Checkpoint{Name: entry.CheckpointName, OrderIndex: entry.OrderIndex}
	score = quest.ApplyAccepted(score, sub, checkpoint)

	newHistory, err := json.Marshal(score.History)
	if err != nil {
		return quest.SessionScore{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE session_scores
		SET sum_connection = ?, sum_meaning = ?, sum_joy = ?, sum_growth = ?,
			total = ?, bonus = ?, checkpoints_scored = ?, history = ?
		WHERE session_id = ? AND team_id = ?
	`, score.Dimensions.Connection, score.Dimensions.Meaning,
		score.Dimensions.Joy, score.Dimensions.Growth,
		score.Total, score.Bonus, score.CheckpointsScored, string(newHistory),
		sessionID, sub.TeamID); err != nil {
		return quest.SessionScore{}, err
	}

	if err := tx.Commit(); err != nil {
		return quest.SessionScore{}, err
	}
	return score, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, sessionID string) ([]quest.TeamStanding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name,
			COALESCE(sc.sum_connection, 0), COALESCE(sc.sum_meaning, 0),
			COALESCE(sc.sum_joy, 0), COALESCE(sc.sum_growth, 0),
			COALESCE(sc.total, 0), COALESCE(sc.bonus, 0),
			COALESCE(sc.checkpoints_scored, 0),
			t.current_checkpoint_index,
			(SELECT COUNT(*) FROM checkpoints c
				JOIN sessions s ON s.tour_id = c.tour_id
				WHERE s.id = t.session_id)
		FROM teams t
		LEFT JOIN session_scores sc ON sc.session_id = t.session_id AND sc.team_id = t.id
		WHERE t.session_id = ? AND t.is_active = 1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []quest.TeamStanding
	for rows.Next() {
		var st quest.TeamStanding
		var index, tourLen int
		if err := rows.Scan(
			&st.TeamID, &st.TeamName,
			&st.Dimensions.Connection, &st.Dimensions.Meaning,
			&st.Dimensions.Joy, &st.Dimensions.Growth,
			&st.Total, &st.Bonus, &st.CheckpointsScored,
			&index, &tourLen,
		); err != nil {
			return nil, err
		}
		st.Finished = index >= tourLen
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quest.Rank(standings), nil
}

func (s *SQLiteStore) SessionByID(ctx context.Context, sessionID string) (quest.Session, error) {
	var sess quest.Session
	var testMode, kidFriendly int
	var geofence, startedAt, completedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tour_id, status, join_code, test_mode, kid_friendly,
			geofence, started_at, completed_at
		FROM sessions WHERE id = ?
	`, sessionID).Scan(
		&sess.ID, &sess.TourID, &sess.Status, &sess.JoinCode,
		&testMode, &kidFriendly, &geofence, &startedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNotFound
	}
	if err != nil {
		return sess, err
	}
	sess.TestMode = testMode == 1
	sess.KidFriendly = kidFriendly == 1
	sess.StartedAt = parseTimePtr(startedAt)
	sess.CompletedAt = parseTimePtr(completedAt)
	if geofence.Valid && geofence.String != "" {
		if err := json.Unmarshal([]byte(geofence.String), &sess.Geofence); err != nil {
			return sess, fmt.Errorf("decoding session geofence: %w", err)
		}
	}
	return sess, nil
}

func (s *SQLiteStore) SessionScoreHistory(ctx context.Context, sessionID, teamID string) ([]quest.HistoryEntry, error) {
	var historyJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT history FROM session_scores WHERE session_id = ? AND team_id = ?
	`, sessionID, teamID).Scan(&historyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return []quest.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var history []quest.HistoryEntry
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return nil, fmt.Errorf("decoding score history: %w", err)
	}
	return history, nil
}
