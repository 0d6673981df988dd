package quest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impact2025/impacttour/internal/geo"
)

func testCheckpoints() []Checkpoint {
	return []Checkpoint{
		{ID: "cp1", OrderIndex: 0, Name: "Dam Square", Center: geo.Point{Lat: 52.3731, Lng: 4.8926}, RadiusM: 50},
		{ID: "cp2", OrderIndex: 1, Name: "Central Station", Center: geo.Point{Lat: 52.3791, Lng: 4.9003}, RadiusM: 50},
		{ID: "cp3", OrderIndex: 2, Name: "Westerkerk", Center: geo.Point{Lat: 52.3744, Lng: 4.8839}, RadiusM: 75},
	}
}

func fixAt(p geo.Point, accuracy float64) *geo.Fix {
	return &geo.Fix{Point: p, AccuracyM: accuracy, ReportedAt: time.Now()}
}

func TestValidateUnlockHappyPath(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive}
	team := Team{CurrentCheckpointIndex: 0, LastFix: fixAt(cps[0].Center, 10)}

	dec, err := ValidateUnlock(session, team, cps, "cp1", 50)
	require.NoError(t, err)
	assert.Equal(t, "cp1", dec.Checkpoint.ID)
	assert.Equal(t, 1, dec.NextIndex)
	assert.False(t, dec.AlreadyCompleted)
	assert.InDelta(t, 0, dec.DistanceM, 0.01)
}

func TestValidateUnlockSessionGate(t *testing.T) {
	cps := testCheckpoints()
	team := Team{CurrentCheckpointIndex: 0, LastFix: fixAt(cps[0].Center, 10)}

	for _, status := range []SessionStatus{StatusDraft, StatusLobby, StatusPaused, StatusCompleted, StatusCancelled} {
		_, err := ValidateUnlock(Session{Status: status}, team, cps, "cp1", 50)
		assert.ErrorIs(t, err, ErrNotActive, "status %s", status)
	}
}

func TestValidateUnlockOutOfOrder(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive}
	team := Team{CurrentCheckpointIndex: 0, LastFix: fixAt(cps[1].Center, 10)}

	_, err := ValidateUnlock(session, team, cps, "cp2", 50)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	// Unknown checkpoint id is also out of order.
	_, err = ValidateUnlock(session, team, cps, "nope", 50)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	// Past the end of the tour.
	done := Team{CurrentCheckpointIndex: 3, LastFix: fixAt(cps[2].Center, 10)}
	_, err = ValidateUnlock(session, done, cps, "cp3", 50)
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestValidateUnlockTooFar(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive}
	// ~200m north of cp1.
	far := geo.Point{Lat: cps[0].Center.Lat + 200/111194.9, Lng: cps[0].Center.Lng}
	team := Team{CurrentCheckpointIndex: 0, LastFix: fixAt(far, 10)}

	_, err := ValidateUnlock(session, team, cps, "cp1", 50)
	var tooFar *TooFarError
	require.ErrorAs(t, err, &tooFar)
	assert.InDelta(t, 200, tooFar.DistanceM, 2, "error carries the measured distance")
	assert.Equal(t, 50.0, tooFar.RadiusM)
}

func TestValidateUnlockTestModeBypassesGeofence(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive, TestMode: true}
	team := Team{CurrentCheckpointIndex: 0} // no position at all

	dec, err := ValidateUnlock(session, team, cps, "cp1", 50)
	require.NoError(t, err)
	assert.Equal(t, 1, dec.NextIndex)
	assert.Negative(t, dec.DistanceM)
}

func TestValidateUnlockPositionQuality(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive}

	// No position reported yet.
	_, err := ValidateUnlock(session, Team{}, cps, "cp1", 50)
	assert.ErrorIs(t, err, ErrNoPosition)

	// Reported accuracy above the ceiling is not trusted.
	sloppy := Team{CurrentCheckpointIndex: 0, LastFix: fixAt(cps[0].Center, 120)}
	_, err = ValidateUnlock(session, sloppy, cps, "cp1", 50)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestValidateUnlockIdempotentReUnlock(t *testing.T) {
	cps := testCheckpoints()
	session := Session{Status: StatusActive}
	team := Team{
		CurrentCheckpointIndex: 1,
		Completed:              []string{"cp1"},
		LastFix:                fixAt(cps[1].Center, 10),
	}

	dec, err := ValidateUnlock(session, team, cps, "cp1", 50)
	require.NoError(t, err)
	assert.True(t, dec.AlreadyCompleted)
	assert.Equal(t, 1, dec.NextIndex, "pointer does not move on re-unlock")
}

func TestValidateSubmission(t *testing.T) {
	session := Session{Status: StatusActive}
	team := Team{Completed: []string{"cp1"}}

	assert.NoError(t, ValidateSubmission(session, team, "cp1", "an answer", "", false))
	assert.NoError(t, ValidateSubmission(session, team, "cp1", "", "photo-123", false))

	assert.ErrorIs(t, ValidateSubmission(Session{Status: StatusPaused}, team, "cp1", "a", "", false), ErrNotActive)
	assert.ErrorIs(t, ValidateSubmission(session, team, "cp1", "", "", false), ErrInvalidInput)
	assert.ErrorIs(t, ValidateSubmission(session, team, "cp2", "a", "", false), ErrOutOfOrder)
	assert.ErrorIs(t, ValidateSubmission(session, team, "cp1", "a", "", true), ErrAlreadyScored)
}

func TestTeamFinished(t *testing.T) {
	team := Team{CurrentCheckpointIndex: 3}
	assert.True(t, team.Finished(3))
	assert.False(t, team.Finished(4))
}
