package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampDimensions(t *testing.T) {
	caps := DimensionScores{Connection: 20, Meaning: 15, Joy: 20, Growth: 10}

	// Oracle overshoot is clamped to the authored caps.
	got := ClampDimensions(DimensionScores{Connection: 99, Meaning: 5, Joy: 0, Growth: 0}, caps)
	assert.Equal(t, DimensionScores{Connection: 20, Meaning: 5, Joy: 0, Growth: 0}, got)
	assert.Equal(t, 25, got.Sum())

	// Negative values are floored at zero.
	got = ClampDimensions(DimensionScores{Connection: -3, Meaning: 40, Joy: 12, Growth: 10}, caps)
	assert.Equal(t, DimensionScores{Connection: 0, Meaning: 15, Joy: 12, Growth: 10}, got)

	// In-range values pass through untouched.
	in := DimensionScores{Connection: 18, Meaning: 15, Joy: 7, Growth: 2}
	assert.Equal(t, in, ClampDimensions(in, caps))
}

func TestApplyAccepted(t *testing.T) {
	score := SessionScore{SessionID: "s1", TeamID: "t1"}
	cp := Checkpoint{ID: "cp1", Name: "Dam Square", OrderIndex: 0}
	sub := Submission{
		Dimensions: DimensionScores{Connection: 20, Meaning: 5},
		Earned:     25,
		Bonus:      5,
	}

	score = ApplyAccepted(score, sub, cp)
	assert.Equal(t, 25, score.Total)
	assert.Equal(t, 5, score.Bonus)
	assert.Equal(t, 1, score.CheckpointsScored)
	require.Len(t, score.History, 1)
	assert.Equal(t, HistoryEntry{CheckpointName: "Dam Square", GMSEarned: 25, OrderIndex: 0}, score.History[0])

	cp2 := Checkpoint{ID: "cp2", Name: "Central Station", OrderIndex: 1}
	sub2 := Submission{Dimensions: DimensionScores{Joy: 10, Growth: 8}, Earned: 18}
	score = ApplyAccepted(score, sub2, cp2)

	assert.Equal(t, 43, score.Total)
	assert.Equal(t, 2, score.CheckpointsScored)
	assert.Equal(t, DimensionScores{Connection: 20, Meaning: 5, Joy: 10, Growth: 8}, score.Dimensions)
	require.Len(t, score.History, 2)

	// Reconstruction law: total equals the sum of clamped dimension sums.
	assert.Equal(t, score.Dimensions.Sum(), score.Total)
}

func TestRankDeterministicOrder(t *testing.T) {
	standings := []TeamStanding{
		{TeamID: "b", TeamName: "Bison", Total: 40},
		{TeamID: "a", TeamName: "Antelope", Total: 55},
		{TeamID: "z", TeamName: "Zebra", Total: 40},
		{TeamID: "m", TeamName: "Marmot", Total: 40},
	}

	ranked := Rank(standings)
	require.Len(t, ranked, 4)
	assert.Equal(t, "Antelope", ranked[0].TeamName)
	// Ties broken by name ascending.
	assert.Equal(t, "Bison", ranked[1].TeamName)
	assert.Equal(t, "Marmot", ranked[2].TeamName)
	assert.Equal(t, "Zebra", ranked[3].TeamName)
	for i, s := range ranked {
		assert.Equal(t, i+1, s.Rank)
	}
}

func TestRankEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Rank(nil))

	one := Rank([]TeamStanding{{TeamName: "Solo", Total: 10}})
	require.Len(t, one, 1)
	assert.Equal(t, 1, one[0].Rank)
}
