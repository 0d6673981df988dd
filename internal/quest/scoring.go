package quest

import "sort"

// ClampDimensions bounds every oracle-returned sub-score into
// [0, checkpoint cap]. The oracle's raw numbers are advisory; the authored
// caps are the hard ceiling.
func ClampDimensions(raw, caps DimensionScores) DimensionScores {
	return DimensionScores{
		Connection: clamp(raw.Connection, caps.Connection),
		Meaning:    clamp(raw.Meaning, caps.Meaning),
		Joy:        clamp(raw.Joy, caps.Joy),
		Growth:     clamp(raw.Growth, caps.Growth),
	}
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// ApplyAccepted folds an accepted submission into the aggregate: per-
// dimension sums, total, bonus, checkpoint count, and the append-only
// history. The caller persists the result atomically with the submission.
func ApplyAccepted(score SessionScore, sub Submission, checkpoint Checkpoint) SessionScore {
	score.Dimensions = score.Dimensions.Add(sub.Dimensions)
	score.Total += sub.Earned
	score.Bonus += sub.Bonus
	score.CheckpointsScored++
	score.History = append(score.History, HistoryEntry{
		CheckpointName: checkpoint.Name,
		GMSEarned:      sub.Earned,
		OrderIndex:     checkpoint.OrderIndex,
	})
	return score
}

// TeamStanding is one leaderboard row.
type TeamStanding struct {
	TeamID            string          `json:"teamId"`
	TeamName          string          `json:"teamName"`
	Total             int             `json:"total"`
	Bonus             int             `json:"bonus"`
	Dimensions        DimensionScores `json:"dimensions"`
	CheckpointsScored int             `json:"checkpointsScored"`
	Finished          bool            `json:"finished"`
	Rank              int             `json:"rank"`
}

// Rank orders standings by total score descending, ties broken by team name
// ascending, and fills in 1-based ranks. The order is a deterministic total
// order for any input.
func Rank(standings []TeamStanding) []TeamStanding {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return standings[i].TeamName < standings[j].TeamName
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
