// Package oracle abstracts the external AI scoring service that turns a
// free-form answer into dimension scores. The engine treats it as a
// pluggable capability that may be slow, wrong, or unavailable.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/Impact2025/impacttour/internal/quest"
)

// ErrUnavailable is the only retryable evaluation failure: oracle timeout,
// transport error, or a malformed response. A malformed response is never
// coerced into a zero score.
var ErrUnavailable = errors.New("evaluation unavailable")

// Request is one evaluation request. Caps are passed as weighting context:
// an answer at a growth-weighted checkpoint should score higher on that axis
// than the same answer at a joy-weighted one.
type Request struct {
	MissionPrompt string                `json:"missionPrompt"`
	Caps          quest.DimensionScores `json:"caps"`
	Answer        string                `json:"answer,omitempty"`
	PhotoRef      string                `json:"photoRef,omitempty"`
	Lenient       bool                  `json:"lenient"`
}

// Result is the oracle's raw verdict. Scores are advisory; the pipeline
// clamps them into the checkpoint's caps before any points are applied.
type Result struct {
	Overall    int                   `json:"score"`
	Dimensions quest.DimensionScores `json:"dimensions"`
	Feedback   string                `json:"feedback"`
}

// Oracle is the scoring capability injected into the evaluation pipeline.
type Oracle interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// Validate rejects results with out-of-range numbers. Sub-scores above the
// nominal 0-25 axis range or an overall outside 0-100 indicate a protocol
// fault and are treated as unavailability.
func (r Result) Validate() error {
	if r.Overall < 0 || r.Overall > 100 {
		return fmt.Errorf("%w: overall score %d out of range", ErrUnavailable, r.Overall)
	}
	for _, d := range []int{r.Dimensions.Connection, r.Dimensions.Meaning, r.Dimensions.Joy, r.Dimensions.Growth} {
		if d < 0 || d > 25 {
			return fmt.Errorf("%w: dimension score %d out of range", ErrUnavailable, d)
		}
	}
	return nil
}
