package quest

import (
	"errors"
	"fmt"
)

// The engine's rule violations are distinct, typed outcomes. None of them is
// retryable: repeating the same call with the same input will fail the same
// way. Oracle unavailability lives in the oracle package and is the only
// retryable kind.
var (
	// ErrNotActive rejects progression and scoring while the session is not
	// in the active state.
	ErrNotActive = errors.New("session is not active")

	// ErrOutOfOrder rejects an attempt at a checkpoint that is not the
	// team's current one. Checkpoints are walked strictly in order.
	ErrOutOfOrder = errors.New("checkpoint is not the team's current checkpoint")

	// ErrAlreadyScored rejects a second submission for a checkpoint that
	// already has an accepted submission.
	ErrAlreadyScored = errors.New("checkpoint already scored")

	// ErrInvalidInput rejects a submission with neither answer text nor a
	// photo reference.
	ErrInvalidInput = errors.New("answer text or photo reference is required")

	// ErrNoPosition rejects an unlock attempt when the team has never
	// reported a usable position and the session is not in test mode.
	ErrNoPosition = errors.New("no recent trusted position reported")
)

// TooFarError rejects an unlock attempt outside the checkpoint's radius. It
// carries the measured distance so the client can show how far the team is.
type TooFarError struct {
	DistanceM float64
	RadiusM   float64
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("too far from checkpoint: %.1fm away, unlock radius %.0fm", e.DistanceM, e.RadiusM)
}

// TransitionError rejects an invalid session lifecycle transition.
type TransitionError struct {
	From, To SessionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}
