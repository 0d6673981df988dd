package quest

import "github.com/Impact2025/impacttour/internal/geo"

// UnlockDecision is the outcome of a validated unlock attempt.
type UnlockDecision struct {
	// Checkpoint is the checkpoint being unlocked.
	Checkpoint Checkpoint
	// AlreadyCompleted marks an idempotent re-unlock of a checkpoint the
	// team has already completed: a no-op success, not an error.
	AlreadyCompleted bool
	// NextIndex is the team's pointer after the unlock is applied.
	NextIndex int
	// DistanceM is the measured distance to the checkpoint center, when a
	// position was consulted. Negative when geofencing was bypassed.
	DistanceM float64
}

// ValidateUnlock applies the unlock rules for a team attempting
// checkpointID: the session must be active, the checkpoint must be the
// team's current one (no skipping), and unless the session runs in test mode
// the team's last trusted position must fall within the checkpoint's unlock
// radius. Re-unlocking an already-completed checkpoint is a no-op success.
//
// accuracyCeilingM gates low-quality fixes; zero disables the gate.
func ValidateUnlock(session Session, team Team, checkpoints []Checkpoint, checkpointID string, accuracyCeilingM float64) (UnlockDecision, error) {
	if !session.Status.AllowsPlay() {
		return UnlockDecision{}, ErrNotActive
	}

	if team.HasCompleted(checkpointID) {
		return UnlockDecision{
			AlreadyCompleted: true,
			NextIndex:        team.CurrentCheckpointIndex,
			DistanceM:        -1,
		}, nil
	}

	if team.CurrentCheckpointIndex >= len(checkpoints) {
		return UnlockDecision{}, ErrOutOfOrder
	}
	current := checkpoints[team.CurrentCheckpointIndex]
	if current.ID != checkpointID {
		return UnlockDecision{}, ErrOutOfOrder
	}

	dec := UnlockDecision{
		Checkpoint: current,
		NextIndex:  team.CurrentCheckpointIndex + 1,
		DistanceM:  -1,
	}

	if session.TestMode {
		return dec, nil
	}

	if team.LastFix == nil || !team.LastFix.Trusted(accuracyCeilingM) {
		return UnlockDecision{}, ErrNoPosition
	}

	dec.DistanceM = geo.DistanceMeters(team.LastFix.Point, current.Center)
	if dec.DistanceM > current.RadiusM {
		return UnlockDecision{}, &TooFarError{DistanceM: dec.DistanceM, RadiusM: current.RadiusM}
	}
	return dec, nil
}

// ValidateSubmission applies the submission preconditions: the session must
// be active, at least one of answer/photo must be present, and the
// checkpoint must be one the team has unlocked. Duplicate scoring is caught
// here when alreadyScored is known, and again by the store's unique
// constraint at commit time.
func ValidateSubmission(session Session, team Team, checkpointID, answer, photoRef string, alreadyScored bool) error {
	if !session.Status.AllowsPlay() {
		return ErrNotActive
	}
	if answer == "" && photoRef == "" {
		return ErrInvalidInput
	}
	if !team.HasCompleted(checkpointID) {
		return ErrOutOfOrder
	}
	if alreadyScored {
		return ErrAlreadyScored
	}
	return nil
}
