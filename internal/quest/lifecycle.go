package quest

// transitions is the session lifecycle table:
// draft -> lobby -> active <-> paused -> completed, with cancelled reachable
// from any non-terminal state. Completed and cancelled are absorbing.
var transitions = map[SessionStatus][]SessionStatus{
	StatusDraft:  {StatusLobby, StatusCancelled},
	StatusLobby:  {StatusActive, StatusCancelled},
	StatusActive: {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused: {StatusActive, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal operator-driven
// lifecycle transition.
func CanTransition(from, to SessionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns a TransitionError when the
// move is not in the lifecycle table.
func Transition(from, to SessionStatus) (SessionStatus, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

// AllowsPlay reports whether progression and evaluation calls may proceed.
// Only the active state permits them; paused fails fast rather than queue.
func (s SessionStatus) AllowsPlay() bool {
	return s == StatusActive
}
