package server

import "sync"

// teamLocks serializes progression operations per team. Unlock and score
// submission for the same team must not interleave; different teams never
// contend. The database CAS on current_checkpoint_index is the real
// invariant, the lock keeps the common path free of retry loops.
//
// Entries are reference counted and removed once the last holder releases,
// so the map stays proportional to in-flight requests rather than to every
// team that ever played.
type teamLocks struct {
	mu    sync.Mutex
	locks map[string]*teamLock
}

type teamLock struct {
	sync.Mutex
	refs int
}

func newTeamLocks() *teamLocks {
	return &teamLocks{locks: make(map[string]*teamLock)}
}

func (t *teamLocks) lock(teamID string) func() {
	t.mu.Lock()
	m, ok := t.locks[teamID]
	if !ok {
		m = &teamLock{}
		t.locks[teamID] = m
	}
	m.refs++
	t.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		t.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(t.locks, teamID)
		}
		t.mu.Unlock()
	}
}
