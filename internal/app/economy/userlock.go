package economy

import "sync"

// userLocks serializes writes per userId. Every balance update is a
// read-modify-write against the snapshot, so concurrent mission approvals,
// purchases, and check-ins for the same user must take turns; different
// users proceed in parallel. Reads never take these locks.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the given user's mutex and returns the release func.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
