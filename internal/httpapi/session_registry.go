package httpapi

import (
	"sync"
	"sync/atomic"
)

// SessionRegistry tracks active audio sessions by ID and supports graceful
// draining. When draining is enabled, new sessions are rejected while
// in-flight sessions finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic in Add(), preventing
// a TOCTOU race where StartDraining+Wait could be called between the draining
// check and wg.Add.
type SessionRegistry struct {
	mu       sync.Mutex
	draining bool
	sessions map[string]struct{}
	wg       sync.WaitGroup
	count    atomic.Int64
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]struct{})}
}

// Add registers a new active session under id. Returns false if the registry
// is draining, meaning no new sessions should be accepted. The draining check
// and WaitGroup increment are performed atomically under a mutex.
func (sr *SessionRegistry) Add(id string) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.draining {
		return false
	}
	sr.sessions[id] = struct{}{}
	sr.wg.Add(1)
	sr.count.Add(1)
	return true
}

// Done removes a session. Must be called exactly once per successful Add.
func (sr *SessionRegistry) Done(id string) {
	sr.mu.Lock()
	delete(sr.sessions, id)
	sr.mu.Unlock()
	sr.count.Add(-1)
	sr.wg.Done()
}

// active reports whether a session with the given ID is currently registered.
func (sr *SessionRegistry) active(id string) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	_, ok := sr.sessions[id]
	return ok
}

// StartDraining sets the draining flag so that future Add calls return false.
// Safe to call concurrently with Add; the mutex ensures no Add can slip
// through after StartDraining returns.
func (sr *SessionRegistry) StartDraining() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.draining = true
}

// IsDraining reports whether the registry is in draining mode.
func (sr *SessionRegistry) IsDraining() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.draining
}

// ActiveCount returns the number of currently active sessions.
func (sr *SessionRegistry) ActiveCount() int64 {
	return sr.count.Load()
}

// Wait blocks until all active sessions have completed (all Done calls matched
// Add calls).
func (sr *SessionRegistry) Wait() {
	sr.wg.Wait()
}
