package handler

import (
	"sync"
	"time"

	"github.com/pavelanni/interviewsim/internal/interview"
)

// sessionTTL is how long an idle interview stays in memory.
const sessionTTL = 6 * time.Hour

// session serializes all operations on one interview.
type session struct {
	mu       sync.Mutex
	ctrl     *interview.Controller
	archived bool
	lastUsed time.Time
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session), now: time.Now}
}

func (r *registry) add(ctrl *interview.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.sessions[ctrl.ID()] = &session{ctrl: ctrl, lastUsed: r.now()}
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// sweepLocked drops idle sessions. r.mu must be held.
func (r *registry) sweepLocked() {
	cutoff := r.now().Add(-sessionTTL)
	for id, s := range r.sessions {
		if !s.mu.TryLock() {
			continue
		}
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
		}
	}
}
