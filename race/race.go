// Package race resolves races between overlapping requests of one logical
// subscription.
//
// Every outgoing request is stamped with Next. When it completes, its
// result is applied through Commit, which runs only if no newer request was
// issued in the meantime. Commit holds the scope lock while applying, so a
// newer request cannot be stamped between the id check and the write.
package race

import (
	"sync"
	"time"
)

// Scope is a monotonic request-id counter for one subscription.
// The zero value is ready to use.
type Scope struct {
	mu      sync.Mutex
	id      uint64
	touched time.Time
}

// Next increments the counter and returns the new id.
func (s *Scope) Next() uint64 {
	s.mu.Lock()
	s.id++
	s.touched = time.Now()
	id := s.id
	s.mu.Unlock()
	return id
}

// Current returns the latest issued id (0 before the first Next).
func (s *Scope) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsCurrent reports whether id is still the latest issued id.
func (s *Scope) IsCurrent(id uint64) bool {
	return s.Current() == id
}

// Reset sets the counter back to zero. Ids issued before Reset can never
// commit afterwards unless the counter climbs back to them, so callers
// should cancel outstanding work first.
func (s *Scope) Reset() {
	s.mu.Lock()
	s.id = 0
	s.touched = time.Now()
	s.mu.Unlock()
}

// Commit runs apply iff id is the current id and reports whether it ran.
// apply must not call back into the same scope.
func (s *Scope) Commit(id uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || id != s.id {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}

func (s *Scope) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
