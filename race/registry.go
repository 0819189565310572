package race

import (
	"sync"
	"time"
)

// Registry hands out named scopes so the owner can inspect every live
// subscription. Scopes not touched for the retention period are pruned by
// an optional cleanup loop.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string]*Scope

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRegistry creates a registry. With cleanupInterval and retention both
// positive, idle scopes are pruned in the background until Close.
func NewRegistry(cleanupInterval, retention time.Duration) *Registry {
	r := &Registry{scopes: make(map[string]*Scope)}
	if cleanupInterval > 0 && retention > 0 {
		r.ticker = time.NewTicker(cleanupInterval)
		r.stopCh = make(chan struct{})
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-r.ticker.C:
					r.Cleanup(retention)
				case <-r.stopCh:
					return
				}
			}
		}()
	}
	return r
}

// Scope returns the scope registered under name, creating it on first use.
func (r *Registry) Scope(name string) *Scope {
	r.mu.RLock()
	s, ok := r.scopes[name]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.scopes[name]; ok {
		return s
	}
	s = &Scope{touched: time.Now()}
	r.scopes[name] = s
	return s
}

// Release resets and forgets the scope under name.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	s, ok := r.scopes[name]
	delete(r.scopes, name)
	r.mu.Unlock()
	if ok {
		s.Reset()
	}
}

// Snapshot returns the current id of every registered scope.
func (r *Registry) Snapshot() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.scopes))
	for name, s := range r.scopes {
		out[name] = s.Current()
	}
	return out
}

// Len returns the number of registered scopes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scopes)
}

// Cleanup forgets scopes that were not touched within retention.
// A pruned scope keeps working for whoever still holds it.
func (r *Registry) Cleanup(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for name, s := range r.scopes {
		if s.lastTouched().Before(cutoff) {
			delete(r.scopes, name)
			removed++
		}
	}
	return removed
}

// Close stops the cleanup loop. Safe to call multiple times.
func (r *Registry) Close() {
	r.once.Do(func() {
		if r.stopCh != nil {
			close(r.stopCh)
			r.ticker.Stop()
			r.wg.Wait()
		}
	})
}
