// Package asynchook moves hook calls off request paths onto a bounded
// worker queue. Events that do not fit in the queue are dropped and
// counted.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{DroppedEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	client, _ := featherquery.New(featherquery.Options{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

type Hooks struct {
	inner   featherquery.Hooks
	q       chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards q against send-after-close
	closed  bool
	once    sync.Once
	dropped atomic.Uint64
}

var _ featherquery.Hooks = (*Hooks)(nil)

func New(inner featherquery.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) HydrateFailed(m string, err error) { h.try(func() { h.inner.HydrateFailed(m, err) }) }
func (h *Hooks) FlushFailed(m string, err error)   { h.try(func() { h.inner.FlushFailed(m, err) }) }
func (h *Hooks) Maintained(e, s int)               { h.try(func() { h.inner.Maintained(e, s) }) }
func (h *Hooks) SelfHeal(k, r string)              { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ResponseDropped(k string, id uint64) {
	h.try(func() { h.inner.ResponseDropped(k, id) })
}
func (h *Hooks) ProducerFailed(k string, err error) {
	h.try(func() { h.inner.ProducerFailed(k, err) })
}
