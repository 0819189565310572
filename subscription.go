package featherquery

import (
	"context"
	"sync"

	"github.com/Mehemmed77/FeatherQuery/codec"
	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/race"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// subscription is the request bookkeeping shared by Query and
// InfiniteQuery: one race scope and the in-flight request's cancel func.
type subscription struct {
	c     *Client
	name  string
	scope *race.Scope

	mu     sync.Mutex
	cancel context.CancelFunc // in-flight request
	closed bool
}

// request is one stamped producer call.
type request struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// begin cancels the previous request and stamps a new one. The request
// context keeps ctx's values but not its cancellation; it ends when a newer
// request starts, the subscription or client closes, or cancel is called.
func (s *subscription) begin(ctx context.Context) (*request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.c.closed.Load() {
		return nil, ErrClosed
	}
	// stamp before canceling so the old request sees itself superseded
	id := s.scope.Next()
	if s.cancel != nil {
		s.cancel()
	}
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.c.ctx, cancel)
	r := &request{
		id:     id,
		ctx:    rctx,
		cancel: func() { stop(); cancel() },
	}
	s.cancel = r.cancel
	return r, nil
}

// supersede stamps a new id without starting a request, so whatever is in
// flight gets dropped.
func (s *subscription) supersede() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope.Next()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	// reset first so the canceled request sees itself superseded
	s.scope.Reset()
	s.c.races.Release(s.name)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// interrupted classifies a request whose context ended: nil when a newer
// request superseded it, the caller's error when the caller gave up,
// ErrClosed otherwise.
func (s *subscription) interrupted(id uint64, caller context.Context) error {
	switch {
	case !s.scope.IsCurrent(id):
		return nil
	case caller != nil && caller.Err() != nil:
		return caller.Err()
	default:
		return ErrClosed
	}
}

func (s *subscription) dropped(key keys.Canonical, id uint64, log Logger) {
	s.c.hooks.ResponseDropped(key.String(), id)
	log.Debug("dropped superseded response", Fields{"id": id})
}

// readCached reads and decodes key from the mode's store. Undecodable
// entries are deleted.
func readCached[V any](c *Client, mode store.Mode, key keys.Canonical, cd codec.Codec[V], log Logger) (V, store.Entry, bool) {
	var zero V
	st := c.mgr.Store(mode)
	e, ok := st.Get(key)
	if !ok {
		return zero, e, false
	}
	v, err := cd.Decode(e.Payload)
	if err != nil {
		if derr := st.Delete(key, true); derr != nil {
			log.Warn("self-heal delete failed", Fields{"key": key.String(), "err": derr})
		}
		c.hooks.SelfHeal(key.String(), "value_decode")
		log.Warn("dropped undecodable entry", Fields{"key": key.String(), "err": err})
		return zero, e, false
	}
	return v, e, true
}
