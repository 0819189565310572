package featherquery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/race"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// Mutation runs writes with retries. A new Mutate call supersedes the one
// still running: the older call is canceled and returns ErrSuperseded.
type Mutation[In, Out any] struct {
	c          *Client
	fn         MutateFunc[In, Out]
	opts       MutationOptions[In, Out]
	mode       store.Mode
	invalidate []keys.Canonical
	delay      func(attempt int) time.Duration
	name       string
	scope      *race.Scope
	log        Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func NewMutation[In, Out any](c *Client, fn MutateFunc[In, Out], opts MutationOptions[In, Out]) (*Mutation[In, Out], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if fn == nil {
		return nil, ErrNilProducer
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("featherquery: negative retries %d", opts.Retries)
	}
	inv := make([]keys.Canonical, 0, len(opts.InvalidateKeys))
	for _, k := range opts.InvalidateKeys {
		ck, err := keys.Encode(k)
		if err != nil {
			return nil, fmt.Errorf("featherquery: invalidate key: %w", err)
		}
		inv = append(inv, ck)
	}

	m := &Mutation[In, Out]{
		c:          c,
		fn:         fn,
		opts:       opts,
		mode:       c.resolveMode(opts.Mode),
		invalidate: inv,
		delay:      opts.RetryDelay,
	}
	if m.delay == nil {
		m.delay = DefaultRetryDelay
	}
	m.name, m.scope = c.scope("mutation", string(m.mode))
	m.log = c.log.With(Fields{"mutation": m.name})
	return m, nil
}

// Mutate runs the write, retrying failures up to Retries times. On success
// every InvalidateKeys prefix is deleted from the mode's store before
// OnSuccess runs.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	var zero Out
	id, mctx, cancel, err := m.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	out, attempts, err := m.attempt(mctx, in)
	if err != nil && mctx.Err() != nil {
		switch {
		case !m.scope.IsCurrent(id):
			return zero, ErrSuperseded
		case ctx.Err() != nil:
			return zero, ctx.Err()
		default:
			return zero, ErrClosed
		}
	}

	if err != nil {
		if !m.scope.Commit(id, nil) {
			m.c.hooks.ResponseDropped(m.name, id)
			return zero, ErrSuperseded
		}
		me := &MutationError{Attempts: attempts, Err: err}
		m.c.hooks.ProducerFailed(m.name, err)
		m.log.Warn("mutation failed", Fields{"id": id, "attempts": attempts, "err": err})
		if m.opts.OnError != nil {
			m.opts.OnError(me, in)
		}
		if m.opts.OnSettled != nil {
			m.opts.OnSettled(zero, me, in)
		}
		return zero, me
	}

	var invErr error
	if !m.scope.Commit(id, func() { invErr = m.invalidateAll() }) {
		m.c.hooks.ResponseDropped(m.name, id)
		m.log.Debug("dropped superseded mutation response", Fields{"id": id})
		return zero, ErrSuperseded
	}
	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(out, in)
	}
	if invErr != nil {
		me := &MutationError{Attempts: attempts, InvalidateErr: invErr}
		m.log.Warn("mutation invalidate failed", Fields{"id": id, "err": invErr})
		if m.opts.OnSettled != nil {
			m.opts.OnSettled(out, me, in)
		}
		return out, me
	}
	if m.opts.OnSettled != nil {
		m.opts.OnSettled(out, nil, in)
	}
	return out, nil
}

// Close cancels the running call, if any, and releases the subscription.
func (m *Mutation[In, Out]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	// reset first so the canceled request sees itself superseded
	m.scope.Reset()
	m.c.races.Release(m.name)
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Mutation[In, Out]) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.c.closed.Load() {
		return 0, nil, nil, ErrClosed
	}
	id := m.scope.Next()
	if m.cancel != nil {
		m.cancel()
	}
	mctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(m.c.ctx, cancel)
	m.cancel = func() { stop(); cancel() }
	return id, mctx, m.cancel, nil
}

// attempt calls fn until it succeeds, retries run out or ctx ends.
func (m *Mutation[In, Out]) attempt(ctx context.Context, in In) (Out, int, error) {
	for n := 1; ; n++ {
		out, err := m.fn(ctx, in)
		if err == nil || ctx.Err() != nil || n > m.opts.Retries {
			return out, n, err
		}
		d := m.delay(n)
		m.log.Debug("mutation failed; retrying", Fields{"attempt": n, "delay": d, "err": err})

		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return out, n, ctx.Err()
		}
	}
}

func (m *Mutation[In, Out]) invalidateAll() error {
	st := m.c.mgr.Store(m.mode)
	var errs []error
	for _, k := range m.invalidate {
		if err := st.Delete(k, false); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
