package featherquery

import (
	"context"
	"fmt"
	"time"

	"github.com/Mehemmed77/FeatherQuery/codec"
	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// Query is one subscription to a keyed value. Each Fetch supersedes the
// previous one: its producer is canceled and its response, if it still
// arrives, is dropped.
type Query[V any] struct {
	subscription

	key      keys.Canonical
	producer Producer[V]
	codec    codec.Codec[V]
	mode     store.Mode
	stale    time.Duration
	opts     QueryOptions[V]
	log      Logger
}

// NewQuery subscribes to key. Key encoding errors surface here.
func NewQuery[V any](c *Client, key keys.Key, producer Producer[V], opts QueryOptions[V]) (*Query[V], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if producer == nil {
		return nil, ErrNilProducer
	}
	k, err := keys.Encode(key)
	if err != nil {
		return nil, err
	}

	q := &Query[V]{
		subscription: subscription{c: c},
		key:          k,
		producer:     producer,
		opts:         opts,
	}
	q.codec = coalesce[codec.Codec[V]](opts.Codec, codec.JSON[V]{})
	q.mode = c.resolveMode(opts.Mode)
	q.stale = coalesce(opts.StaleTime, c.staleTime)
	q.name, q.scope = c.scope("query", k.String())
	q.log = c.log.With(Fields{"key": k.String(), "mode": string(q.mode)})
	return q, nil
}

func (q *Query[V]) Key() keys.Canonical { return q.key }
func (q *Query[V]) Mode() store.Mode    { return q.mode }

// Fetch serves a fresh cached value, or a stale one while revalidating in
// the background, or waits for the producer on a miss.
func (q *Query[V]) Fetch(ctx context.Context) (Result[V], error) {
	return q.fetch(ctx, false)
}

// Refetch ignores the cache and waits for the producer, as a polling tick
// would.
func (q *Query[V]) Refetch(ctx context.Context) (Result[V], error) {
	return q.fetch(ctx, true)
}

// Close cancels the in-flight request and releases the subscription.
// Responses still arriving afterwards are dropped.
func (q *Query[V]) Close() { q.close() }

func (q *Query[V]) fetch(ctx context.Context, force bool) (Result[V], error) {
	r, err := q.begin(ctx)
	if err != nil {
		return Result[V]{}, err
	}

	if !force {
		if v, e, ok := q.cached(); ok {
			if !store.IsStaleAt(&e, q.stale, q.c.now()) {
				r.cancel()
				return Result[V]{Value: v, FromCache: true}, nil
			}
			if !q.c.goBackground(func() { _, _ = q.settle(r, nil) }) {
				r.cancel()
			}
			return Result[V]{Value: v, FromCache: true, Stale: true}, nil
		}
	}

	stop := context.AfterFunc(ctx, r.cancel)
	defer stop()
	return q.settle(r, ctx)
}

func (q *Query[V]) cached() (V, store.Entry, bool) {
	return readCached(q.c, q.mode, q.key, q.codec, q.log)
}

// settle runs the producer for r and commits the outcome iff r is still the
// latest request. caller is nil for background revalidations.
func (q *Query[V]) settle(r *request, caller context.Context) (Result[V], error) {
	defer r.cancel()

	v, err := q.produce(r.ctx)
	if err != nil && r.ctx.Err() != nil {
		return q.canceled(r, caller)
	}

	var payload []byte
	if err == nil {
		if payload, err = q.codec.Encode(v); err != nil {
			err = fmt.Errorf("encode value: %w", err)
		}
	}
	if err != nil {
		return q.fail(r, err)
	}

	now := q.c.now()
	var setErr error
	committed := q.scope.Commit(r.id, func() {
		setErr = q.c.mgr.Store(q.mode).Set(q.key, store.Entry{
			Payload:        payload,
			WrittenAt:      now,
			LastAccessedAt: now,
		})
	})
	if !committed {
		q.dropped(r.id)
		return Result[V]{Superseded: true}, nil
	}
	if setErr != nil {
		// the entry stays resident; the observer already reported the flush
		q.log.Warn("commit not persisted", Fields{"id": r.id, "err": setErr})
	}

	if q.opts.OnSuccess != nil {
		q.opts.OnSuccess(v)
	}
	if q.opts.OnSettled != nil {
		q.opts.OnSettled(v, nil)
	}
	return Result[V]{Value: v}, nil
}

func (q *Query[V]) fail(r *request, err error) (Result[V], error) {
	if !q.scope.Commit(r.id, nil) {
		q.dropped(r.id)
		return Result[V]{Superseded: true}, nil
	}
	pe := &ProducerError{Key: q.key.String(), ID: r.id, Err: err}
	q.c.hooks.ProducerFailed(pe.Key, err)
	q.log.Warn("producer failed", Fields{"id": r.id, "err": err})

	if q.opts.OnError != nil {
		q.opts.OnError(pe)
	}
	if q.opts.OnSettled != nil {
		var zero V
		q.opts.OnSettled(zero, pe)
	}
	return Result[V]{}, pe
}

// canceled handles a producer that stopped because its context ended.
// Cancellation never reaches the cache or the callbacks.
func (q *Query[V]) canceled(r *request, caller context.Context) (Result[V], error) {
	if err := q.interrupted(r.id, caller); err != nil {
		return Result[V]{}, err
	}
	q.log.Debug("request canceled by a newer one", Fields{"id": r.id})
	return Result[V]{Superseded: true}, nil
}

func (q *Query[V]) dropped(id uint64) { q.subscription.dropped(q.key, id, q.log) }

func (q *Query[V]) produce(ctx context.Context) (V, error) {
	if !q.opts.Dedupe {
		return q.call(ctx)
	}

	var zero V
	ch := q.c.flights.DoChan(string(q.mode)+"|"+string(q.key), func() (any, error) {
		// the shared call must outlive the subscriber that started it
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		stop := context.AfterFunc(q.c.ctx, cancel)
		defer func() { stop(); cancel() }()
		return q.call(sctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Val == nil {
			return zero, nil
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("featherquery: shared result for %s is %T", q.key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (q *Query[V]) call(ctx context.Context) (V, error) {
	if q.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.Timeout)
		defer cancel()
	}
	return q.producer(ctx)
}
