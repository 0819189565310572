package featherquery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Mehemmed77/FeatherQuery/codec"
	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// PageFetcher loads the page identified by param.
type PageFetcher[P, V any] func(ctx context.Context, param P) (V, error)

// Pages is what an InfiniteQuery has accumulated, first page first.
// Params[i] identifies Pages[i].
type Pages[P, V any] struct {
	Pages  []V
	Params []P
}

// InfiniteOptions tune an InfiniteQuery. Zero values fall back to the
// Client's settings like QueryOptions.
type InfiniteOptions[P comparable, V any] struct {
	// NextPageParam derives the page after last; ok=false means there is
	// none. Required.
	NextPageParam func(last P) (next P, ok bool)
	// PreviousPageParam derives the page before first. Nil disables
	// FetchPreviousPage.
	PreviousPageParam func(first P) (prev P, ok bool)

	Codec     codec.Codec[V] // nil => codec.JSON[V]
	StaleTime time.Duration
	Mode      store.Mode
	Timeout   time.Duration

	OnSuccess func(p Pages[P, V])
	OnError   func(err error)
	OnSettled func(p Pages[P, V], err error)
}

// InfiniteResult is the outcome of a page fetch. Data holds every page
// accumulated so far, including the one just fetched.
type InfiniteResult[P, V any] struct {
	Data       Pages[P, V]
	FromCache  bool
	Stale      bool
	Superseded bool
}

// InfiniteQuery accumulates pages of a paginated resource. Each page is
// cached on its own under the query key extended by the page param, so
// invalidating the query key drops every page. Page fetches share one race
// scope: a newer fetch supersedes an older one still in flight.
type InfiniteQuery[P comparable, V any] struct {
	subscription

	base    keys.Key
	key     keys.Canonical
	initial P
	fetcher PageFetcher[P, V]
	codec   codec.Codec[V]
	mode    store.Mode
	stale   time.Duration
	opts    InfiniteOptions[P, V]
	log     Logger

	// changed only inside scope commits; pmu guards reads
	pmu    sync.Mutex
	pages  []V
	params []P
}

var errNoNextPageParam = errors.New("featherquery: NextPageParam is required")

// NewInfiniteQuery subscribes to the pages under key, starting at initial.
// The key and the initial page key must encode.
func NewInfiniteQuery[P comparable, V any](c *Client, key keys.Key, initial P, fetcher PageFetcher[P, V], opts InfiniteOptions[P, V]) (*InfiniteQuery[P, V], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if fetcher == nil {
		return nil, ErrNilProducer
	}
	if opts.NextPageParam == nil {
		return nil, errNoNextPageParam
	}
	k, err := keys.Encode(key)
	if err != nil {
		return nil, err
	}

	q := &InfiniteQuery[P, V]{
		subscription: subscription{c: c},
		base:         slices.Clone(key),
		key:          k,
		initial:      initial,
		fetcher:      fetcher,
		opts:         opts,
	}
	if _, err := q.pageKey(initial); err != nil {
		return nil, err
	}
	q.codec = coalesce[codec.Codec[V]](opts.Codec, codec.JSON[V]{})
	q.mode = c.resolveMode(opts.Mode)
	q.stale = coalesce(opts.StaleTime, c.staleTime)
	q.name, q.scope = c.scope("infinite", k.String())
	q.log = c.log.With(Fields{"key": k.String(), "mode": string(q.mode)})
	return q, nil
}

func (q *InfiniteQuery[P, V]) Key() keys.Canonical { return q.key }

// Data returns a copy of the accumulated pages.
func (q *InfiniteQuery[P, V]) Data() Pages[P, V] {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	return Pages[P, V]{Pages: slices.Clone(q.pages), Params: slices.Clone(q.params)}
}

// FetchNextPage fetches the initial page when nothing is loaded, otherwise
// the page after the last one. It returns ErrNoPage when NextPageParam
// reports no further page.
func (q *InfiniteQuery[P, V]) FetchNextPage(ctx context.Context) (InfiniteResult[P, V], error) {
	q.pmu.Lock()
	n := len(q.params)
	param := q.initial
	if n > 0 {
		param = q.params[n-1]
	}
	q.pmu.Unlock()

	if n > 0 {
		next, ok := q.opts.NextPageParam(param)
		if !ok {
			return InfiniteResult[P, V]{Data: q.Data()}, ErrNoPage
		}
		param = next
	}
	return q.fetchPage(ctx, param, false)
}

// FetchPreviousPage fetches the page before the first one. It returns
// ErrNoPage when nothing is loaded yet, PreviousPageParam is unset or it
// reports no earlier page.
func (q *InfiniteQuery[P, V]) FetchPreviousPage(ctx context.Context) (InfiniteResult[P, V], error) {
	q.pmu.Lock()
	n := len(q.params)
	var first P
	if n > 0 {
		first = q.params[0]
	}
	q.pmu.Unlock()

	if n == 0 || q.opts.PreviousPageParam == nil {
		return InfiniteResult[P, V]{Data: q.Data()}, ErrNoPage
	}
	prev, ok := q.opts.PreviousPageParam(first)
	if !ok {
		return InfiniteResult[P, V]{Data: q.Data()}, ErrNoPage
	}
	return q.fetchPage(ctx, prev, true)
}

// Reset drops the accumulated pages and supersedes any fetch in flight.
// Cached pages stay in the store.
func (q *InfiniteQuery[P, V]) Reset() {
	q.supersede()
	q.scope.Commit(q.scope.Current(), func() {
		q.pmu.Lock()
		q.pages, q.params = nil, nil
		q.pmu.Unlock()
	})
}

// Close cancels the in-flight fetch and releases the subscription. The
// accumulated pages stay readable through Data.
func (q *InfiniteQuery[P, V]) Close() { q.close() }

func (q *InfiniteQuery[P, V]) pageKey(param P) (keys.Canonical, error) {
	k := make(keys.Key, 0, len(q.base)+1)
	k = append(append(k, q.base...), param)
	ck, err := keys.Encode(k)
	if err != nil {
		return "", fmt.Errorf("featherquery: page param %v: %w", param, err)
	}
	return ck, nil
}

// place puts v at param's slot, or adds it at the front or the back.
// Callers hold the scope lock.
func (q *InfiniteQuery[P, V]) place(param P, v V, front bool) {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	if i := slices.Index(q.params, param); i >= 0 {
		q.pages[i] = v
		return
	}
	if front {
		q.pages = slices.Insert(q.pages, 0, v)
		q.params = slices.Insert(q.params, 0, param)
		return
	}
	q.pages = append(q.pages, v)
	q.params = append(q.params, param)
}

func (q *InfiniteQuery[P, V]) fetchPage(ctx context.Context, param P, front bool) (InfiniteResult[P, V], error) {
	ck, err := q.pageKey(param)
	if err != nil {
		return InfiniteResult[P, V]{Data: q.Data()}, err
	}
	r, err := q.begin(ctx)
	if err != nil {
		return InfiniteResult[P, V]{}, err
	}

	if v, e, ok := readCached(q.c, q.mode, ck, q.codec, q.log); ok {
		if !q.scope.Commit(r.id, func() { q.place(param, v, front) }) {
			r.cancel()
			q.dropped(ck, r.id, q.log)
			return InfiniteResult[P, V]{Superseded: true}, nil
		}
		if !store.IsStaleAt(&e, q.stale, q.c.now()) {
			r.cancel()
			return InfiniteResult[P, V]{Data: q.Data(), FromCache: true}, nil
		}
		if !q.c.goBackground(func() { _, _ = q.settle(r, ck, param, front, nil) }) {
			r.cancel()
		}
		return InfiniteResult[P, V]{Data: q.Data(), FromCache: true, Stale: true}, nil
	}

	stop := context.AfterFunc(ctx, r.cancel)
	defer stop()
	return q.settle(r, ck, param, front, ctx)
}

// settle runs the fetcher for r and commits the page iff r is still the
// latest request. caller is nil for background revalidations.
func (q *InfiniteQuery[P, V]) settle(r *request, ck keys.Canonical, param P, front bool, caller context.Context) (InfiniteResult[P, V], error) {
	defer r.cancel()

	v, err := q.call(r.ctx, param)
	if err != nil && r.ctx.Err() != nil {
		if ierr := q.interrupted(r.id, caller); ierr != nil {
			return InfiniteResult[P, V]{}, ierr
		}
		return InfiniteResult[P, V]{Superseded: true}, nil
	}

	var payload []byte
	if err == nil {
		if payload, err = q.codec.Encode(v); err != nil {
			err = fmt.Errorf("encode page: %w", err)
		}
	}
	if err != nil {
		return q.fail(r, ck, err)
	}

	now := q.c.now()
	var setErr error
	committed := q.scope.Commit(r.id, func() {
		setErr = q.c.mgr.Store(q.mode).Set(ck, store.Entry{
			Payload:        payload,
			WrittenAt:      now,
			LastAccessedAt: now,
		})
		q.place(param, v, front)
	})
	if !committed {
		q.dropped(ck, r.id, q.log)
		return InfiniteResult[P, V]{Superseded: true}, nil
	}
	if setErr != nil {
		q.log.Warn("page commit not persisted", Fields{"id": r.id, "page": ck.String(), "err": setErr})
	}

	data := q.Data()
	if q.opts.OnSuccess != nil {
		q.opts.OnSuccess(data)
	}
	if q.opts.OnSettled != nil {
		q.opts.OnSettled(data, nil)
	}
	return InfiniteResult[P, V]{Data: data}, nil
}

func (q *InfiniteQuery[P, V]) fail(r *request, ck keys.Canonical, err error) (InfiniteResult[P, V], error) {
	if !q.scope.Commit(r.id, nil) {
		q.dropped(ck, r.id, q.log)
		return InfiniteResult[P, V]{Superseded: true}, nil
	}
	pe := &ProducerError{Key: ck.String(), ID: r.id, Err: err}
	q.c.hooks.ProducerFailed(pe.Key, err)
	q.log.Warn("page fetch failed", Fields{"id": r.id, "page": pe.Key, "err": err})

	data := q.Data()
	if q.opts.OnError != nil {
		q.opts.OnError(pe)
	}
	if q.opts.OnSettled != nil {
		q.opts.OnSettled(data, pe)
	}
	return InfiniteResult[P, V]{Data: data}, pe
}

func (q *InfiniteQuery[P, V]) call(ctx context.Context, param P) (V, error) {
	if q.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.Timeout)
		defer cancel()
	}
	return q.fetcher(ctx, param)
}
