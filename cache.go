package featherquery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/race"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// Client owns the stores and the request-race registry shared by every
// Query and Mutation built on it.
type Client struct {
	mgr   *store.Manager
	races *race.Registry
	log   Logger
	hooks Hooks

	staleTime time.Duration
	mode      store.Mode
	now       func() time.Time

	flights singleflight.Group
	seq     atomic.Uint64

	// ctx is canceled on Close; every producer context is bound to it.
	ctx       context.Context
	cancel    context.CancelFunc
	bgMu      sync.Mutex // orders bg.Add against Close
	bg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func New(opts Options) (*Client, error) {
	c := &Client{}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.staleTime = coalesce(opts.StaleTime, DefaultStaleTime)
	c.mode = coalesce(opts.CacheMode, store.ModeVolatile)
	if opts.Now != nil {
		c.now = opts.Now
	} else {
		c.now = time.Now
	}

	mopts := opts.Manager
	mopts.Observer = &observer{log: c.log, hooks: c.hooks, next: opts.Manager.Observer}
	if mopts.Now == nil {
		mopts.Now = opts.Now
	}
	mgr, err := store.NewManager(mopts)
	if err != nil {
		return nil, fmt.Errorf("featherquery: %w", err)
	}
	c.mgr = mgr
	c.races = race.NewRegistry(
		coalesce(opts.RaceSweep, defaultRaceSweep),
		coalesce(opts.RaceRetention, defaultRaceRetention),
	)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Close cancels in-flight producers, waits for background revalidations,
// then flushes and closes the stores. Repeated calls return the first result.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.bgMu.Lock()
		c.closed.Store(true)
		c.bgMu.Unlock()
		c.cancel()
		c.bg.Wait()
		c.races.Close()
		c.closeErr = c.mgr.Close(ctx)
		if c.closeErr != nil {
			c.log.Error("close failed", Fields{"err": c.closeErr})
		}
	})
	return c.closeErr
}

// Store returns the store for mode ("" => the client's default mode).
func (c *Client) Store(mode store.Mode) store.Store {
	return c.mgr.Store(c.resolveMode(mode))
}

// Manager exposes the underlying stores, e.g. for Inspect.
func (c *Client) Manager() *store.Manager { return c.mgr }

// Invalidate deletes the entry under prefix (exact) or every entry whose
// key starts with prefix from the mode's store. An empty prefix with
// exact=false clears the store.
func (c *Client) Invalidate(mode store.Mode, prefix keys.Key, exact bool) error {
	if c.closed.Load() {
		return ErrClosed
	}
	k, err := keys.Encode(prefix)
	if err != nil {
		return err
	}
	mode = c.resolveMode(mode)
	if err := c.mgr.Store(mode).Delete(k, exact); err != nil {
		return err
	}
	c.log.Debug("invalidated", Fields{"mode": string(mode), "prefix": k.String(), "exact": exact})
	return nil
}

// InFlight returns the latest request id of every live subscription,
// keyed by subscription name.
func (c *Client) InFlight() map[string]uint64 {
	return c.races.Snapshot()
}

func (c *Client) resolveMode(m store.Mode) store.Mode {
	return coalesce(m, c.mode)
}

// scope registers a fresh race scope for one subscription.
func (c *Client) scope(kind, label string) (string, *race.Scope) {
	name := fmt.Sprintf("%s:%s#%d", kind, label, c.seq.Add(1))
	return name, c.races.Scope(name)
}

// goBackground runs fn tracked by Close. It reports false once closed.
func (c *Client) goBackground(fn func()) bool {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn()
	}()
	return true
}
