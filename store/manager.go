package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mehemmed77/FeatherQuery/medium"
	"github.com/Mehemmed77/FeatherQuery/snapshot"
)

var ErrDiagnosticsDisabled = errors.New("store: diagnostics disabled")

// ManagerOptions configures a Manager. Zero values pick defaults.
type ManagerOptions struct {
	MaxSize    int           // volatile soft capacity; 0 => DefaultMaxSize
	GCInterval time.Duration // volatile maintenance period; 0 => DefaultGCInterval, <0 => off
	CacheTime  time.Duration // volatile GC age; 0 => DefaultCacheTime, <0 => off

	SessionMedium   medium.Medium // nil => medium.NewMemory()
	PermanentMedium medium.Medium // nil => medium.NewMemory()
	StorageKey      string        // "" => DefaultStorageKey
	Format          snapshot.Format
	IOTimeout       time.Duration

	// Diagnostics enables Inspect.
	Diagnostics bool
	Observer    Observer
	Now         func() time.Time
}

// Manager owns one store per mode for the lifetime of a client.
type Manager struct {
	volatile    *Volatile
	session     *Persistent
	permanent   *Persistent
	diagnostics bool

	closeOnce sync.Once
	closeErr  error
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	gcInterval := opts.GCInterval
	if gcInterval == 0 {
		gcInterval = DefaultGCInterval
	}
	cacheTime := opts.CacheTime
	if cacheTime == 0 {
		cacheTime = DefaultCacheTime
	}
	sessionMed := opts.SessionMedium
	if sessionMed == nil {
		sessionMed = medium.NewMemory()
	}
	permanentMed := opts.PermanentMedium
	if permanentMed == nil {
		permanentMed = medium.NewMemory()
	}

	session, err := NewPersistent(PersistentOptions{
		Mode:       ModeSession,
		Medium:     sessionMed,
		StorageKey: opts.StorageKey,
		Format:     opts.Format,
		IOTimeout:  opts.IOTimeout,
		Observer:   opts.Observer,
		Now:        opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("store: session store: %w", err)
	}
	permanent, err := NewPersistent(PersistentOptions{
		Mode:       ModePermanent,
		Medium:     permanentMed,
		StorageKey: opts.StorageKey,
		Format:     opts.Format,
		IOTimeout:  opts.IOTimeout,
		Observer:   opts.Observer,
		Now:        opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("store: permanent store: %w", err)
	}

	return &Manager{
		volatile: NewVolatile(VolatileOptions{
			MaxSize:    opts.MaxSize,
			GCInterval: max(gcInterval, 0),
			CacheTime:  max(cacheTime, 0),
			Observer:   opts.Observer,
			Now:        opts.Now,
		}),
		session:     session,
		permanent:   permanent,
		diagnostics: opts.Diagnostics,
	}, nil
}

// Store resolves a mode. "" and ModeVolatile give the volatile store,
// ModeSession the session store, anything else the permanent store.
func (m *Manager) Store(mode Mode) Store {
	switch mode {
	case "", ModeVolatile:
		return m.volatile
	case ModeSession:
		return m.session
	default:
		return m.permanent
	}
}

func (m *Manager) Volatile() *Volatile    { return m.volatile }
func (m *Manager) Session() *Persistent   { return m.session }
func (m *Manager) Permanent() *Persistent { return m.permanent }

// Close stops maintenance and flushes both persisted stores concurrently.
// Repeated calls return the first result.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		_ = m.volatile.Close(ctx)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return m.session.Close(gctx) })
		g.Go(func() error { return m.permanent.Close(gctx) })
		m.closeErr = g.Wait()
	})
	return m.closeErr
}
