package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/medium"
	"github.com/Mehemmed77/FeatherQuery/snapshot"
)

// DefaultStorageKey is the medium key holding the serialized entry map.
const DefaultStorageKey = "featherquery.cache"

// PersistentOptions configures a Persistent store.
type PersistentOptions struct {
	Mode       Mode          // reported to the observer; defaults to ModePermanent
	Medium     medium.Medium // required
	StorageKey string        // defaults to DefaultStorageKey
	Format     snapshot.Format
	// IOTimeout bounds each medium call. 0 => no timeout.
	IOTimeout time.Duration
	Observer  Observer
	Now       func() time.Time
}

// Persistent is a store mirrored to a durable medium. It is not
// LRU-bounded. Every mutating call rewrites the whole snapshot, so callers
// should expect Set and Delete to cost a full serialization.
type Persistent struct {
	mu      sync.Mutex
	entries map[keys.Canonical]Entry
	dirty   bool // accesses since the last flush

	mode      Mode
	med       medium.Medium
	key       string
	format    snapshot.Format
	ioTimeout time.Duration
	obs       Observer
	now       func() time.Time
	closeOnce sync.Once
}

var _ Store = (*Persistent)(nil)

// NewPersistent builds the store and hydrates it from the medium. A
// missing, corrupt or foreign snapshot yields an empty store; hydration
// problems are reported to the observer and never returned.
func NewPersistent(opts PersistentOptions) (*Persistent, error) {
	if opts.Medium == nil {
		return nil, fmt.Errorf("store: medium is required")
	}
	p := &Persistent{
		entries:   make(map[keys.Canonical]Entry),
		mode:      opts.Mode,
		med:       opts.Medium,
		key:       opts.StorageKey,
		format:    opts.Format,
		ioTimeout: opts.IOTimeout,
		obs:       opts.Observer,
		now:       nowFunc(opts.Now),
	}
	if p.mode == "" {
		p.mode = ModePermanent
	}
	if p.key == "" {
		p.key = DefaultStorageKey
	}
	if p.format == nil {
		p.format = snapshot.JSON{}
	}
	if p.obs == nil {
		p.obs = nopObserver{}
	}
	p.hydrate()
	return p, nil
}

func (p *Persistent) ctx() (context.Context, context.CancelFunc) {
	if p.ioTimeout > 0 {
		return context.WithTimeout(context.Background(), p.ioTimeout)
	}
	return context.WithCancel(context.Background())
}

func (p *Persistent) hydrate() {
	ctx, cancel := p.ctx()
	defer cancel()

	raw, ok, err := p.med.GetItem(ctx, p.key)
	if err != nil {
		p.obs.HydrateFailed(p.mode, err)
		return
	}
	if !ok {
		return
	}
	records, err := p.format.Unmarshal(raw)
	if err != nil {
		p.obs.HydrateFailed(p.mode, err)
		return
	}
	for _, r := range records {
		// keys written elsewhere may not be canonical; exact lookups and
		// prefix matching need the encoded form
		k, err := keys.Normalize(keys.Canonical(r.Key))
		if err != nil || k.Empty() {
			p.obs.HydrateFailed(p.mode, fmt.Errorf("store: skipping snapshot key %q", r.Key))
			continue
		}
		e := Entry{
			Payload:        append([]byte(nil), r.Payload...),
			WrittenAt:      r.WrittenAt,
			LastAccessedAt: r.LastAccessedAt,
		}
		e.touch(e.LastAccessedAt)
		if prev, dup := p.entries[k]; dup && prev.WrittenAt.After(e.WrittenAt) {
			continue
		}
		p.entries[k] = e
	}
}

// flushLocked writes the full map to the medium.
func (p *Persistent) flushLocked() error {
	records := make([]snapshot.Record, 0, len(p.entries))
	for k, e := range p.entries {
		records = append(records, snapshot.Record{
			Key:            string(k),
			Payload:        e.Payload,
			WrittenAt:      e.WrittenAt,
			LastAccessedAt: e.LastAccessedAt,
		})
	}
	raw, err := p.format.Marshal(records)
	if err != nil {
		p.obs.FlushFailed(p.mode, err)
		return fmt.Errorf("store: encode %s snapshot: %w", p.mode, err)
	}

	ctx, cancel := p.ctx()
	defer cancel()
	if err := p.med.SetItem(ctx, p.key, raw); err != nil {
		p.obs.FlushFailed(p.mode, err)
		return fmt.Errorf("store: flush %s snapshot: %w", p.mode, err)
	}
	p.dirty = false
	return nil
}

// Get touches the entry in memory only. Access stamps reach the medium with
// the next mutating call, Flush or Close.
func (p *Persistent) Get(key keys.Canonical) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return Entry{}, false
	}
	e.touch(p.now())
	p.entries[key] = e
	p.dirty = true
	return e.clone(), true
}

// Set stores e and flushes. On flush failure the entry stays resident and
// the error is returned.
func (p *Persistent) Set(key keys.Canonical, e Entry) error {
	now := p.now()
	if e.WrittenAt.IsZero() {
		e.WrittenAt = now
	}
	e = e.clone()
	e.touch(now)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[key] = e
	return p.flushLocked()
}

func (p *Persistent) Delete(prefix keys.Canonical, exact bool) error {
	if !exact && prefix.Empty() {
		return p.DeleteAll()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := deleteMatching(p.entries, prefix, exact, func(k keys.Canonical) { delete(p.entries, k) })
	if n == 0 {
		return nil
	}
	return p.flushLocked()
}

// DeleteAll empties the store and clears the medium.
func (p *Persistent) DeleteAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.entries)
	p.dirty = false

	ctx, cancel := p.ctx()
	defer cancel()
	if err := p.med.Clear(ctx); err != nil {
		p.obs.FlushFailed(p.mode, err)
		return fmt.Errorf("store: clear %s medium: %w", p.mode, err)
	}
	return nil
}

// GetAll returns every entry without stamping accesses.
func (p *Persistent) GetAll() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, 0, len(p.entries))
	for k, e := range p.entries {
		out = append(out, Record{Key: k, Entry: e.clone()})
	}
	return out
}

func (p *Persistent) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Mode reports which manager slot the store fills.
func (p *Persistent) Mode() Mode { return p.mode }

// Flush writes the snapshot if accesses happened since the last write.
func (p *Persistent) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	return p.flushLocked()
}

// Close flushes pending access stamps and closes the medium.
func (p *Persistent) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		if ferr := p.Flush(); ferr != nil {
			err = ferr
		}
		if cerr := p.med.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
