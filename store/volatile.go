package store

import (
	"context"
	"sync"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
)

const (
	DefaultMaxSize    = 100
	DefaultGCInterval = time.Minute
	DefaultCacheTime  = 5 * time.Minute
)

// VolatileOptions configures a Volatile store.
type VolatileOptions struct {
	MaxSize    int           // soft capacity; <=0 => DefaultMaxSize
	GCInterval time.Duration // <=0 => no background maintenance (call Maintain)
	CacheTime  time.Duration // entries written longer ago are dropped by Maintain; 0 => keep
	Observer   Observer
	Now        func() time.Time
}

// node is an arena slot. prev/next name neighbouring keys; "" means none.
type node struct {
	entry Entry
	prev  keys.Canonical
	next  keys.Canonical
}

// Volatile is the in-memory store. Recency is tracked by a doubly linked
// list threaded through an arena keyed by canonical key: head is the most
// recently used entry, tail the least.
//
// Capacity is enforced by Maintain, never inline: overflowing entries are
// first soft-evicted (marked stale) and physically removed on their next
// Get or by a later Maintain pass.
type Volatile struct {
	mu        sync.Mutex
	nodes     map[keys.Canonical]*node
	head      keys.Canonical
	tail      keys.Canonical
	maxSize   int
	cacheTime time.Duration
	now       func() time.Time
	obs       Observer

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Store = (*Volatile)(nil)

// MaintenanceReport summarizes one Maintain pass.
type MaintenanceReport struct {
	Expired     int
	SoftEvicted int
}

func NewVolatile(opts VolatileOptions) *Volatile {
	v := &Volatile{
		nodes:     make(map[keys.Canonical]*node),
		maxSize:   opts.MaxSize,
		cacheTime: opts.CacheTime,
		now:       nowFunc(opts.Now),
		obs:       opts.Observer,
	}
	if v.maxSize <= 0 {
		v.maxSize = DefaultMaxSize
	}
	if v.obs == nil {
		v.obs = nopObserver{}
	}
	if opts.GCInterval > 0 {
		v.ticker = time.NewTicker(opts.GCInterval)
		v.stopCh = make(chan struct{})
		v.wg.Add(1)
		go v.maintenanceLoop()
	}
	return v
}

func (v *Volatile) maintenanceLoop() {
	defer v.wg.Done()
	for {
		select {
		case <-v.ticker.C:
			v.Maintain()
		case <-v.stopCh:
			return
		}
	}
}

func (v *Volatile) Get(key keys.Canonical) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, ok := v.nodes[key]
	if !ok {
		return Entry{}, false
	}
	if n.entry.SoftEvicted() {
		// second phase of eviction
		v.removeLocked(key)
		return Entry{}, false
	}
	n.entry.touch(v.now())
	v.moveToFrontLocked(key, n)
	return n.entry.clone(), true
}

func (v *Volatile) Set(key keys.Canonical, e Entry) error {
	now := v.now()
	if e.WrittenAt.IsZero() {
		e.WrittenAt = now
	}
	e = e.clone()
	e.touch(now)

	v.mu.Lock()
	defer v.mu.Unlock()

	if n, ok := v.nodes[key]; ok {
		n.entry = e
		v.moveToFrontLocked(key, n)
		return nil
	}
	n := &node{entry: e}
	v.nodes[key] = n
	v.pushFrontLocked(key, n)
	return nil
}

func (v *Volatile) Delete(prefix keys.Canonical, exact bool) error {
	if !exact && prefix.Empty() {
		return v.DeleteAll()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	deleteMatching(v.nodes, prefix, exact, v.removeLocked)
	return nil
}

func (v *Volatile) DeleteAll() error {
	v.mu.Lock()
	clear(v.nodes)
	v.head, v.tail = "", ""
	v.mu.Unlock()
	return nil
}

// GetAll returns every entry from most to least recently used. Traversal
// counts as access: every entry's LastAccessedAt is stamped, while the
// recency order itself is left unchanged.
func (v *Volatile) GetAll() []Record {
	now := v.now()
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Record, 0, len(v.nodes))
	for k := v.head; k != ""; {
		n := v.nodes[k]
		n.entry.touch(now)
		out = append(out, Record{Key: k, Entry: n.entry.clone()})
		k = n.next
	}
	return out
}

func (v *Volatile) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.nodes)
}

// Keys returns resident keys from most to least recently used without
// touching them.
func (v *Volatile) Keys() []keys.Canonical {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]keys.Canonical, 0, len(v.nodes))
	for k := v.head; k != ""; k = v.nodes[k].next {
		out = append(out, k)
	}
	return out
}

// Peek returns the entry under key without touching it.
func (v *Volatile) Peek(key keys.Canonical) (Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, ok := v.nodes[key]
	if !ok {
		return Entry{}, false
	}
	return n.entry.clone(), true
}

// Maintain runs one maintenance pass: entries written more than CacheTime
// ago are removed, then, if the store is still over capacity, the
// len-MaxSize entries closest to the tail are soft-evicted. Recency order,
// not timestamps, decides who goes first.
func (v *Volatile) Maintain() MaintenanceReport {
	now := v.now()
	var rep MaintenanceReport

	v.mu.Lock()
	if v.cacheTime > 0 {
		cutoff := now.Add(-v.cacheTime)
		var expired []keys.Canonical
		for k, n := range v.nodes {
			if n.entry.WrittenAt.Before(cutoff) {
				expired = append(expired, k)
			}
		}
		for _, k := range expired {
			v.removeLocked(k)
		}
		rep.Expired = len(expired)
	}

	overflow := len(v.nodes) - v.maxSize
	for k := v.tail; overflow > 0 && k != ""; overflow-- {
		n := v.nodes[k]
		if !n.entry.SoftEvicted() {
			n.entry.WrittenAt = Epoch
			rep.SoftEvicted++
		}
		k = n.prev
	}
	v.mu.Unlock()

	if rep.Expired > 0 || rep.SoftEvicted > 0 {
		v.obs.Maintained(rep.Expired, rep.SoftEvicted)
	}
	return rep
}

// Close stops background maintenance. Safe to call multiple times.
func (v *Volatile) Close(context.Context) error {
	v.once.Do(func() {
		if v.stopCh != nil {
			close(v.stopCh)
			v.ticker.Stop()
			v.wg.Wait()
		}
	})
	return nil
}

func (v *Volatile) pushFrontLocked(key keys.Canonical, n *node) {
	n.prev = ""
	n.next = v.head
	if v.head != "" {
		v.nodes[v.head].prev = key
	}
	v.head = key
	if v.tail == "" {
		v.tail = key
	}
}

func (v *Volatile) unlinkLocked(key keys.Canonical, n *node) {
	if n.prev != "" {
		v.nodes[n.prev].next = n.next
	} else {
		v.head = n.next
	}
	if n.next != "" {
		v.nodes[n.next].prev = n.prev
	} else {
		v.tail = n.prev
	}
	n.prev, n.next = "", ""
}

func (v *Volatile) moveToFrontLocked(key keys.Canonical, n *node) {
	if v.head == key {
		return
	}
	v.unlinkLocked(key, n)
	v.pushFrontLocked(key, n)
}

func (v *Volatile) removeLocked(key keys.Canonical) {
	n, ok := v.nodes[key]
	if !ok {
		return
	}
	v.unlinkLocked(key, n)
	delete(v.nodes, key)
}
