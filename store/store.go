// Package store implements the keyed cache stores and the manager that
// owns them.
//
// Three stores share one contract: Volatile (in-memory, LRU-bounded by
// periodic maintenance) and two Persistent stores, session and permanent,
// which hydrate from a durable medium on construction and write their full
// entry map back on every mutation and on Close.
//
// All stores are safe for concurrent use. No store method blocks on caller
// code; producers run outside the stores entirely.
package store

import (
	"context"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
)

// Record pairs a canonical key with its entry.
type Record struct {
	Key   keys.Canonical
	Entry Entry
}

// Store is the contract consumed by the fetch layer.
type Store interface {
	// Get returns the entry under key and stamps the access.
	Get(key keys.Canonical) (Entry, bool)
	// Set inserts or overwrites key. A zero WrittenAt is set to now.
	Set(key keys.Canonical, e Entry) error
	// Delete removes the entry equal to prefix (exact) or every entry
	// prefixed by it. An empty prefix with exact=false clears the store.
	Delete(prefix keys.Canonical, exact bool) error
	DeleteAll() error
	// GetAll returns a snapshot of every resident entry.
	GetAll() []Record
	Len() int
	Close(ctx context.Context) error
}

// Observer receives store-level events. Implementations must be cheap.
type Observer interface {
	HydrateFailed(mode Mode, err error)
	FlushFailed(mode Mode, err error)
	Maintained(expired, softEvicted int)
}

type nopObserver struct{}

func (nopObserver) HydrateFailed(Mode, error) {}
func (nopObserver) FlushFailed(Mode, error)   {}
func (nopObserver) Maintained(int, int)       {}

// Mode selects one of the manager's stores.
type Mode string

const (
	ModeVolatile  Mode = "volatile"
	ModeSession   Mode = "session"
	ModePermanent Mode = "permanent"
)

func nowFunc(f func() time.Time) func() time.Time {
	if f != nil {
		return f
	}
	return time.Now
}

// deleteMatching is the shared scan behind Delete for map-backed stores.
// remove is called for every matching key; exact stops at the first match.
func deleteMatching[E any](m map[keys.Canonical]E, prefix keys.Canonical, exact bool, remove func(keys.Canonical)) int {
	if exact {
		if _, ok := m[prefix]; ok {
			remove(prefix)
			return 1
		}
		return 0
	}
	var victims []keys.Canonical
	for k := range m {
		if k.HasPrefix(prefix) {
			victims = append(victims, k)
		}
	}
	for _, k := range victims {
		remove(k)
	}
	return len(victims)
}
