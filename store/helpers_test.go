package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/medium"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingObserver struct {
	mu        sync.Mutex
	hydrate   []error
	flush     []error
	maintains int
}

func (o *recordingObserver) HydrateFailed(_ Mode, err error) {
	o.mu.Lock()
	o.hydrate = append(o.hydrate, err)
	o.mu.Unlock()
}

func (o *recordingObserver) FlushFailed(_ Mode, err error) {
	o.mu.Lock()
	o.flush = append(o.flush, err)
	o.mu.Unlock()
}

func (o *recordingObserver) Maintained(int, int) {
	o.mu.Lock()
	o.maintains++
	o.mu.Unlock()
}

// failingMedium fails every write once armed.
type failingMedium struct {
	*medium.Memory
	fail bool
}

var errDiskFull = errors.New("disk full")

func (m *failingMedium) SetItem(ctx context.Context, key string, value []byte) error {
	if m.fail {
		return errDiskFull
	}
	return m.Memory.SetItem(ctx, key, value)
}

func ck(segs ...any) keys.Canonical {
	return keys.MustEncode(keys.K(segs...))
}

// checkList verifies the arena list: a forward walk reaches tail, the
// backward walk mirrors it, and the node set equals the resident set.
func checkList(t *testing.T, v *Volatile) {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()

	var forward []keys.Canonical
	prev := keys.Canonical("")
	for k := v.head; k != ""; k = v.nodes[k].next {
		n, ok := v.nodes[k]
		if !ok {
			t.Fatalf("list references missing node %q", k)
		}
		if n.prev != prev {
			t.Fatalf("node %q prev=%q want %q", k, n.prev, prev)
		}
		forward = append(forward, k)
		prev = k
		if len(forward) > len(v.nodes) {
			t.Fatalf("cycle in list")
		}
	}
	if prev != v.tail {
		t.Fatalf("forward walk ended at %q, tail is %q", prev, v.tail)
	}
	if len(forward) != len(v.nodes) {
		t.Fatalf("list has %d nodes, map has %d", len(forward), len(v.nodes))
	}
	i := len(forward) - 1
	for k := v.tail; k != ""; k = v.nodes[k].prev {
		if forward[i] != k {
			t.Fatalf("backward walk mismatch at %d: %q vs %q", i, k, forward[i])
		}
		i--
	}
}
