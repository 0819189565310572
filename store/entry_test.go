package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStaleScenario(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &Entry{Payload: []byte("x"), WrittenAt: t0, LastAccessedAt: t0}
	ttl := 30 * time.Second

	assert.False(t, IsStaleAt(e, ttl, t0.Add(10*time.Second)))
	assert.False(t, IsStaleAt(e, ttl, t0.Add(30*time.Second)), "boundary is still fresh")
	assert.True(t, IsStaleAt(e, ttl, t0.Add(31*time.Second)))
}

func TestIsStaleEdges(t *testing.T) {
	now := time.Now()
	fresh := &Entry{WrittenAt: now, LastAccessedAt: now}

	assert.True(t, IsStaleAt(nil, Forever, now), "absent entry is stale")
	assert.True(t, IsStaleAt(fresh, 0, now), "ttl 0 always revalidates")
	assert.True(t, IsStaleAt(fresh, AlwaysStale, now), "AlwaysStale is not a negative ttl")
	assert.False(t, IsStaleAt(fresh, Forever, now.Add(100*365*24*time.Hour)))
	assert.False(t, IsStaleAt(fresh, -1, now.Add(time.Hour)))

	evicted := &Entry{WrittenAt: Epoch, LastAccessedAt: now}
	assert.True(t, evicted.SoftEvicted())
	assert.True(t, IsStaleAt(evicted, Forever, now), "soft-evicted beats Forever")
	assert.True(t, IsStale(evicted, Forever))
}

func TestTouchKeepsAccessAfterWrite(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{WrittenAt: t0.Add(time.Hour)}
	e.touch(t0)
	assert.Equal(t, e.WrittenAt, e.LastAccessedAt)

	e.touch(t0.Add(2 * time.Hour))
	assert.Equal(t, t0.Add(2*time.Hour), e.LastAccessedAt)
}
