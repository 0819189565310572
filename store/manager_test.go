package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/medium"
)

func newTestManager(t *testing.T, opts ManagerOptions) *Manager {
	t.Helper()
	m, err := NewManager(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m
}

func TestManagerModeMapping(t *testing.T) {
	m := newTestManager(t, ManagerOptions{GCInterval: -1})

	assert.Same(t, m.Volatile(), m.Store(""))
	assert.Same(t, m.Volatile(), m.Store(ModeVolatile))
	assert.Same(t, m.Session(), m.Store(ModeSession))
	assert.Same(t, m.Permanent(), m.Store(ModePermanent))
	assert.Same(t, m.Permanent(), m.Store("anything-else"))

	assert.Equal(t, ModeSession, m.Session().Mode())
	assert.Equal(t, ModePermanent, m.Permanent().Mode())
}

func TestManagerStoresAreIndependent(t *testing.T) {
	m := newTestManager(t, ManagerOptions{GCInterval: -1})
	k := ck("shared")

	require.NoError(t, m.Store(ModeVolatile).Set(k, Entry{Payload: []byte("v")}))
	require.NoError(t, m.Store(ModeSession).Set(k, Entry{Payload: []byte("s")}))

	_, ok := m.Store(ModePermanent).Get(k)
	assert.False(t, ok)
	got, _ := m.Store(ModeSession).Get(k)
	assert.Equal(t, []byte("s"), got.Payload)
}

func TestManagerCloseFlushesPersistedStores(t *testing.T) {
	clock := newFakeClock()
	sessionMed := medium.NewMemory()
	permanentMed := medium.NewMemory()
	opts := ManagerOptions{
		GCInterval:      -1,
		SessionMedium:   sessionMed,
		PermanentMedium: permanentMed,
		Now:             clock.Now,
	}
	m, err := NewManager(opts)
	require.NoError(t, err)

	require.NoError(t, m.Permanent().Set(ck("p"), Entry{Payload: []byte("p")}))
	clock.Advance(time.Minute)
	_, _ = m.Permanent().Get(ck("p"))
	require.NoError(t, m.Close(context.Background()))
	require.NoError(t, m.Close(context.Background()))

	m2 := newTestManager(t, opts)
	all := m2.Permanent().GetAll()
	require.Len(t, all, 1)
	assert.True(t, all[0].Entry.LastAccessedAt.Equal(clock.Now()))
	assert.Equal(t, 0, m2.Session().Len())
}

func TestManagerCloseReportsFlushFailure(t *testing.T) {
	med := &failingMedium{Memory: medium.NewMemory()}
	m, err := NewManager(ManagerOptions{GCInterval: -1, SessionMedium: med})
	require.NoError(t, err)
	require.NoError(t, m.Session().Set(ck("a"), Entry{Payload: []byte("x")}))
	_, _ = m.Session().Get(ck("a"))

	med.fail = true
	err = m.Close(context.Background())
	require.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, m.Close(context.Background()), errDiskFull, "first result is cached")
}

func TestManagerBackgroundMaintenance(t *testing.T) {
	m := newTestManager(t, ManagerOptions{MaxSize: 1, GCInterval: 5 * time.Millisecond})
	v := m.Volatile()
	require.NoError(t, v.Set(ck("a"), Entry{Payload: []byte("a")}))
	require.NoError(t, v.Set(ck("b"), Entry{Payload: []byte("b")}))

	require.Eventually(t, func() bool {
		e, ok := v.Peek(ck("a"))
		return ok && e.SoftEvicted()
	}, time.Second, 5*time.Millisecond)
}

func TestManagerInspect(t *testing.T) {
	clock := newFakeClock()

	off := newTestManager(t, ManagerOptions{GCInterval: -1})
	_, err := off.Inspect()
	require.ErrorIs(t, err, ErrDiagnosticsDisabled)

	m := newTestManager(t, ManagerOptions{GCInterval: -1, Diagnostics: true, Now: clock.Now})
	require.NoError(t, m.Volatile().Set(ck("a"), Entry{Payload: []byte("aa")}))
	require.NoError(t, m.Volatile().Set(ck("b"), Entry{Payload: []byte("b")}))
	require.NoError(t, m.Permanent().Set(ck("p", 2), Entry{Payload: []byte("p")}))
	require.NoError(t, m.Permanent().Set(ck("p", 1), Entry{Payload: []byte("p")}))
	before, _ := m.Volatile().Peek(ck("a"))

	clock.Advance(time.Hour)
	d, err := m.Inspect()
	require.NoError(t, err)

	assert.Equal(t, []keys.Canonical{ck("b"), ck("a")}, d.EvictionOrder)
	require.Len(t, d.Stores, 3)
	assert.Equal(t, ModeVolatile, d.Stores[0].Mode)
	assert.Equal(t, 2, d.Stores[0].Entries[1].Size)
	assert.Empty(t, d.Stores[1].Entries)
	require.Len(t, d.Stores[2].Entries, 2)
	assert.Equal(t, ck("p", 1), d.Stores[2].Entries[0].Key)

	after, _ := m.Volatile().Peek(ck("a"))
	assert.Equal(t, before.LastAccessedAt, after.LastAccessedAt, "inspect does not touch")
	assert.Equal(t, []keys.Canonical{ck("b"), ck("a")}, m.Volatile().Keys())
}
