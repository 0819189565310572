package store

import (
	"sort"
	"time"

	"github.com/Mehemmed77/FeatherQuery/keys"
)

// EntryInfo describes one resident entry without exposing its payload.
type EntryInfo struct {
	Key            keys.Canonical
	Size           int
	WrittenAt      time.Time
	LastAccessedAt time.Time
	SoftEvicted    bool
}

// StoreInfo describes one store.
type StoreInfo struct {
	Mode    Mode
	Entries []EntryInfo
}

// Diagnostics is a read-only view of every store.
type Diagnostics struct {
	Stores []StoreInfo
	// EvictionOrder lists volatile keys from most to least recently used.
	EvictionOrder []keys.Canonical
}

// Inspect reports the contents of every store without touching entries.
// It fails with ErrDiagnosticsDisabled unless enabled in ManagerOptions.
func (m *Manager) Inspect() (Diagnostics, error) {
	if !m.diagnostics {
		return Diagnostics{}, ErrDiagnosticsDisabled
	}

	order := m.volatile.Keys()
	vol := StoreInfo{Mode: ModeVolatile, Entries: make([]EntryInfo, 0, len(order))}
	for _, k := range order {
		if e, ok := m.volatile.Peek(k); ok {
			vol.Entries = append(vol.Entries, info(k, e))
		}
	}

	return Diagnostics{
		Stores:        []StoreInfo{vol, persistentInfo(m.session), persistentInfo(m.permanent)},
		EvictionOrder: order,
	}, nil
}

func persistentInfo(p *Persistent) StoreInfo {
	// GetAll on persisted stores does not stamp accesses.
	all := p.GetAll()
	si := StoreInfo{Mode: p.Mode(), Entries: make([]EntryInfo, 0, len(all))}
	for _, r := range all {
		si.Entries = append(si.Entries, info(r.Key, r.Entry))
	}
	sort.Slice(si.Entries, func(i, j int) bool { return si.Entries[i].Key < si.Entries[j].Key })
	return si
}

func info(k keys.Canonical, e Entry) EntryInfo {
	return EntryInfo{
		Key:            k,
		Size:           len(e.Payload),
		WrittenAt:      e.WrittenAt,
		LastAccessedAt: e.LastAccessedAt,
		SoftEvicted:    e.SoftEvicted(),
	}
}
