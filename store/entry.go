package store

import (
	"math"
	"time"
)

// Forever as a TTL means an entry never goes stale once written.
const Forever time.Duration = math.MaxInt64

// AlwaysStale as a TTL behaves like 0: every read is stale. Option layers
// that read 0 as "use the default" take it to request revalidation on
// every access.
const AlwaysStale time.Duration = math.MinInt64

// Epoch is the write time given to soft-evicted entries. IsStale reports
// any entry written at or before Epoch as stale regardless of TTL.
var Epoch = time.Unix(0, 0).UTC()

// Entry is a cached payload with its timestamps. Payloads are opaque
// encoded bytes; typed access goes through a codec one layer up.
type Entry struct {
	Payload        []byte
	WrittenAt      time.Time
	LastAccessedAt time.Time
}

// SoftEvicted reports whether e was marked by LRU maintenance.
func (e Entry) SoftEvicted() bool {
	return !e.WrittenAt.After(Epoch)
}

// IsStale reports whether e must be revalidated before use under ttl.
func IsStale(e *Entry, ttl time.Duration) bool {
	return IsStaleAt(e, ttl, time.Now())
}

// IsStaleAt is IsStale evaluated at now.
//
//	nil entry            -> stale
//	soft-evicted entry   -> stale
//	ttl == 0/AlwaysStale -> always stale
//	ttl == Forever or <0 -> never stale
//	otherwise            -> now > WrittenAt + ttl
func IsStaleAt(e *Entry, ttl time.Duration, now time.Time) bool {
	if e == nil || e.SoftEvicted() {
		return true
	}
	if ttl == 0 || ttl == AlwaysStale {
		return true
	}
	if ttl == Forever || ttl < 0 {
		return false
	}
	return now.After(e.WrittenAt.Add(ttl))
}

// touch stamps an access at now, keeping LastAccessedAt >= WrittenAt.
func (e *Entry) touch(now time.Time) {
	if now.Before(e.WrittenAt) {
		now = e.WrittenAt
	}
	e.LastAccessedAt = now
}

func (e Entry) clone() Entry {
	e.Payload = append([]byte(nil), e.Payload...)
	return e
}
