package featherquery

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the client calls them
// while holding no locks but on request paths.
type Hooks interface {
	// A persisted store could not be loaded and started empty.
	HydrateFailed(mode string, err error)
	// A persisted store could not write its snapshot.
	FlushFailed(mode string, err error)
	// One volatile maintenance pass removed or marked entries.
	Maintained(expired, softEvicted int)

	// A cached entry was deleted on read.
	// reason ∈ {"value_decode"}
	SelfHeal(key, reason string)
	// A response arrived after a newer request was issued and was discarded.
	ResponseDropped(key string, id uint64)
	// A producer or mutation failed (cancellation excluded).
	ProducerFailed(key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) HydrateFailed(string, error)    {}
func (NopHooks) FlushFailed(string, error)      {}
func (NopHooks) Maintained(int, int)            {}
func (NopHooks) SelfHeal(string, string)        {}
func (NopHooks) ResponseDropped(string, uint64) {}
func (NopHooks) ProducerFailed(string, error)   {}
