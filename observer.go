package featherquery

import "github.com/Mehemmed77/FeatherQuery/store"

// observer forwards store events to the client's logger and hooks.
type observer struct {
	log   Logger
	hooks Hooks
	next  store.Observer
}

func (o *observer) HydrateFailed(mode store.Mode, err error) {
	o.log.Warn("store hydration failed; starting empty", Fields{"mode": string(mode), "err": err})
	o.hooks.HydrateFailed(string(mode), err)
	if o.next != nil {
		o.next.HydrateFailed(mode, err)
	}
}

func (o *observer) FlushFailed(mode store.Mode, err error) {
	o.log.Error("store flush failed", Fields{"mode": string(mode), "err": err})
	o.hooks.FlushFailed(string(mode), err)
	if o.next != nil {
		o.next.FlushFailed(mode, err)
	}
}

func (o *observer) Maintained(expired, softEvicted int) {
	o.log.Debug("volatile maintenance", Fields{"expired": expired, "softEvicted": softEvicted})
	o.hooks.Maintained(expired, softEvicted)
	if o.next != nil {
		o.next.Maintained(expired, softEvicted)
	}
}
