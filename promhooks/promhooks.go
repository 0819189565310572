// Package promhooks counts client events with Prometheus metrics.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	featherquery "github.com/Mehemmed77/FeatherQuery"
)

// Hooks implements featherquery.Hooks with counters labeled by store mode
// or reason. Keys are never used as labels.
type Hooks struct {
	hydrateFailures *prometheus.CounterVec
	flushFailures   *prometheus.CounterVec
	expired         prometheus.Counter
	softEvicted     prometheus.Counter
	selfHeals       *prometheus.CounterVec
	dropped         prometheus.Counter
	producerErrors  prometheus.Counter
}

var _ featherquery.Hooks = (*Hooks)(nil)

// Options configure New.
type Options struct {
	Namespace   string // "" => "featherquery"
	ConstLabels prometheus.Labels
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer, opts Options) (*Hooks, error) {
	ns := opts.Namespace
	if ns == "" {
		ns = "featherquery"
	}
	counter := func(subsystem, name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: opts.ConstLabels,
		}
	}

	h := &Hooks{
		hydrateFailures: prometheus.NewCounterVec(
			counter("store", "hydrate_failures_total", "Persisted stores that started empty after a failed load"),
			[]string{"mode"}),
		flushFailures: prometheus.NewCounterVec(
			counter("store", "flush_failures_total", "Failed snapshot writes of persisted stores"),
			[]string{"mode"}),
		expired: prometheus.NewCounter(
			counter("store", "expired_total", "Volatile entries removed by maintenance")),
		softEvicted: prometheus.NewCounter(
			counter("store", "soft_evicted_total", "Volatile entries marked stale by LRU maintenance")),
		selfHeals: prometheus.NewCounterVec(
			counter("query", "self_heals_total", "Cached entries deleted on read"),
			[]string{"reason"}),
		dropped: prometheus.NewCounter(
			counter("query", "responses_dropped_total", "Responses discarded because a newer request was issued")),
		producerErrors: prometheus.NewCounter(
			counter("query", "producer_errors_total", "Failed producer and mutation calls")),
	}

	for _, c := range []prometheus.Collector{
		h.hydrateFailures, h.flushFailures, h.expired, h.softEvicted,
		h.selfHeals, h.dropped, h.producerErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) HydrateFailed(mode string, _ error) { h.hydrateFailures.WithLabelValues(mode).Inc() }
func (h *Hooks) FlushFailed(mode string, _ error)   { h.flushFailures.WithLabelValues(mode).Inc() }
func (h *Hooks) SelfHeal(_, reason string)          { h.selfHeals.WithLabelValues(reason).Inc() }
func (h *Hooks) ResponseDropped(string, uint64)     { h.dropped.Inc() }
func (h *Hooks) ProducerFailed(string, error)       { h.producerErrors.Inc() }

func (h *Hooks) Maintained(expired, softEvicted int) {
	h.expired.Add(float64(expired))
	h.softEvicted.Add(float64(softEvicted))
}
