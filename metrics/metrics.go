// Package metrics exposes Prometheus counters for the cache tiers. A nil
// *Collector is valid everywhere and records nothing, so instrumentation is
// strictly opt-in.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the per-content-type cache counters.
type Collector struct {
	memHits        prometheus.Counter
	memMisses      prometheus.Counter
	memEvictions   prometheus.Counter
	storeHits      prometheus.Counter
	storeMisses    prometheus.Counter
	fetches        prometheus.Counter
	fetchFailures  prometheus.Counter
	staleFallbacks prometheus.Counter
}

// NewCollector registers the cache counters on reg, labelled with the
// content type they belong to.
func NewCollector(reg prometheus.Registerer, contentType string) *Collector {
	labels := prometheus.Labels{"content": contentType}
	counter := func(name, help string) prometheus.Counter {
		return promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace:   "burrow",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	return &Collector{
		memHits:        counter("memory_hits_total", "Memory cache hits."),
		memMisses:      counter("memory_misses_total", "Memory cache misses."),
		memEvictions:   counter("memory_evictions_total", "Memory cache capacity evictions."),
		storeHits:      counter("store_hits_total", "Persistent store hits."),
		storeMisses:    counter("store_misses_total", "Persistent store misses."),
		fetches:        counter("fetches_total", "Network fetches started."),
		fetchFailures:  counter("fetch_failures_total", "Network fetches that failed."),
		staleFallbacks: counter("stale_fallbacks_total", "Stale store entries served after a failed fetch."),
	}
}

func (c *Collector) MemHit() {
	if c != nil {
		c.memHits.Inc()
	}
}

func (c *Collector) MemMiss() {
	if c != nil {
		c.memMisses.Inc()
	}
}

func (c *Collector) MemEviction() {
	if c != nil {
		c.memEvictions.Inc()
	}
}

func (c *Collector) StoreHit() {
	if c != nil {
		c.storeHits.Inc()
	}
}

func (c *Collector) StoreMiss() {
	if c != nil {
		c.storeMisses.Inc()
	}
}

func (c *Collector) Fetch() {
	if c != nil {
		c.fetches.Inc()
	}
}

func (c *Collector) FetchFailure() {
	if c != nil {
		c.fetchFailures.Inc()
	}
}

func (c *Collector) StaleFallback() {
	if c != nil {
		c.staleFallbacks.Inc()
	}
}
