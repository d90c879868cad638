// Package metrics provides an optional Prometheus recorder for the
// btreedb pager and node cache. Nothing in this package is wired up
// unless a caller passes a *Recorder to btreedb.WithMetrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the Prometheus collectors for a single open database.
// A nil *Recorder is valid everywhere it's used below: every method has
// a nil receiver guard so the hot path costs nothing when metrics are
// disabled.
type Recorder struct {
	pageReads  prometheus.Counter
	pageWrites prometheus.Counter
	cacheHits  prometheus.Counter
	cacheMisses prometheus.Counter
	splits     prometheus.Counter
	merges     prometheus.Counter
	flushes    prometheus.Histogram
}

// NewRecorder builds a Recorder and registers its collectors with reg.
// Pass prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer to expose metrics process-wide.
func NewRecorder(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		pageReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pager_page_reads_total",
			Help: "Number of node pages read from disk.",
		}),
		pageWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pager_page_writes_total",
			Help: "Number of node pages written to disk.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_cache_hits_total",
			Help: "Number of node lookups served from the in-memory cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_cache_misses_total",
			Help: "Number of node lookups that required a disk read.",
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "btree_splits_total",
			Help: "Number of node splits performed during insert.",
		}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "btree_merges_total",
			Help: "Number of node merges performed during delete.",
		}),
		flushes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "flush_duration_seconds",
			Help:    "Duration of Flush calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(r.pageReads, r.pageWrites, r.cacheHits, r.cacheMisses, r.splits, r.merges, r.flushes)
	}
	return r
}

func (r *Recorder) PageRead() {
	if r == nil {
		return
	}
	r.pageReads.Inc()
}

func (r *Recorder) PageWrite() {
	if r == nil {
		return
	}
	r.pageWrites.Inc()
}

func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

func (r *Recorder) Split() {
	if r == nil {
		return
	}
	r.splits.Inc()
}

func (r *Recorder) Merge() {
	if r == nil {
		return
	}
	r.merges.Inc()
}

func (r *Recorder) ObserveFlush(d time.Duration) {
	if r == nil {
		return
	}
	r.flushes.Observe(d.Seconds())
}
