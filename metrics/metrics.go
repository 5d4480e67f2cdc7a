//Package metrics holds the prometheus collectors shared by the decoding, caching and sync layers
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "icrh"

var (
	//DecodedRecords counts decode attempts by record type and outcome (ok, malformed, empty, io)
	DecodedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decoded_records_total",
		Help:      "Record decode attempts by record type and result.",
	}, []string{"record_type", "result"})

	//BundleLoads counts bundle requests, split by whether the cache already held the event
	BundleLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bundle_loads_total",
		Help:      "Shot bundle requests by cache outcome.",
	}, []string{"cache"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Shot bundles evicted from the in-memory cache.",
	})

	CachedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_events",
		Help:      "Shot bundles currently held in memory.",
	})

	CachedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_bytes",
		Help:      "Estimated sample memory held by cached shot bundles.",
	})

	//SyncFiles counts per-file transfer and deletion outcomes
	SyncFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_files_total",
		Help:      "Remote file operations by kind and result.",
	}, []string{"op", "result"})

	DerivedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "derived_failures_total",
		Help:      "Derived series computations that failed, by series name.",
	}, []string{"series"})
)
