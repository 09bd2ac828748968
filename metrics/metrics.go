package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var NodesIngestedByModality = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nodes_ingested_by_modality",
		Help: "Constants and compositions addressed, by input modality",
	},
	[]string{"modality"},
)

var IngestThroughputBytes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingest_throughput_bytes",
		Help: "Raw input bytes processed by the bulk ingestor",
	},
	[]string{"phase"},
)

var CacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dedup_cache_lookups",
		Help: "Deduplication cache lookups by hit/miss",
	},
	[]string{"result"},
)

var BucketteerProbes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bucketteer_probes",
		Help: "Existence-probe hints by hit/miss, before a store round trip",
	},
	[]string{"result"},
)

// - Version information of this binary
var Version = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "version",
		Help: "Version information of this binary",
	},
	[]string{"started_at", "tag", "commit", "compiler", "goarch", "goos", "goamd64", "vcs", "vcs_revision", "vcs_time", "vcs_modified"},
)

var StoreRoundTripHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "store_round_trip_latency_histogram",
		Help:    "Latency of a single store operation",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 10),
	},
	[]string{"operation"},
)

var BulkBatchFlushHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "bulk_batch_flush_latency_histogram",
		Help:    "Latency of a single bulk COPY batch flush",
		Buckets: prometheus.ExponentialBuckets(0.0001, 10, 8),
	},
	[]string{"target"},
)

var DecomposerDigramTableSize = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "decomposer_digram_table_size",
		Help: "Distinct digram candidates considered in the most recent decomposition round",
	},
	[]string{},
)

var DecomposerSparsityPercent = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bulk_tensor_sparsity_percent",
		Help: "Share of near-zero values elided from the most recently ingested tensor",
	},
	[]string{"tensor"},
)
