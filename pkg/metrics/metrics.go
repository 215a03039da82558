package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NodeCacheHitRatio is the RAM node cache's running hit rate (B).
	NodeCacheHitRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mid_node_cache_hit_ratio",
			Help: "RAM node cache hit rate, 0-1",
		},
	)

	// NodeCacheOccupancy reports RAM node cache occupancy by storage tier:
	// dense blocks in use for "dense", sparse table entries for "sparse".
	NodeCacheOccupancy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mid_node_cache_occupancy",
			Help: "RAM node cache occupancy by tier: dense blocks or sparse entries",
		},
		[]string{"tier"}, // "dense" or "sparse"
	)

	// FlatNodeFileBytes is the flat node file's current size (C).
	FlatNodeFileBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mid_flat_node_file_bytes",
			Help: "Current size in bytes of the flat node file",
		},
	)

	// PendingSetDepth reports how many ids are queued in each stage-2
	// tracker.
	PendingSetDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mid_pending_set_depth",
			Help: "Number of ids currently pending in a tracker",
		},
		[]string{"tracker"}, // "ways_pending", "ways_done", "relations_pending"
	)

	// RelationsProcessedTotal counts relations stage 2 finished assembling,
	// successfully or not.
	RelationsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mid_relations_processed_total",
			Help: "Total number of relations stage 2 has finished processing",
		},
	)

	// RelationsFailedTotal counts relations whose assembly returned an error.
	RelationsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mid_relations_failed_total",
			Help: "Total number of relations whose assembly failed",
		},
	)

	// GeometryRepairedTotal counts self-touching rings the assembler
	// repaired rather than discarded.
	GeometryRepairedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mid_geometry_repaired_total",
			Help: "Total number of rings repaired by the polygon-repair pass",
		},
	)

	// GeometryDiscardedTotal counts polygons dropped as broken.
	GeometryDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mid_geometry_discarded_total",
			Help: "Total number of polygons discarded as unrepairable or excluded",
		},
	)

	// Stage2RelationDuration times one relation's end-to-end assembly.
	Stage2RelationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mid_stage2_relation_duration_seconds",
			Help:    "Time taken to assemble one relation in stage 2",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		NodeCacheHitRatio,
		NodeCacheOccupancy,
		FlatNodeFileBytes,
		PendingSetDepth,
		RelationsProcessedTotal,
		RelationsFailedTotal,
		GeometryRepairedTotal,
		GeometryDiscardedTotal,
		Stage2RelationDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
