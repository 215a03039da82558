/*
Package metrics provides Prometheus metrics collection and exposition for
the middle layer and the multipolygon assembler.

The package registers a small, fixed set of gauges, counters and a
histogram at package init: node-cache hit rate and occupancy, flat-file
size, pending-tracker depths, and stage-2 relation throughput. Metrics
are exposed over HTTP for scraping by a Prometheus server.

# Metrics Catalog

Node Cache (B):

mid_node_cache_hit_ratio:
  - Type: Gauge
  - Description: Running hit rate of the RAM node cache, 0-1
  - Example: mid_node_cache_hit_ratio 0.94

mid_node_cache_occupancy{tier}:
  - Type: Gauge
  - Description: Dense blocks in use ("dense") or sparse table entries ("sparse")
  - Labels: tier ("dense" or "sparse")
  - Example: mid_node_cache_occupancy{tier="dense"} 63

Flat Node File (C):

mid_flat_node_file_bytes:
  - Type: Gauge
  - Description: Current size in bytes of the flat node file
  - Example: mid_flat_node_file_bytes 824633720

Pending Trackers (A):

mid_pending_set_depth{tracker}:
  - Type: Gauge
  - Description: Number of ids currently pending in a tracker
  - Labels: tracker ("ways_pending", "ways_done", "relations_pending")
  - Example: mid_pending_set_depth{tracker="relations_pending"} 318

Stage 2 (pkg/pipeline, pkg/geometry):

mid_relations_processed_total:
  - Type: Counter
  - Description: Total relations stage 2 has finished processing

mid_relations_failed_total:
  - Type: Counter
  - Description: Total relations whose assembly returned an error

mid_geometry_repaired_total:
  - Type: Counter
  - Description: Self-touching rings repaired rather than discarded

mid_geometry_discarded_total:
  - Type: Counter
  - Description: Polygons discarded as unrepairable or excluded

mid_stage2_relation_duration_seconds:
  - Type: Histogram
  - Description: Time taken to assemble one relation in stage 2
  - Buckets: Default Prometheus buckets

# Usage

	import "github.com/osm2pgsql/mid/pkg/metrics"

	metrics.NodeCacheHitRatio.Set(0.94)
	metrics.NodeCacheOccupancy.WithLabelValues("dense").Set(63)
	metrics.RelationsProcessedTotal.Inc()

	timer := metrics.NewTimer()
	// ... assemble a relation ...
	timer.ObserveDuration(metrics.Stage2RelationDuration)

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/nodecache and pkg/middle: occupancy and hit-rate figures, via
    Facade.NodeCacheStats and Facade.FlatNodeBytes, fed in by Collector.
  - pkg/pipeline: tracker depths and per-relation processing counters,
    timed around geometry.AssembleMultipolygons.
  - cmd/midctl: exposes the Prometheus handler over HTTP alongside the
    health and readiness endpoints.

# Design Notes

Metrics are registered once at package init via MustRegister, which
panics on duplicate registration; this package is imported exactly
once per process, so there is no runtime registration path to guard
against. Label cardinality is kept low: "tier" and "tracker" each take
one of a handful of fixed string values, never an object id.
High-cardinality identifiers (way ids, relation ids) belong in
per-object log lines, not metric labels.
*/
package metrics
