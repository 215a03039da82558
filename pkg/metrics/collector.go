package metrics

import (
	"time"

	"github.com/osm2pgsql/mid/pkg/middle"
)

// TrackerDepths reports the current size of the three stage-2 pending
// sets. pipeline.Trackers satisfies this without metrics needing to
// import pipeline (which itself imports metrics to report per-relation
// timings).
type TrackerDepths interface {
	WaysPendingLen() int
	WaysDoneLen() int
	RelationsPendingLen() int
}

// Collector periodically samples the node cache, flat node file, and
// stage-2 pending sets into the package's Prometheus gauges.
type Collector struct {
	facade   *middle.Facade
	trackers TrackerDepths
	stopCh   chan struct{}
}

// NewCollector builds a Collector over facade's cache/file stats and
// trackers' queue depths. trackers may be nil if the caller only wants
// node-cache and flat-file metrics.
func NewCollector(facade *middle.Facade, trackers TrackerDepths) *Collector {
	return &Collector{facade: facade, trackers: trackers, stopCh: make(chan struct{})}
}

// Start begins periodic collection on a 15-second ticker.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectNodeCache()
	c.collectFlatNode()
	c.collectTrackers()
}

func (c *Collector) collectNodeCache() {
	stats, ok := c.facade.NodeCacheStats()
	if !ok {
		return
	}
	NodeCacheHitRatio.Set(stats.HitRate)
	NodeCacheOccupancy.WithLabelValues("dense").Set(float64(stats.DenseBlocks))
	NodeCacheOccupancy.WithLabelValues("sparse").Set(float64(stats.SparseEntries))
}

func (c *Collector) collectFlatNode() {
	size, ok := c.facade.FlatNodeBytes()
	if !ok {
		return
	}
	FlatNodeFileBytes.Set(float64(size))
}

func (c *Collector) collectTrackers() {
	if c.trackers == nil {
		return
	}
	PendingSetDepth.WithLabelValues("ways_pending").Set(float64(c.trackers.WaysPendingLen()))
	PendingSetDepth.WithLabelValues("ways_done").Set(float64(c.trackers.WaysDoneLen()))
	PendingSetDepth.WithLabelValues("relations_pending").Set(float64(c.trackers.RelationsPendingLen()))
}
