package nodecache

import (
	"errors"
	"math"

	"github.com/osm2pgsql/mid/pkg/log"
	"github.com/osm2pgsql/mid/pkg/osm"
)

const (
	blockShift = 13
	perBlock   = 1 << blockShift

	// coordScale matches pkg/flatnode's fixed-point encoding so the two
	// stores agree on precision when used together.
	coordScale = 1e7

	invalidCoord = math.MinInt32

	sizeofLocation    = 8  // 2 x int32
	sizeofSparseEntry = 16 // id (int64) + location
)

// breakEven is the dense block fill fraction below which, on block
// completion, it is cheaper to keep the entries in the sparse table than
// in the dense array.
const breakEven = float64(sizeofLocation) / float64(sizeofSparseEntry)

// Strategy selects which representations a Cache may use.
type Strategy uint8

const (
	StrategySparse Strategy = 1 << iota
	StrategyDense
	StrategyLossy
)

// Location is a decoded node coordinate.
type Location struct {
	Lon, Lat float64
	Valid    bool
}

// Config configures a new Cache.
type Config struct {
	Strategy    Strategy
	CacheSizeMB int
}

type fixedLoc struct {
	Lon, Lat int32
}

func invalidFixedLoc() fixedLoc { return fixedLoc{Lon: invalidCoord} }

func (f fixedLoc) valid() bool { return f.Lon != invalidCoord }

func toFixed(v float64) int32 { return int32(math.Round(v * coordScale)) }
func toFloat(v int32) float64 { return float64(v) / coordScale }

func toLocation(f fixedLoc) Location {
	return Location{Lon: toFloat(f.Lon), Lat: toFloat(f.Lat), Valid: true}
}

type denseBlock struct {
	id    int64
	nodes []fixedLoc
	used  int
}

func newDenseBlock(id int64) *denseBlock {
	nodes := make([]fixedLoc, perBlock)
	for i := range nodes {
		nodes[i] = invalidFixedLoc()
	}
	return &denseBlock{id: id, nodes: nodes}
}

func (b *denseBlock) reuse(id int64) {
	b.id = id
	b.used = 0
	for i := range b.nodes {
		b.nodes[i] = invalidFixedLoc()
	}
}

type sparseEntry struct {
	id  osm.ID
	loc fixedLoc
}

// Cache is a bounded in-memory id -> location map. It is not safe for
// concurrent use; the middle façade gives each worker its own clone.
type Cache struct {
	strategy Strategy

	cacheSize int64
	cacheUsed int64

	blocks    map[int64]*denseBlock
	queue     []*denseBlock
	maxBlocks int

	sparse         []sparseEntry
	maxSparseLen   int
	maxSparseID    osm.ID
	haveSparseID   bool
	warnedOutOrder bool

	storedNodes int64
	totalNodes  int64
	hits        int64
	lookups     int64
}

// New returns an empty Cache configured with the given byte budget and
// strategy.
func New(cfg Config) *Cache {
	cacheSize := int64(cfg.CacheSizeMB) * 1024 * 1024
	maxBlocks := int(cacheSize / (perBlock * sizeofLocation))
	if maxBlocks%2 == 0 && maxBlocks > 0 {
		// Keep the heap array odd-sized so it has no single-child nodes.
		maxBlocks--
	}
	maxSparseLen := int(cacheSize/sizeofSparseEntry) + 1

	return &Cache{
		strategy:     cfg.Strategy,
		cacheSize:    cacheSize,
		blocks:       make(map[int64]*denseBlock),
		queue:        make([]*denseBlock, 0, maxBlocks),
		maxBlocks:    maxBlocks,
		sparse:       make([]sparseEntry, 0, 1024),
		maxSparseLen: maxSparseLen,
	}
}

func (c *Cache) lossy() bool { return c.strategy&StrategyLossy != 0 }

func id2block(id osm.ID) int64   { return int64(id) >> blockShift }
func id2offset(id osm.ID) int    { return int(int64(id) & (perBlock - 1)) }
func block2id(block int64, offset int) osm.ID {
	return osm.ID((block << blockShift) + int64(offset))
}

// percolateUp restores the min-heap invariant for a newly appended tail
// entry by swapping it towards the root while it is smaller than its
// parent.
func (c *Cache) percolateUp(pos int) {
	i := pos
	for i > 0 {
		parent := (i - 1) / 2
		if c.queue[i].used < c.queue[parent].used {
			c.queue[i], c.queue[parent] = c.queue[parent], c.queue[i]
			i = parent
		} else {
			break
		}
	}
}

// reheapifyRoot restores the heap invariant after the root's contents
// have been replaced in place (phase 2 eviction).
func (c *Cache) reheapifyRoot() {
	i := 0
	for 2*i+1 < len(c.queue)-1 {
		left, right := 2*i+1, 2*i+2
		child := left
		if right < len(c.queue) && c.queue[right].used <= c.queue[left].used {
			child = right
		}
		if c.queue[i].used > c.queue[child].used {
			c.queue[i], c.queue[child] = c.queue[child], c.queue[i]
			i = child
		} else {
			break
		}
	}
}

// Set stores a location under id. Strategy bits determine the path taken;
// with both StrategyDense and StrategySparse set, dense is the default
// write path and an under-filled block is migrated to sparse when the
// next block is started. Blocks evicted once the heap is full are not
// migrated; their entries are dropped.
func (c *Cache) Set(id osm.ID, lon, lat float64) error {
	c.totalNodes++
	loc := fixedLoc{Lon: toFixed(lon), Lat: toFixed(lat)}

	switch {
	case c.strategy&StrategyDense != 0:
		return c.setDense(id, loc)
	case c.strategy&StrategySparse != 0:
		return c.setSparse(id, loc)
	default:
		return errors.New("nodecache: no cache strategy configured")
	}
}

func (c *Cache) setDense(id osm.ID, loc fixedLoc) error {
	if c.maxBlocks == 0 {
		return nil
	}

	block := id2block(id)
	offset := id2offset(id)

	blk, exists := c.blocks[block]
	if !exists {
		if len(c.queue) < c.maxBlocks && c.cacheUsed < c.cacheSize {
			if len(c.queue) > 0 {
				prev := c.queue[len(c.queue)-1]
				denseEnough := c.strategy&StrategySparse == 0 ||
					float64(prev.used)/float64(perBlock) > breakEven

				if denseEnough {
					c.percolateUp(len(c.queue) - 1)
					blk = newDenseBlock(block)
				} else {
					for offs, n := range prev.nodes {
						if n.valid() {
							pid := block2id(prev.id, offs)
							if err := c.setSparse(pid, n); err != nil && !c.lossy() {
								return err
							}
						}
					}
					c.storedNodes -= int64(prev.used)
					delete(c.blocks, prev.id)
					prev.reuse(block)
					blk = prev
					c.queue = c.queue[:len(c.queue)-1]
					c.cacheUsed -= perBlock * sizeofLocation
				}
			} else {
				blk = newDenseBlock(block)
			}

			c.blocks[block] = blk
			c.queue = append(c.queue, blk)
			c.cacheUsed += perBlock * sizeofLocation

			if len(c.queue) == c.maxBlocks || c.cacheUsed > c.cacheSize {
				c.percolateUp(len(c.queue) - 1)
			}
		} else {
			if !c.lossy() {
				return ErrCacheFull
			}
			if len(c.queue) == 0 {
				return ErrCacheFull
			}

			c.reheapifyRoot()

			evicted := c.queue[0]
			delete(c.blocks, evicted.id)
			c.storedNodes -= int64(evicted.used)
			evicted.reuse(block)
			c.blocks[block] = evicted
			blk = evicted
		}
	} else {
		expected := 0
		if len(c.queue) < c.maxBlocks && c.cacheUsed < c.cacheSize {
			expected = len(c.queue) - 1
		}
		if c.queue[expected] != blk {
			if !c.warnedOutOrder {
				log.Logger.Warn().Int64("id", int64(id)).
					Msg("out-of-order dense node insert, cache efficiency degraded")
				c.warnedOutOrder = true
			}
		}
	}

	blk.nodes[offset] = loc
	blk.used++
	c.storedNodes++
	return nil
}

func (c *Cache) setSparse(id osm.ID, loc fixedLoc) error {
	if c.haveSparseID && id <= c.maxSparseID {
		if c.lossy() {
			return nil
		}
		return ErrOutOfOrder
	}
	if len(c.sparse) >= c.maxSparseLen || c.cacheUsed > c.cacheSize {
		if c.lossy() {
			return nil
		}
		return ErrCacheFull
	}

	c.maxSparseID = id
	c.haveSparseID = true
	c.sparse = append(c.sparse, sparseEntry{id: id, loc: loc})
	c.cacheUsed += sizeofSparseEntry
	c.storedNodes++
	return nil
}

// Delete drops id from the cache if present. Dense slots are invalidated
// in place; sparse entries become tombstones (the sorted array keeps its
// shape so binary search still works).
func (c *Cache) Delete(id osm.ID) {
	if c.strategy&StrategyDense != 0 {
		if blk, ok := c.blocks[id2block(id)]; ok {
			offset := id2offset(id)
			if blk.nodes[offset].valid() {
				blk.nodes[offset] = invalidFixedLoc()
				blk.used--
				c.storedNodes--
			}
		}
	}
	if c.strategy&StrategySparse != 0 {
		if i, ok := c.findSparse(id); ok && c.sparse[i].loc.valid() {
			c.sparse[i].loc = invalidFixedLoc()
			c.storedNodes--
		}
	}
}

// Get returns the location stored under id, if any.
func (c *Cache) Get(id osm.ID) (Location, bool) {
	c.lookups++

	if c.strategy&StrategyDense != 0 {
		if n, ok := c.getDense(id); ok {
			c.hits++
			return toLocation(n), true
		}
	}
	if c.strategy&StrategySparse != 0 {
		if n, ok := c.getSparse(id); ok {
			c.hits++
			return toLocation(n), true
		}
	}
	return Location{}, false
}

// GetList resolves ids in order, skipping any that are not present.
func (c *Cache) GetList(ids []osm.ID) []Location {
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		if loc, ok := c.Get(id); ok {
			out = append(out, loc)
		}
	}
	return out
}

func (c *Cache) getDense(id osm.ID) (fixedLoc, bool) {
	blk, ok := c.blocks[id2block(id)]
	if !ok {
		return fixedLoc{}, false
	}
	n := blk.nodes[id2offset(id)]
	if !n.valid() {
		return fixedLoc{}, false
	}
	return n, true
}

func (c *Cache) getSparse(id osm.ID) (fixedLoc, bool) {
	i, ok := c.findSparse(id)
	if !ok || !c.sparse[i].loc.valid() {
		return fixedLoc{}, false
	}
	return c.sparse[i].loc, true
}

func (c *Cache) findSparse(id osm.ID) (int, bool) {
	lo, hi := 0, len(c.sparse)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case c.sparse[mid].id == id:
			return mid, true
		case c.sparse[mid].id > id:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return 0, false
}

// Stats reports cache occupancy and hit rate for pkg/metrics.
type Stats struct {
	StoredNodes   int64
	TotalNodes    int64
	HitRate       float64
	DenseBlocks   int
	SparseEntries int
}

func (c *Cache) Stats() Stats {
	var hitRate float64
	if c.lookups > 0 {
		hitRate = float64(c.hits) / float64(c.lookups)
	}
	return Stats{
		StoredNodes:   c.storedNodes,
		TotalNodes:    c.totalNodes,
		HitRate:       hitRate,
		DenseBlocks:   len(c.queue),
		SparseEntries: len(c.sparse),
	}
}
