/*
Package nodecache implements the bounded in-memory node location store: an
id → (lon, lat) map with a byte budget, used by the middle façade as the
fast path in front of the flat file store in pkg/flatnode.

	┌────────────────────── NODE CACHE ───────────────────────┐
	│                                                          │
	│   Set(id, lon, lat)                                     │
	│        │                                                │
	│        ▼                                                │
	│   ┌─────────────┐  block full & under-filled  ┌───────┐│
	│   │ dense block │ ───────────────────────────► │sparse ││
	│   │ (array per  │         migrate entries       │ table ││
	│   │  8192 ids)  │                               │(sorted││
	│   └──────┬──────┘                               │ array)││
	│          │ min-heap keyed on used-count          └───────┘│
	│          ▼ (eviction when maxBlocks reached)              │
	│     reuse least-used block's storage                      │
	└────────────────────────────────────────────────────────┘

Three representations, selected by Strategy bits:

  - StrategyDense: a fixed-size array per block; constant cost regardless
    of fill, worthwhile once fill ≥ the break-even ratio.
  - StrategySparse: one sorted (id, location) array; cheap when fill is
    very low but requires strictly increasing insertion order.
  - Both bits together give the hybrid: writes land in dense blocks; a
    block that fills up with low occupancy is flushed into the sparse
    table and its storage reused for the next block.

StrategyLossy makes out-of-capacity writes a silent drop instead of an
error, so Get may return "not found" for an id that was previously Set.

The dense eviction heap is an array plus index (queue []*denseBlock), not
a pointer tree: phase 1 (queue not yet full) appends and sifts a block up;
phase 2 (queue full) evicts the root, the least-used block, and the newly
inserted block replaces it at the root.
*/
package nodecache
