package idtracker

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/osm2pgsql/mid/pkg/osm"
)

// Empty is the sentinel id returned by PopMark and LastReturned when no
// marked id is (or has ever been) popped. The max representable id is
// out of band: no data source assigns it to a real object.
const Empty osm.ID = math.MaxInt64

// Tracker is an ordered set of pending ids with a monotonic watermark.
// It is not safe for concurrent use; each Tracker belongs to one
// goroutine at a time.
type Tracker struct {
	pending    *roaring64.Bitmap
	lastPopped osm.ID
	everPopped bool
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		pending:    roaring64.New(),
		lastPopped: 0,
	}
}

func encode(id osm.ID) uint64 {
	return uint64(id) ^ (uint64(1) << 63)
}

func decode(u uint64) osm.ID {
	return osm.ID(u ^ (uint64(1) << 63))
}

// Mark inserts id into the pending set. Marking an id that is already
// present is a silent no-op.
func (t *Tracker) Mark(id osm.ID) {
	t.pending.Add(encode(id))
}

// IsMarked reports whether id is currently pending.
func (t *Tracker) IsMarked(id osm.ID) bool {
	return t.pending.Contains(encode(id))
}

// Unmark removes id from the pending set, if present.
func (t *Tracker) Unmark(id osm.ID) {
	t.pending.Remove(encode(id))
}

// PopMark removes and returns the smallest pending id, or Empty if the
// set is empty. It panics if the popped id is not strictly greater than
// the watermark established by the previous non-empty pop: that is an
// invariant violation and indicates a caller bug (e.g. reusing a tracker
// across stages without resetting it), not a data condition.
func (t *Tracker) PopMark() osm.ID {
	if t.pending.IsEmpty() {
		return Empty
	}

	smallest := t.pending.Minimum()
	t.pending.Remove(smallest)

	id := decode(smallest)
	if t.everPopped && id <= t.lastPopped {
		panic("idtracker: pop_mark violated monotonicity invariant")
	}
	t.lastPopped = id
	t.everPopped = true

	return id
}

// LastReturned returns the watermark, the greatest id ever returned by
// PopMark, without mutating the tracker. It returns Empty if PopMark has
// never returned a real id.
func (t *Tracker) LastReturned() osm.ID {
	if !t.everPopped {
		return Empty
	}
	return t.lastPopped
}

// Len reports the number of ids currently pending.
func (t *Tracker) Len() int {
	return int(t.pending.GetCardinality())
}

// Reset clears the pending set and the watermark, returning the tracker
// to its initial state. Callers use this between pipeline runs; reusing
// a tracker across stages without resetting would otherwise trip the
// PopMark monotonicity check on the first id of the next stage.
func (t *Tracker) Reset() {
	t.pending.Clear()
	t.lastPopped = 0
	t.everPopped = false
}
