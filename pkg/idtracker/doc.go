/*
Package idtracker implements the pending-id tracker used between pipeline
stages: an ordered set of object ids with a monotonic "last popped"
watermark.

	┌────────────────── ID TRACKER ──────────────────┐
	│                                                  │
	│   Mark(id) ──────► roaring.Bitmap (pending)     │
	│   Unmark(id) ────► bitmap.Remove(id)            │
	│   IsMarked(id) ──► bitmap.Contains(id)           │
	│   PopMark() ─────► smallest set bit, removed,    │
	│                    asserted > watermark          │
	│                                                  │
	└──────────────────────────────────────────────────┘

A Tracker is owned by exactly one goroutine at a time; nothing in this
package synchronizes concurrent access. The output stage keeps several
independent trackers (ways-pending, ways-done, relations-pending) with no
sharing between them.

Negative OSM ids (used by some editors for not-yet-uploaded local entities)
are supported by flipping the sign bit of the signed id before it is
stored in the (unsigned) roaring64 bitmap (standard offset-binary
encoding), so that the bitmap's natural ascending iteration order matches
signed numeric order.
*/
package idtracker
