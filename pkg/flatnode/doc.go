/*
Package flatnode implements the persistent node location store: a flat
binary file indexed by unsigned node id, the on-disk companion to the RAM
cache in pkg/nodecache.

Slot i begins at byte i*8. Each slot holds a 4-byte little-endian signed
longitude followed by a 4-byte little-endian signed latitude, both
fixed-point with scale 1e7. The sentinel (INT32_MIN, INT32_MIN) marks a
deleted slot; a never-written slot holds zero bytes and also reads as
missing.

	┌──────────────── FLAT NODE FILE ─────────────────┐
	│ slot 0   slot 1   slot 2   ...   slot N          │
	│ [lon|lat][lon|lat][lon|lat] ... [lon|lat]        │
	│  8 bytes  8 bytes  8 bytes       8 bytes          │
	└──────────────────────────────────────────────────┘

The file is created on first write and grows (by Truncate, leaving a
zero-filled hole) whenever a write targets an id past the current end;
it is never truncated in place. Negative ids are rejected outright since
the file is indexed by unsigned id. A Store holds the writable handle
used during stage 1 ingestion; Reader is a separate io.ReaderAt-based
handle so stage-2 worker clones can each hold an independent file
descriptor without contending on a shared seek offset.
*/
package flatnode
