package nodecache

import "errors"

// ErrOutOfOrder is returned by Set when the sparse path is active and id
// is not strictly greater than the last id appended to the sparse table.
var ErrOutOfOrder = errors.New("nodecache: out-of-order sparse insert")

// ErrCacheFull is returned by Set when the byte budget is exhausted and
// the cache is not running in lossy mode.
var ErrCacheFull = errors.New("nodecache: cache size too small, increase capacity")
