package flatnode

import "errors"

// ErrInvalidID is returned when a negative id is passed to Set; the file
// is indexed by unsigned node id only.
var ErrInvalidID = errors.New("flatnode: negative node id")

// ErrIO wraps a read or write failure against the backing file.
var ErrIO = errors.New("flatnode: i/o failure")
