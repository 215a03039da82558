package geometry

import "errors"

// ErrNoGeometry is returned when a relation's ways contribute no usable
// segments at all (every way has fewer than two resolved nodes).
var ErrNoGeometry = errors.New("geometry: no usable way segments")

// ErrRingUnrepairable is returned when a self-touching ring cannot be
// split into any simple loop of at least three distinct vertices.
var ErrRingUnrepairable = errors.New("geometry: ring could not be repaired")
