package geometry

import (
	"github.com/paulmach/orb"

	"github.com/osm2pgsql/mid/pkg/osm"
)

// Way is one relation member's resolved node coordinates, in member order.
// Ways with fewer than two resolved points contribute nothing and are
// skipped by the assembler.
type Way struct {
	ID     osm.ID
	Points orb.LineString
}

// Options controls assembly behavior the surrounding tool drives from
// its configuration (multi-output, broken-polygon handling, splitting).
type Options struct {
	// MultiOutput packages more than one top-level polygon as a single
	// orb.MultiPolygon (Result.Multi true) instead of leaving them as
	// independent polygons for the caller to emit separately.
	MultiOutput bool

	// ExcludeBrokenPolygons drops a polygon outright when its outer ring
	// (or a hole) is self-touching, instead of attempting the repair pass.
	ExcludeBrokenPolygons bool

	// SplitLength bounds the length of each linestring in the lines-only
	// fallback emitted when assembly produces no polygons. Zero or
	// negative leaves lines unsplit.
	SplitLength float64
}

// Result is the outcome of assembling one relation's ways.
type Result struct {
	// Polygons holds the top-level assembled, validated polygons, each
	// with its holes already attached as interior rings.
	Polygons []orb.Polygon

	// Multi is true when Options.MultiOutput was set and more than one
	// polygon was produced; callers should then treat Polygons as the
	// members of one combined multipolygon rather than separate rows.
	Multi bool

	// Dropped counts polygons discarded because they were broken and
	// ExcludeBrokenPolygons was set, or because repair failed.
	Dropped int

	// Repaired counts self-touching rings the repair pass recovered a
	// simple ring from instead of discarding.
	Repaired int
}

// Geometry packages Result as a single orb.Geometry: nil when empty, the
// lone orb.Polygon when there is exactly one, or an orb.MultiPolygon when
// Multi is set. With more than one polygon and Multi unset it returns
// only the first polygon. This is a convenience for callers that want one
// value; it performs no I/O.
func (r Result) Geometry() orb.Geometry {
	switch {
	case len(r.Polygons) == 0:
		return nil
	case len(r.Polygons) == 1:
		return r.Polygons[0]
	case r.Multi:
		mp := make(orb.MultiPolygon, len(r.Polygons))
		copy(mp, r.Polygons)
		return mp
	default:
		return r.Polygons[0]
	}
}
