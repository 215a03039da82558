package geometry

import "github.com/paulmach/orb"

// AssembleMultipolygons runs the full ring-formation pipeline over a
// relation's member ways: line merge, ring formation, area-descending
// sort, hole classification, orientation normalization, and validity
// repair. Any single broken ring is handled per opts and never aborts
// the rest of the relation. A relation whose ways contribute no segment
// of two or more points returns ErrNoGeometry. A relation with segments
// but no closed rings returns a zero-value Result (len(Polygons) == 0,
// nil error); callers wanting the line fallback call AssembleLines
// themselves.
func AssembleMultipolygons(ways []Way, opts Options) (Result, error) {
	lines := buildLines(ways)
	if len(lines) == 0 {
		return Result{}, ErrNoGeometry
	}

	chains := mergeLines(lines)
	rings := buildRings(chains)
	if len(rings) == 0 {
		return Result{}, nil
	}

	classifyHoles(rings)

	var polygons []orb.Polygon
	dropped, repaired := 0, 0

	for i, r := range rings {
		if !r.isOuter {
			continue
		}

		outerRing, wasRepaired, ok := repairOrDrop(r.points, r.area, true, opts)
		if !ok {
			dropped++
			continue
		}
		if wasRepaired {
			repaired++
		}
		poly := orb.Polygon{outerRing}

		broken := false
		for _, hole := range rings {
			if hole.innerOf != i {
				continue
			}
			holeRing, wasRepaired, ok := repairOrDrop(hole.points, hole.area, false, opts)
			if !ok {
				broken = true
				break
			}
			if wasRepaired {
				repaired++
			}
			poly = append(poly, holeRing)
		}
		if broken {
			dropped++
			continue
		}

		polygons = append(polygons, poly)
	}

	return Result{
		Polygons: polygons,
		Multi:    opts.MultiOutput && len(polygons) > 1,
		Dropped:  dropped,
		Repaired: repaired,
	}, nil
}

// repairOrDrop normalizes orientation and, if the ring self-touches,
// either drops it (ExcludeBrokenPolygons) or attempts repair. The middle
// return reports whether a repair actually ran and succeeded.
func repairOrDrop(pts orb.Ring, area float64, outer bool, opts Options) (orb.Ring, bool, bool) {
	repaired := false
	if !isSimpleRing(pts) {
		if opts.ExcludeBrokenPolygons {
			return nil, false, false
		}
		fixed, err := repairRing(pts)
		if err != nil {
			return nil, false, false
		}
		pts = fixed
		area = shoelaceArea(pts)
		repaired = true
	}
	return normalizeOrientation(pts, area, outer), repaired, true
}

// AssembleLines merges a relation's ways into maximal chains without
// attempting ring formation, for relations that carry no area at all.
// It is the route-style fallback emitted when no member chain closes.
func AssembleLines(ways []Way) orb.MultiLineString {
	lines := buildLines(ways)
	if len(lines) == 0 {
		return nil
	}
	chains := mergeLines(lines)
	return orb.MultiLineString(chains)
}
