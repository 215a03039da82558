package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// ring is a closed chain plus its cached signed area, used while the
// assembler sorts and classifies rings.
type ring struct {
	points   orb.Ring
	area     float64 // signed; positive is counter-clockwise
	isOuter  bool
	innerOf  int // index into the rings slice this is a hole of, -1 if none
}

// shoelaceArea returns the signed area of a closed ring (positive for
// counter-clockwise, negative for clockwise), via the standard shoelace
// formula. ring[0] must equal ring[len(ring)-1].
func shoelaceArea(pts orb.Ring) float64 {
	var sum float64
	for i := 0; i < len(pts)-1; i++ {
		p0, p1 := pts[i], pts[i+1]
		sum += p0[0]*p1[1] - p1[0]*p0[1]
	}
	return sum / 2
}

// buildRings keeps only the closed chains with at least four points
// (three distinct vertices plus the closing repeat) and non-zero area,
// and sorts the survivors by |area| descending.
func buildRings(chains []orb.LineString) []*ring {
	var rings []*ring
	for _, c := range chains {
		if len(c) < 4 || c[0] != c[len(c)-1] {
			continue
		}
		area := shoelaceArea(orb.Ring(c))
		if area == 0 {
			continue
		}
		rings = append(rings, &ring{points: orb.Ring(c), area: area, innerOf: -1})
	}
	sort.SliceStable(rings, func(i, j int) bool {
		return math.Abs(rings[i].area) > math.Abs(rings[j].area)
	})
	return rings
}

// classifyHoles assigns each ring to be either top-level (outer) or a
// hole of an enclosing outer, per the nested-containment rule: j is a
// hole of i only if no intermediate ring k (already a hole of i) itself
// contains j, in which case j is a deeper-nested outer instead.
func classifyHoles(rings []*ring) {
	contained := make([]bool, len(rings))

	for i, outer := range rings {
		if contained[i] {
			continue
		}
		outer.isOuter = true

		for j := i + 1; j < len(rings); j++ {
			if contained[j] {
				continue
			}
			if !ringContainsRing(outer.points, rings[j].points) {
				continue
			}

			nested := false
			for k := i + 1; k < j; k++ {
				if rings[k].innerOf == i && ringContainsRing(rings[k].points, rings[j].points) {
					nested = true
					break
				}
			}
			if nested {
				continue
			}
			rings[j].innerOf = i
			contained[j] = true
		}
	}
}

// ringContainsRing reports whether inner lies inside outer, tested by
// inner's first vertex only: a ring produced by ring formation from
// real way geometry either nests fully or not at all, so one
// representative point suffices.
func ringContainsRing(outer, inner orb.Ring) bool {
	return pointInRing(outer, inner[0])
}

// pointInRing is the standard ray-casting point-in-polygon test,
// inclusive of the boundary.
func pointInRing(r orb.Ring, p orb.Point) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := r[i], r[j]
		if pi == p {
			return true
		}
		if (pi[1] > p[1]) != (pj[1] > p[1]) {
			xIntersect := (pj[0]-pi[0])*(p[1]-pi[1])/(pj[1]-pi[1]) + pi[0]
			if p[0] == xIntersect {
				return true
			}
			if p[0] < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// normalizeOrientation reverses ring in place if needed so outer rings
// wind counter-clockwise (positive signed area) and holes wind clockwise
// (negative signed area), the conventional orb.Polygon orientation.
func normalizeOrientation(pts orb.Ring, area float64, outer bool) orb.Ring {
	if (outer && area < 0) || (!outer && area > 0) {
		return reverseRing(pts)
	}
	return pts
}

func reverseRing(pts orb.Ring) orb.Ring {
	out := make(orb.Ring, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
