package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// isSimpleRing reports whether any vertex other than the closing repeat
// appears more than once. A repeated vertex means the ring touches
// itself and needs the repair pass before it can be used.
func isSimpleRing(pts orb.Ring) bool {
	seen := make(map[orb.Point]bool, len(pts))
	for i := 0; i < len(pts)-1; i++ {
		if seen[pts[i]] {
			return false
		}
		seen[pts[i]] = true
	}
	return true
}

// closeRing appends the first point if the slice isn't already closed.
func closeRing(pts orb.Ring) orb.Ring {
	if len(pts) > 0 && pts[0] == pts[len(pts)-1] {
		return pts
	}
	out := make(orb.Ring, len(pts)+1)
	copy(out, pts)
	out[len(pts)] = pts[0]
	return out
}

// repairRing recovers a simple ring from a self-touching one without a
// geometry kernel: it finds the first repeated vertex, splits the ring
// into the two loops that share it, repairs each side recursively, and
// keeps the larger by |area|. It fails if neither side can be reduced
// to a simple ring of at least three distinct vertices.
func repairRing(pts orb.Ring) (orb.Ring, error) {
	if isSimpleRing(pts) {
		if len(pts) < 4 {
			return nil, ErrRingUnrepairable
		}
		return pts, nil
	}

	seen := make(map[orb.Point]int, len(pts))
	for i := 0; i < len(pts)-1; i++ {
		p := pts[i]
		first, ok := seen[p]
		if !ok {
			seen[p] = i
			continue
		}

		// loopA: the self-contained sub-loop between the two visits.
		loopA := closeRing(append(orb.Ring{}, pts[first:i+1]...))
		// loopB: the remainder, splicing the tail back onto the head.
		loopB := closeRing(append(append(orb.Ring{}, pts[:first+1]...), pts[i+1:]...))

		fixedA, errA := repairRing(loopA)
		fixedB, errB := repairRing(loopB)

		switch {
		case errA == nil && errB == nil:
			if math.Abs(shoelaceArea(fixedA)) >= math.Abs(shoelaceArea(fixedB)) {
				return fixedA, nil
			}
			return fixedB, nil
		case errA == nil:
			return fixedA, nil
		case errB == nil:
			return fixedB, nil
		default:
			return nil, ErrRingUnrepairable
		}
	}

	return nil, ErrRingUnrepairable
}
