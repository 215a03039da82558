package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// SplitLine breaks ls into chunks no longer than maxLength, each starting
// exactly where the previous one ended. Cuts land at fixed distance
// thresholds rather than at existing vertices: a cut point is
// interpolated linearly between the input points that bracket it.
//
// maxLength <= 0 or a degenerate (fewer than two points) input returns
// ls unchanged as the sole chunk.
func SplitLine(ls orb.LineString, maxLength float64) []orb.LineString {
	if maxLength <= 0 || len(ls) < 2 {
		return []orb.LineString{ls}
	}

	var chunks []orb.LineString
	current := orb.LineString{ls[0]}
	currentLen := 0.0

	for i := 1; i < len(ls); i++ {
		segStart, segEnd := ls[i-1], ls[i]
		segLen := planarDistance(segStart, segEnd)
		if segLen == 0 {
			continue
		}

		segConsumed := 0.0
		for currentLen+(segLen-segConsumed) >= maxLength {
			need := maxLength - currentLen
			t := (segConsumed + need) / segLen
			cut := lerp(segStart, segEnd, t)
			current = append(current, cut)
			chunks = append(chunks, current)

			current = orb.LineString{cut}
			currentLen = 0
			segConsumed += need
		}

		// A cut landing exactly on segEnd already closed this chunk at
		// that point; appending segEnd again would leave a degenerate
		// zero-length tail.
		if segConsumed < segLen {
			current = append(current, segEnd)
			currentLen += segLen - segConsumed
		}
	}

	if len(current) >= 2 {
		chunks = append(chunks, current)
	}
	return chunks
}

// SplitMultiLineString applies SplitLine to each member of mls, flattening
// the result back into a single MultiLineString. maxLength <= 0 returns mls
// unchanged.
func SplitMultiLineString(mls orb.MultiLineString, maxLength float64) orb.MultiLineString {
	if maxLength <= 0 {
		return mls
	}

	out := make(orb.MultiLineString, 0, len(mls))
	for _, ls := range mls {
		out = append(out, SplitLine(ls, maxLength)...)
	}
	return out
}

func planarDistance(a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	return math.Sqrt(dx*dx + dy*dy)
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
	}
}
