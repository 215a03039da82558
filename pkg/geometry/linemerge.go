package geometry

import "github.com/paulmach/orb"

// buildLines drops ways with fewer than two resolved points and returns
// the rest as a multilinestring, in member order.
func buildLines(ways []Way) []orb.LineString {
	lines := make([]orb.LineString, 0, len(ways))
	for _, w := range ways {
		if len(w.Points) >= 2 {
			lines = append(lines, w.Points)
		}
	}
	return lines
}

// mergeLines joins chains that share an endpoint into maximal chains.
// This is a direct O(n^2) repeated-pass join rather than an edge-graph
// walk, adequate for a single relation's way count.
func mergeLines(lines []orb.LineString) []orb.LineString {
	chains := make([]orb.LineString, len(lines))
	copy(chains, lines)

	for {
		joinedAny := false
	pass:
		for i := 0; i < len(chains); i++ {
			for j := i + 1; j < len(chains); j++ {
				if joined, ok := tryJoin(chains[i], chains[j]); ok {
					chains[i] = joined
					chains = append(chains[:j], chains[j+1:]...)
					joinedAny = true
					break pass
				}
			}
		}
		if !joinedAny {
			break
		}
	}
	return chains
}

// tryJoin attempts to join b onto a at whichever shared endpoint exists,
// reversing either side as needed. Returns false if they share no endpoint.
func tryJoin(a, b orb.LineString) (orb.LineString, bool) {
	aStart, aEnd := a[0], a[len(a)-1]
	bStart, bEnd := b[0], b[len(b)-1]

	switch {
	case aEnd == bStart:
		return appendChain(a, b), true
	case aEnd == bEnd:
		return appendChain(a, reverseLine(b)), true
	case aStart == bEnd:
		return appendChain(b, a), true
	case aStart == bStart:
		return appendChain(reverseLine(a), b), true
	default:
		return nil, false
	}
}

// appendChain joins a and b, which must already share a.end == b.start,
// dropping the duplicated joint point.
func appendChain(a, b orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(a)+len(b)-1)
	out = append(out, a...)
	out = append(out, b[1:]...)
	return out
}

func reverseLine(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}
