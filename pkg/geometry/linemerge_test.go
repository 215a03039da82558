package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLinesJoinsSharedEndpoint(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 1}}
	b := orb.LineString{{1, 1}, {2, 2}}

	merged := mergeLines([]orb.LineString{a, b})
	require.Len(t, merged, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 2}}, merged[0])
}

func TestMergeLinesJoinsReversedEndpoint(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 1}}
	b := orb.LineString{{2, 2}, {1, 1}} // shares a.end == b.end

	merged := mergeLines([]orb.LineString{a, b})
	require.Len(t, merged, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 2}}, merged[0])
}

func TestMergeLinesLeavesDisjointChainsSeparate(t *testing.T) {
	a := orb.LineString{{0, 0}, {1, 1}}
	b := orb.LineString{{10, 10}, {11, 11}}

	merged := mergeLines([]orb.LineString{a, b})
	assert.Len(t, merged, 2)
}

func TestMergeLinesClosesSquare(t *testing.T) {
	ways := []orb.LineString{
		{{0, 0}, {10, 0}},
		{{10, 0}, {10, 10}},
		{{10, 10}, {0, 10}},
		{{0, 10}, {0, 0}},
	}

	merged := mergeLines(ways)
	require.Len(t, merged, 1)
	assert.Equal(t, merged[0][0], merged[0][len(merged[0])-1])
	assert.Len(t, merged[0], 5)
}
