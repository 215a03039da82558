package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSimpleRingDetectsRepeatedVertex(t *testing.T) {
	simple := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	assert.True(t, isSimpleRing(simple))

	touching := orb.Ring(selfTouchingRing())
	assert.False(t, isSimpleRing(touching))
}

func TestRepairRingKeepsLargerLoop(t *testing.T) {
	fixed, err := repairRing(orb.Ring(selfTouchingRing()))
	require.NoError(t, err)
	assert.True(t, isSimpleRing(fixed))

	// The surviving loop should be the pentagon, not the 2-edge spur.
	assert.Greater(t, len(fixed), 4)
}

func TestRepairRingFailsOnTinyLoop(t *testing.T) {
	tiny := orb.Ring{{0, 0}, {1, 1}, {0, 0}}
	_, err := repairRing(tiny)
	assert.ErrorIs(t, err, ErrRingUnrepairable)
}
