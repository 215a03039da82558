package idtracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm2pgsql/mid/pkg/osm"
)

func TestMarkIsMarkedUnmark(t *testing.T) {
	tr := New()

	assert.False(t, tr.IsMarked(42))
	tr.Mark(42)
	assert.True(t, tr.IsMarked(42))

	tr.Mark(42) // duplicate mark is a silent no-op
	assert.Equal(t, 1, tr.Len())

	tr.Unmark(42)
	assert.False(t, tr.IsMarked(42))
	assert.Equal(t, 0, tr.Len())
}

func TestPopMarkStrictlyIncreasing(t *testing.T) {
	tr := New()
	tr.Mark(5)
	tr.Mark(1)
	tr.Mark(3)

	assert.Equal(t, osm.ID(1), tr.PopMark())
	assert.Equal(t, osm.ID(1), tr.LastReturned())
	assert.Equal(t, osm.ID(3), tr.PopMark())
	assert.Equal(t, osm.ID(5), tr.PopMark())
	assert.Equal(t, Empty, tr.PopMark())
	assert.Equal(t, Empty, tr.PopMark())
}

func TestLastReturnedEmptyBeforeAnyPop(t *testing.T) {
	tr := New()
	assert.Equal(t, Empty, tr.LastReturned())
}

func TestPopMarkNegativeIDsOrderCorrectly(t *testing.T) {
	tr := New()
	for _, id := range []osm.ID{-10, -5, 0, 5, 10} {
		tr.Mark(id)
	}

	var got []osm.ID
	for {
		id := tr.PopMark()
		if id == Empty {
			break
		}
		got = append(got, id)
	}

	require.Equal(t, []osm.ID{-10, -5, 0, 5, 10}, got)
}

func TestPopMarkMonotonicityViolationPanics(t *testing.T) {
	tr := New()
	tr.Mark(10)
	require.Equal(t, osm.ID(10), tr.PopMark())

	// Simulate a caller re-marking an id at or below the watermark and
	// popping again: this must be fatal, not silently accepted.
	tr.pending.Add(encode(10))

	assert.Panics(t, func() {
		tr.PopMark()
	})
}

func TestReset(t *testing.T) {
	tr := New()
	tr.Mark(1)
	tr.PopMark()
	tr.Mark(2)

	tr.Reset()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, Empty, tr.LastReturned())

	// After reset, the watermark no longer blocks re-marking id 1.
	tr.Mark(1)
	assert.Equal(t, osm.ID(1), tr.PopMark())
}
