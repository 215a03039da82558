package flatnode

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm2pgsql/mid/pkg/osm"
)

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(42, 13.4, 52.5))

	loc, ok := s.Get(42)
	require.True(t, ok)
	assert.InDelta(t, 13.4, loc.Lon, 1e-6)
	assert.InDelta(t, 52.5, loc.Lat, 1e-6)
}

func TestNeverWrittenReturnsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(100, 1, 1))

	_, ok := s.Get(5) // slot 5 was never written, falls within the hole before slot 100
	assert.False(t, ok)
}

func TestDeleteMarksSlotMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(42, 13.4, 52.5))
	require.NoError(t, s.Delete(42))

	_, ok := s.Get(42)
	assert.False(t, ok)

	// Deleting past the end of the file must not grow it.
	sizeBefore, err := s.Size()
	require.NoError(t, err)
	require.NoError(t, s.Delete(10000))
	sizeAfter, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, sizeAfter)
}

func TestNegativeIDRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	err = s.Set(-1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, ok := s.Get(-1)
	assert.False(t, ok)
}

func TestFileSizeGrowsToSlotBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(9, 1, 1))
	info, err := s.f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(10*slotSize), info.Size())
	require.NoError(t, s.Close())
}

func TestMaxInt32IDRoundTrip(t *testing.T) {
	// The file is grown by Truncate, so the ~17 GB below id 2^31-1 stays
	// a hole; only the written slot's page is ever allocated.
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	const maxID = osm.ID(1<<31 - 1)
	require.NoError(t, s.Set(maxID, 179.9, 85.0))

	loc, ok := s.Get(maxID)
	require.True(t, ok)
	assert.InDelta(t, 179.9, loc.Lon, 1e-6)
	assert.InDelta(t, 85.0, loc.Lat, 1e-6)

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(maxID+1)*slotSize, size)
}

func TestGetListPreservesOrderSkipsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(1, 10, 10))
	require.NoError(t, s.Set(3, 30, 30))

	got := s.GetList([]osm.ID{1, 2, 3})
	require.Len(t, got, 2)
	assert.InDelta(t, 10.0, got[0].Lon, 1e-6)
	assert.InDelta(t, 30.0, got[1].Lon, 1e-6)
}

func TestReaderSeesWriterData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.bin")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(7, 5, 6))
	require.NoError(t, s.Close())

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	loc, ok := r.Get(7)
	require.True(t, ok)
	assert.InDelta(t, 5.0, loc.Lon, 1e-6)
	assert.InDelta(t, 6.0, loc.Lat, 1e-6)

	_, ok = r.Get(8)
	assert.False(t, ok)
}
