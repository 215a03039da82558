package nodecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm2pgsql/mid/pkg/osm"
)

func TestSetGetDense(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 4})

	require.NoError(t, c.Set(1, 13.4, 52.5))
	loc, ok := c.Get(1)
	require.True(t, ok)
	assert.InDelta(t, 13.4, loc.Lon, 1e-6)
	assert.InDelta(t, 52.5, loc.Lat, 1e-6)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestGetListSkipsMissing(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 4})
	require.NoError(t, c.Set(1, 1, 1))
	require.NoError(t, c.Set(3, 3, 3))

	got := c.GetList([]osm.ID{1, 2, 3})
	require.Len(t, got, 2)
	assert.InDelta(t, 1.0, got[0].Lon, 1e-6)
	assert.InDelta(t, 3.0, got[1].Lon, 1e-6)
}

func TestSparseRejectsOutOfOrder(t *testing.T) {
	c := New(Config{Strategy: StrategySparse, CacheSizeMB: 4})
	require.NoError(t, c.Set(5, 1, 1))
	err := c.Set(3, 1, 1)
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestSparseLossyDropsOutOfOrder(t *testing.T) {
	c := New(Config{Strategy: StrategySparse | StrategyLossy, CacheSizeMB: 4})
	require.NoError(t, c.Set(5, 1, 1))
	assert.NoError(t, c.Set(3, 1, 1))

	_, ok := c.Get(3)
	assert.False(t, ok)
}

func TestSparseAcceptsStrictlyIncreasing(t *testing.T) {
	c := New(Config{Strategy: StrategySparse, CacheSizeMB: 4})
	for _, id := range []osm.ID{1, 5, 9, 100} {
		require.NoError(t, c.Set(id, float64(id), float64(id)))
	}
	for _, id := range []osm.ID{1, 5, 9, 100} {
		loc, ok := c.Get(id)
		require.True(t, ok)
		assert.InDelta(t, float64(id), loc.Lon, 1e-6)
	}
}

func TestHybridMigratesUnderfilledBlockToSparse(t *testing.T) {
	// A 1 MB budget allows 15 dense blocks; migration does not depend on
	// the budget but on each finished block's fill.
	c := New(Config{Strategy: StrategyDense | StrategySparse, CacheSizeMB: 1})

	// Fill one id far apart per block to keep blocks sparse within
	// themselves, forcing the under-fill migration path on rollover.
	for i := 0; i < perBlock*3; i += perBlock {
		require.NoError(t, c.Set(osm.ID(i), float64(i), float64(i)))
	}

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.StoredNodes, int64(1))
}

func TestLossyDropsOnCacheFull(t *testing.T) {
	c := New(Config{Strategy: StrategyDense | StrategyLossy, CacheSizeMB: 0})
	assert.NoError(t, c.Set(1, 1, 1))
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestNonLossyErrorsOnCacheFull(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 0})
	err := c.Set(1, 1, 1)
	assert.NoError(t, err) // maxBlocks == 0 is treated as a disabled dense path, not an error

	sc := New(Config{Strategy: StrategySparse, CacheSizeMB: 0})
	require.NoError(t, sc.Set(1, 1, 1)) // a zero-byte budget still allows one sparse entry
	err = sc.Set(2, 2, 2)
	assert.ErrorIs(t, err, ErrCacheFull)
}

func TestDeleteDense(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 4})
	require.NoError(t, c.Set(1, 1, 1))

	c.Delete(1)
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Stats().StoredNodes)

	c.Delete(999) // absent id is a no-op
}

func TestDeleteSparseTombstones(t *testing.T) {
	c := New(Config{Strategy: StrategySparse, CacheSizeMB: 4})
	require.NoError(t, c.Set(1, 1, 1))
	require.NoError(t, c.Set(5, 5, 5))
	require.NoError(t, c.Set(9, 9, 9))

	c.Delete(5)
	_, ok := c.Get(5)
	assert.False(t, ok)

	// Neighbors are untouched and still found by binary search.
	_, ok = c.Get(1)
	assert.True(t, ok)
	_, ok = c.Get(9)
	assert.True(t, ok)
}

func TestStatsHitRate(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 4})
	require.NoError(t, c.Set(1, 1, 1))

	c.Get(1)
	c.Get(1)
	c.Get(999)

	stats := c.Stats()
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestNegativeIDRoundTrip(t *testing.T) {
	c := New(Config{Strategy: StrategyDense, CacheSizeMB: 4})
	require.NoError(t, c.Set(-12345, -7.5, 51.2))

	loc, ok := c.Get(-12345)
	require.True(t, ok)
	assert.InDelta(t, -7.5, loc.Lon, 1e-6)
	assert.InDelta(t, 51.2, loc.Lat, 1e-6)
}
