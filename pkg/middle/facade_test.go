package middle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm2pgsql/mid/pkg/nodecache"
	"github.com/osm2pgsql/mid/pkg/osm"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	store := openTestStore(t)
	f, err := NewFacade(FacadeConfig{
		Store:        store,
		NodeCache:    &nodecache.Config{Strategy: nodecache.StrategyDense, CacheSizeMB: 4},
		FlatNodePath: filepath.Join(t.TempDir(), "nodes.bin"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFacadeNodesRoundTrip(t *testing.T) {
	f := newTestFacade(t)

	require.NoError(t, f.NodesSet(1, 13.0, 52.0))
	require.NoError(t, f.NodesSet(2, 14.0, 53.0))

	got := f.NodesGetList([]osm.ID{1, 2, 3})
	require.Len(t, got, 2)
	assert.InDelta(t, 13.0, got[0].Lon, 1e-6)
	assert.InDelta(t, 14.0, got[1].Lon, 1e-6)
}

func TestFacadeNodesDelete(t *testing.T) {
	f := newTestFacade(t)

	require.NoError(t, f.NodesSet(1, 13.0, 52.0))
	require.NoError(t, f.NodesDelete(1))

	// Neither the RAM cache nor the flat file may still resolve id 1.
	got := f.NodesGetList([]osm.ID{1})
	assert.Empty(t, got)
}

func TestFacadeWayCacheInvalidatedOnSet(t *testing.T) {
	f := newTestFacade(t)

	require.NoError(t, f.WaysSet(&osm.Way{ID: 1, Tags: osm.Tags{"k": "v1"}}))
	w, err := f.WayGet(1)
	require.NoError(t, err)
	assert.Equal(t, "v1", w.Tags["k"])

	require.NoError(t, f.WaysSet(&osm.Way{ID: 1, Tags: osm.Tags{"k": "v2"}}))
	w, err = f.WayGet(1)
	require.NoError(t, err)
	assert.Equal(t, "v2", w.Tags["k"])
}

func TestFacadeCloneIndependentNodeCache(t *testing.T) {
	f := newTestFacade(t)
	require.NoError(t, f.NodesSet(1, 1, 1))

	clone, err := f.Clone()
	require.NoError(t, err)
	defer clone.Close()

	// The flat file is shared, so the clone still resolves via C even
	// though its RAM cache (B) starts cold.
	got := clone.NodesGetList([]osm.ID{1})
	require.Len(t, got, 1)
}

func TestFacadeRelationsUsingWay(t *testing.T) {
	f := newTestFacade(t)
	require.NoError(t, f.RelationsSet(&osm.Relation{
		ID:      10,
		Members: []osm.Member{{Type: osm.MemberWay, Ref: 7}},
	}))

	ids, err := f.RelationsUsingWay(7)
	require.NoError(t, err)
	assert.Equal(t, []osm.ID{10}, ids)
}

func TestFacadeWayMissingReturnsMissingCode(t *testing.T) {
	f := newTestFacade(t)
	_, err := f.WayGet(999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissing)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, CodeMissing, mErr.Code)
}
