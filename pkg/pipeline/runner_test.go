package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm2pgsql/mid/pkg/geometry"
	"github.com/osm2pgsql/mid/pkg/middle"
	"github.com/osm2pgsql/mid/pkg/nodecache"
	"github.com/osm2pgsql/mid/pkg/osm"
)

func newTestFacade(t *testing.T) *middle.Facade {
	t.Helper()
	store, err := middle.OpenBoltStore(filepath.Join(t.TempDir(), "mid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f, err := middle.NewFacade(middle.FacadeConfig{
		Store:        store,
		NodeCache:    &nodecache.Config{Strategy: nodecache.StrategyDense, CacheSizeMB: 4},
		FlatNodePath: filepath.Join(t.TempDir(), "nodes.bin"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func putSquareRelation(t *testing.T, f *middle.Facade, relID, wayID osm.ID) {
	t.Helper()
	nodeIDs := []osm.ID{wayID*10 + 1, wayID*10 + 2, wayID*10 + 3, wayID*10 + 4}
	coords := [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	for i, id := range nodeIDs {
		require.NoError(t, f.NodesSet(id, coords[i][0], coords[i][1]))
	}

	way := &osm.Way{ID: wayID, Nodes: append(nodeIDs, nodeIDs[0])}
	require.NoError(t, f.WaysSet(way))

	rel := &osm.Relation{ID: relID, Members: []osm.Member{{Type: osm.MemberWay, Ref: wayID}}}
	require.NoError(t, f.RelationsSet(rel))
}

func TestRunStage2AssemblesSquareRelation(t *testing.T) {
	f := newTestFacade(t)
	putSquareRelation(t, f, 100, 1)

	trackers := NewTrackers()
	trackers.RelationsPending.Mark(100)

	runner := NewRunner(Config{Facade: f, NumWorkers: 2})

	var mu sync.Mutex
	var results []RelationResult
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, osm.ID(100), results[0].RelationID)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Assembled.Polygons, 1)
}

func TestRunStage2MissingRelationDoesNotAbortOthers(t *testing.T) {
	f := newTestFacade(t)
	putSquareRelation(t, f, 200, 2)

	trackers := NewTrackers()
	trackers.RelationsPending.Mark(999) // doesn't exist
	trackers.RelationsPending.Mark(200)

	runner := NewRunner(Config{Facade: f, NumWorkers: 2})

	var mu sync.Mutex
	results := map[osm.ID]RelationResult{}
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		mu.Lock()
		defer mu.Unlock()
		results[r.RelationID] = r
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Error(t, results[999].Err)
	assert.NoError(t, results[200].Err)
	assert.Len(t, results[200].Assembled.Polygons, 1)
}

func TestRunStage2PendingWayPropagatesToRelations(t *testing.T) {
	f := newTestFacade(t)
	putSquareRelation(t, f, 500, 5)

	// Only the way is marked pending: the relation must be found through
	// the way->relations reverse index.
	trackers := NewTrackers()
	trackers.WaysPending.Mark(5)

	runner := NewRunner(Config{Facade: f, NumWorkers: 2})

	var mu sync.Mutex
	var results []RelationResult
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, osm.ID(500), results[0].RelationID)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Assembled.Polygons, 1)

	assert.True(t, trackers.WaysDone.IsMarked(5))
	assert.Equal(t, 0, trackers.WaysPendingLen())
}

func TestRunStage2WayAlreadyDoneIsNotPropagated(t *testing.T) {
	f := newTestFacade(t)
	putSquareRelation(t, f, 600, 6)

	trackers := NewTrackers()
	trackers.WaysPending.Mark(6)
	trackers.WaysDone.Mark(6)

	runner := NewRunner(Config{Facade: f, NumWorkers: 1})

	count := 0
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		count++
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunStage2EmptyRelationYieldsEmptyResult(t *testing.T) {
	f := newTestFacade(t)
	require.NoError(t, f.RelationsSet(&osm.Relation{ID: 400}))

	trackers := NewTrackers()
	trackers.RelationsPending.Mark(400)

	runner := NewRunner(Config{Facade: f, NumWorkers: 1})

	var result RelationResult
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		result = r
	})
	require.NoError(t, err)

	assert.NoError(t, result.Err)
	assert.Empty(t, result.Assembled.Polygons)
	assert.Empty(t, result.Lines)
}

func putOpenLineRelation(t *testing.T, f *middle.Facade, relID, wayID osm.ID) {
	t.Helper()
	nodeIDs := []osm.ID{wayID*10 + 1, wayID*10 + 2}
	coords := [][2]float64{{0, 0}, {0.1, 0}}
	for i, id := range nodeIDs {
		require.NoError(t, f.NodesSet(id, coords[i][0], coords[i][1]))
	}

	way := &osm.Way{ID: wayID, Nodes: nodeIDs}
	require.NoError(t, f.WaysSet(way))

	rel := &osm.Relation{ID: relID, Members: []osm.Member{{Type: osm.MemberWay, Ref: wayID}}}
	require.NoError(t, f.RelationsSet(rel))
}

func TestRunStage2SplitsLinesOnlyFallback(t *testing.T) {
	f := newTestFacade(t)
	putOpenLineRelation(t, f, 300, 3)

	trackers := NewTrackers()
	trackers.RelationsPending.Mark(300)

	runner := NewRunner(Config{
		Facade:     f,
		NumWorkers: 1,
		Options:    geometry.Options{SplitLength: 0.03},
	})

	var result RelationResult
	err := runner.RunStage2(context.Background(), trackers, func(r RelationResult) {
		result = r
	})
	require.NoError(t, err)

	require.NoError(t, result.Err)
	require.Empty(t, result.Assembled.Polygons)
	require.Len(t, result.Lines, 4)
	assert.InDelta(t, 0.1, result.Lines[3][len(result.Lines[3])-1][0], 1e-9)
}

func TestRunStage2RespectsCancellation(t *testing.T) {
	f := newTestFacade(t)
	for i := osm.ID(0); i < 50; i++ {
		putSquareRelation(t, f, 1000+i, 10+i)
	}

	trackers := NewTrackers()
	for i := osm.ID(0); i < 50; i++ {
		trackers.RelationsPending.Mark(1000 + i)
	}

	runner := NewRunner(Config{Facade: f, NumWorkers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel from inside the first result callback: with a single worker
	// slot the driving loop cannot dequeue further relations until this
	// one finishes, so the cancellation lands at the relation boundary.
	var mu sync.Mutex
	count := 0
	err := runner.RunStage2(ctx, trackers, func(r RelationResult) {
		mu.Lock()
		defer mu.Unlock()
		count++
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, count, 50)
}
