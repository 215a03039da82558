package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/osm2pgsql/mid/pkg/geometry"
	"github.com/osm2pgsql/mid/pkg/idtracker"
	"github.com/osm2pgsql/mid/pkg/log"
	"github.com/osm2pgsql/mid/pkg/metrics"
	"github.com/osm2pgsql/mid/pkg/middle"
	"github.com/osm2pgsql/mid/pkg/osm"
)

// Config configures a Runner.
type Config struct {
	// Facade is the primary, writable façade; each worker goroutine gets
	// its own read-only Clone() of it.
	Facade *middle.Facade

	// NumWorkers bounds how many relations are assembled concurrently.
	// Defaults to 1 if <= 0.
	NumWorkers int64

	// Options is passed through to geometry.AssembleMultipolygons.
	Options geometry.Options
}

// RelationResult is what RunStage2 reports for one relation. Exactly one
// of Assembled.Polygons, Lines, or Err is meaningful: Err set means
// assembly failed for this relation only; an empty Assembled with no
// Lines means the relation had no usable way geometry at all.
type RelationResult struct {
	RelationID osm.ID
	Assembled  geometry.Result
	Lines      orb.MultiLineString
	Err        error
}

// Runner drives stage-2 relation reprocessing.
type Runner struct {
	facade *middle.Facade
	sem    *semaphore.Weighted
	opts   geometry.Options
}

// NewRunner builds a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	n := cfg.NumWorkers
	if n <= 0 {
		n = 1
	}
	return &Runner{
		facade: cfg.Facade,
		sem:    semaphore.NewWeighted(n),
		opts:   cfg.Options,
	}
}

// RunStage2 first propagates t.WaysPending into t.RelationsPending
// through the way->relations reverse index, then drains
// t.RelationsPending in ascending order, processing each relation on a
// semaphore-bounded goroutine with its own Facade clone, until the set
// is empty or ctx is canceled. onResult is invoked once per relation
// that was dequeued; it may be called concurrently from different
// goroutines and must not block.
func (r *Runner) RunStage2(ctx context.Context, t *Trackers, onResult func(RelationResult)) error {
	runID := uuid.New().String()
	logger := log.WithStage("stage2").With().Str("run_id", runID).Logger()
	var wg sync.WaitGroup

	if err := r.propagatePendingWays(ctx, t, logger); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			break
		}

		id := t.RelationsPending.PopMark()
		if id == idtracker.Empty {
			break
		}

		if err := r.sem.Acquire(ctx, 1); err != nil {
			onResult(RelationResult{RelationID: id, Err: err})
			break
		}

		wg.Add(1)
		go func(id osm.ID) {
			defer wg.Done()
			defer r.sem.Release(1)

			cloneID := uuid.New().String()
			cloneLogger := logger.With().Str("clone_id", cloneID).Logger()

			clone, err := r.facade.Clone()
			if err != nil {
				cloneLogger.Error().Err(err).Int64("relation_id", int64(id)).Msg("facade clone failed")
				onResult(RelationResult{RelationID: id, Err: err})
				return
			}
			defer clone.Close()

			onResult(processRelation(clone, id, r.opts))
		}(id)
	}

	wg.Wait()
	return ctx.Err()
}

// propagatePendingWays pops every id off t.WaysPending in ascending
// order and marks the relations using that way (via the reverse index)
// into t.RelationsPending, so a way that changed in stage 1 causes every
// relation referencing it to be reassembled. Ways already in t.WaysDone
// are skipped; each propagated way is marked done so a later drain does
// not repeat it. Runs on the driving goroutine only, matching the
// trackers' single-owner contract.
func (r *Runner) propagatePendingWays(ctx context.Context, t *Trackers, logger zerolog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := t.WaysPending.PopMark()
		if id == idtracker.Empty {
			return nil
		}
		if t.WaysDone.IsMarked(id) {
			continue
		}

		rels, err := r.facade.RelationsUsingWay(id)
		if err != nil {
			logger.Warn().Err(err).Int64("way_id", int64(id)).Msg("reverse index lookup failed")
			continue
		}
		for _, relID := range rels {
			t.RelationsPending.Mark(relID)
		}
		t.WaysDone.Mark(id)
	}
}

// processRelation resolves one relation's member ways and their node
// coordinates through f, then assembles the result. Any failure here is
// scoped to this relation; it never stops the caller's pool.
func processRelation(f *middle.Facade, id osm.ID, opts geometry.Options) RelationResult {
	timer := metrics.NewTimer()
	defer func() { timer.ObserveDuration(metrics.Stage2RelationDuration) }()

	result := processRelationUnmetered(f, id, opts)

	metrics.RelationsProcessedTotal.Inc()
	if result.Err != nil {
		metrics.RelationsFailedTotal.Inc()
	}
	if result.Assembled.Dropped > 0 {
		metrics.GeometryDiscardedTotal.Add(float64(result.Assembled.Dropped))
	}
	if result.Assembled.Repaired > 0 {
		metrics.GeometryRepairedTotal.Add(float64(result.Assembled.Repaired))
	}
	return result
}

func processRelationUnmetered(f *middle.Facade, id osm.ID, opts geometry.Options) RelationResult {
	rel, err := f.RelationGet(id)
	if err != nil {
		return RelationResult{RelationID: id, Err: err}
	}

	ways, err := f.WaysGetList(rel.WayMembers())
	if err != nil {
		return RelationResult{RelationID: id, Err: err}
	}

	gways := make([]geometry.Way, 0, len(ways))
	for _, w := range ways {
		locs := f.NodesGetList(w.Nodes)
		pts := make(orb.LineString, len(locs))
		for i, loc := range locs {
			pts[i] = orb.Point{loc.Lon, loc.Lat}
		}
		gways = append(gways, geometry.Way{ID: w.ID, Points: pts})
	}

	res, err := geometry.AssembleMultipolygons(gways, opts)
	if err != nil {
		// A relation whose ways contribute no usable segments (including
		// an empty relation) yields an empty geometry list, not an error.
		if errors.Is(err, geometry.ErrNoGeometry) {
			return RelationResult{RelationID: id}
		}
		return RelationResult{RelationID: id, Err: err}
	}

	if len(res.Polygons) == 0 {
		lines := geometry.AssembleLines(gways)
		if opts.SplitLength > 0 {
			lines = geometry.SplitMultiLineString(lines, opts.SplitLength)
		}
		return RelationResult{RelationID: id, Assembled: res, Lines: lines}
	}

	return RelationResult{RelationID: id, Assembled: res}
}
