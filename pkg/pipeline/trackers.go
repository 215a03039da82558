package pipeline

import "github.com/osm2pgsql/mid/pkg/idtracker"

// Trackers bundles the three pending-id sets stage 2 coordinates:
// WaysPending holds ways changed during ingestion, WaysDone records ways
// whose referencing relations have already been marked so a second drain
// skips them, and RelationsPending holds the relations queued for
// reassembly. Each Tracker is single-goroutine-owned; only the goroutine
// running RunStage2's driving loop touches any of them.
type Trackers struct {
	WaysPending      *idtracker.Tracker
	WaysDone         *idtracker.Tracker
	RelationsPending *idtracker.Tracker
}

// NewTrackers returns a Trackers with all three sets freshly initialized.
func NewTrackers() *Trackers {
	return &Trackers{
		WaysPending:      idtracker.New(),
		WaysDone:         idtracker.New(),
		RelationsPending: idtracker.New(),
	}
}

// WaysPendingLen, WaysDoneLen and RelationsPendingLen satisfy
// metrics.TrackerDepths without metrics needing to import this package.
func (t *Trackers) WaysPendingLen() int      { return t.WaysPending.Len() }
func (t *Trackers) WaysDoneLen() int         { return t.WaysDone.Len() }
func (t *Trackers) RelationsPendingLen() int { return t.RelationsPending.Len() }
