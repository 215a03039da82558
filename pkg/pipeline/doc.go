/*
Package pipeline drives stage-2 reprocessing: the pass that runs after
stage 1 ingestion has recorded nodes, ways and relations and marked the
changed ways and relations as pending.

Runner.RunStage2 first drains Trackers.WaysPending on the driving
goroutine: each popped way not already in WaysDone is resolved through
the way->relations reverse index and the relations using it are marked
into RelationsPending, so a changed way forces every relation built from
it to be reassembled. It then pops relation ids off RelationsPending in
ascending order (still one driving goroutine, matching
idtracker.Tracker's single-owner contract) and, for each one, acquires a
slot on a
golang.org/x/sync/semaphore.Weighted-bounded pool before spawning a
goroutine that clones the middle.Facade, resolves the relation's member
ways and their node coordinates, and hands them to the geometry package.
This is the usual thread-pool-per-stage shape, expressed as a bounded,
self-terminating pool instead of a long-lived supervisor goroutine.

Cancellation is cooperative at the relation boundary: the driving loop
checks ctx.Err() before each pop and before each semaphore acquire. No
idtracker, nodecache or geometry call blocks on or accepts a context; only
this package's own coordination points and middle's bbolt/flatnode I/O do.

A relation whose assembly errors only aborts that relation: the error is
reported through RunStage2's callback, and the pool keeps draining the
rest of the pending set.
*/
package pipeline
