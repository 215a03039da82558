/*
Package log provides structured logging for the middle layer and the
multipolygon assembler using zerolog.

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("nodecache")                │          │
	│  │  - WithWayID(1234)                          │          │
	│  │  - WithRelationID(5678)                     │          │
	│  │  - WithStage("assemble")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON: {"level":"info","component":"assembler", │      │
	│  │         "time":"...","message":"ring assembled"} │    │
	│  │  Console: 10:30AM INF ring assembled component=... │  │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("stage 1 import complete")
	log.Warn("way references missing node")

	relLog := log.WithRelationID(rel.ID)
	relLog.Info().Int("ring_count", len(rings)).Msg("multipolygon built")

	stageLog := log.WithStage("stage2")
	stageLog.Info().Int("workers", n).Msg("pipeline started")

# Context Loggers

  - WithComponent: tags all subsequent logs with a component name
  - WithWayID / WithRelationID: tags logs with the object under processing
  - WithStage: tags logs with the pipeline stage name (e.g. "stage1", "stage2")

This package is used by pkg/nodecache, pkg/pipeline and cmd/midctl.
Always use .Err(err) for error
values and typed fields (.Int64, .Str) rather than string concatenation.
*/
package log
