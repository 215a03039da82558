package main

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/osm2pgsql/mid/pkg/geometry"
	"github.com/osm2pgsql/mid/pkg/osm"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble multipolygons from a fixture without touching a store",
	Long: `assemble resolves a fixture's relations directly against its own node
and way tables, in memory, and runs them through pkg/geometry. Unlike "run"
it never opens a bbolt store or a flat node file; it exists to exercise the
assembler in isolation against hand-written test fixtures.`,
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().StringP("fixture", "f", "", "JSON fixture file to assemble (required)")
	assembleCmd.Flags().Int64("relation", 0, "Assemble only this relation id (default: all relations in the fixture)")
	assembleCmd.Flags().Bool("multi-output", false, "Package multiple top-level polygons as one multipolygon")
	assembleCmd.Flags().Bool("exclude-broken", false, "Drop self-touching polygons instead of repairing them")
	assembleCmd.Flags().Float64("split-length", 0, "Split lines-only output into chunks no longer than this (0 disables)")
	_ = assembleCmd.MarkFlagRequired("fixture")
}

// assembleReport is the JSON shape printed for one relation's result. It
// is a diagnostic shape for this CLI, not any on-disk or wire format the
// core itself prescribes.
type assembleReport struct {
	RelationID osm.ID           `json:"relation_id"`
	Polygons   int              `json:"polygons"`
	Multi      bool             `json:"multi"`
	Dropped    int              `json:"dropped"`
	Repaired   int              `json:"repaired"`
	LinesOnly  bool             `json:"lines_only"`
	Lines      [][][2]float64   `json:"lines,omitempty"`
	Rings      [][][][2]float64 `json:"rings,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func runAssemble(cmd *cobra.Command, args []string) error {
	fixturePath, _ := cmd.Flags().GetString("fixture")
	relFilter, _ := cmd.Flags().GetInt64("relation")
	multiOutput, _ := cmd.Flags().GetBool("multi-output")
	excludeBroken, _ := cmd.Flags().GetBool("exclude-broken")
	splitLength, _ := cmd.Flags().GetFloat64("split-length")

	fx, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	nodes := make(map[osm.ID]fixtureNode, len(fx.Nodes))
	for _, n := range fx.Nodes {
		nodes[n.ID] = n
	}
	ways := make(map[osm.ID]fixtureWay, len(fx.Ways))
	for _, w := range fx.Ways {
		ways[w.ID] = w
	}

	opts := geometry.Options{
		MultiOutput:           multiOutput,
		ExcludeBrokenPolygons: excludeBroken,
		SplitLength:           splitLength,
	}

	var reports []assembleReport
	for _, r := range fx.Rels {
		if relFilter != 0 && int64(r.ID) != relFilter {
			continue
		}
		reports = append(reports, assembleOne(r.toRelation(), ways, nodes, opts))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func assembleOne(rel *osm.Relation, ways map[osm.ID]fixtureWay, nodes map[osm.ID]fixtureNode, opts geometry.Options) assembleReport {
	report := assembleReport{RelationID: rel.ID}

	gways := make([]geometry.Way, 0, len(rel.WayMembers()))
	for _, wid := range rel.WayMembers() {
		w, ok := ways[wid]
		if !ok {
			continue
		}
		gways = append(gways, geometry.Way{ID: w.ID, Points: resolveWayPoints(w, nodes)})
	}

	res, err := geometry.AssembleMultipolygons(gways, opts)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Polygons = len(res.Polygons)
	report.Multi = res.Multi
	report.Dropped = res.Dropped
	report.Repaired = res.Repaired

	if len(res.Polygons) == 0 {
		report.LinesOnly = true
		lines := geometry.AssembleLines(gways)
		if opts.SplitLength > 0 {
			lines = geometry.SplitMultiLineString(lines, opts.SplitLength)
		}
		report.Lines = make([][][2]float64, len(lines))
		for i, ls := range lines {
			pts := make([][2]float64, len(ls))
			for j, p := range ls {
				pts[j] = [2]float64{p[0], p[1]}
			}
			report.Lines[i] = pts
		}
		return report
	}

	report.Rings = make([][][][2]float64, len(res.Polygons))
	for i, poly := range res.Polygons {
		report.Rings[i] = make([][][2]float64, len(poly))
		for j, ring := range poly {
			pts := make([][2]float64, len(ring))
			for k, p := range ring {
				pts[k] = [2]float64{p[0], p[1]}
			}
			report.Rings[i][j] = pts
		}
	}
	return report
}

// resolveWayPoints looks up each of w's node references in nodes, in
// order, skipping ids that don't resolve, matching the façade's own
// "skip, never error" contract for node lookups.
func resolveWayPoints(w fixtureWay, nodes map[osm.ID]fixtureNode) orb.LineString {
	pts := make(orb.LineString, 0, len(w.Nodes))
	for _, id := range w.Nodes {
		if n, ok := nodes[id]; ok {
			pts = append(pts, orb.Point{n.Lon, n.Lat})
		}
	}
	return pts
}
