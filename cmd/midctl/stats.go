package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/osm2pgsql/mid/pkg/config"
	"github.com/osm2pgsql/mid/pkg/middle"
	"github.com/osm2pgsql/mid/pkg/nodecache"
	"github.com/osm2pgsql/mid/pkg/osm"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Ingest a fixture into a throwaway store and report cache occupancy",
	Long: `stats ingests a fixture the same way "run" does, then reports the RAM
node cache's fill and hit rate, the flat node file's size, and the
way/relation/pending counts: the same figures pkg/metrics exposes over
HTTP, printed once to stdout.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringP("fixture", "f", "", "JSON fixture file to ingest (required)")
	statsCmd.Flags().String("config", "", "YAML config file (optional, defaults applied otherwise)")
	_ = statsCmd.MarkFlagRequired("fixture")
}

type statsReport struct {
	Nodes             int     `json:"nodes_ingested"`
	Ways              int     `json:"ways_ingested"`
	Relations         int     `json:"relations_ingested"`
	RelationsPending  int     `json:"relations_pending"`
	NodeCacheStored   int64   `json:"node_cache_stored"`
	NodeCacheTotal    int64   `json:"node_cache_total"`
	NodeCacheHitRate  float64 `json:"node_cache_hit_rate"`
	NodeCacheDense    int     `json:"node_cache_dense_blocks"`
	NodeCacheSparse   int     `json:"node_cache_sparse_entries"`
	FlatNodeBytes     int64   `json:"flat_node_bytes,omitempty"`
	FlatNodeEnabled   bool    `json:"flat_node_enabled"`
}

func runStats(cmd *cobra.Command, args []string) error {
	fixturePath, _ := cmd.Flags().GetString("fixture")
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	fx, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "midctl-stats-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := middle.OpenBoltStore(filepath.Join(tmpDir, "mid.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	strategy := nodecache.StrategyDense | nodecache.StrategySparse
	if cfg.NodeCache.Lossy {
		strategy |= nodecache.StrategyLossy
	}

	facadeCfg := middle.FacadeConfig{
		Store:     store,
		NodeCache: &nodecache.Config{Strategy: strategy, CacheSizeMB: cfg.NodeCache.CacheSizeMB},
	}
	if cfg.FlatNode.Enabled {
		facadeCfg.FlatNodePath = filepath.Join(tmpDir, "nodes.bin")
	}

	facade, err := middle.NewFacade(facadeCfg)
	if err != nil {
		return fmt.Errorf("create facade: %w", err)
	}
	defer facade.Close()

	for _, n := range fx.Nodes {
		if err := facade.NodesSet(n.ID, n.Lon, n.Lat); err != nil {
			continue
		}
	}
	for _, w := range fx.Ways {
		way := &osm.Way{ID: w.ID, Nodes: w.Nodes, Tags: osm.Tags(w.Tags)}
		if err := facade.WaysSet(way); err != nil {
			return fmt.Errorf("ingest way %d: %w", w.ID, err)
		}
	}

	pending := 0
	for _, r := range fx.Rels {
		rel := r.toRelation()
		rel.Pending = true
		if err := facade.RelationsSet(rel); err != nil {
			return fmt.Errorf("ingest relation %d: %w", r.ID, err)
		}
		pending++
	}

	// Re-resolve every node reference so the RAM cache's hit rate
	// reflects real lookup traffic, not just the write path.
	for _, w := range fx.Ways {
		facade.NodesGetList(w.Nodes)
	}

	report := statsReport{
		Nodes:            len(fx.Nodes),
		Ways:             len(fx.Ways),
		Relations:        len(fx.Rels),
		RelationsPending: pending,
		FlatNodeEnabled:  cfg.FlatNode.Enabled,
	}

	if cs, ok := facade.NodeCacheStats(); ok {
		report.NodeCacheStored = cs.StoredNodes
		report.NodeCacheTotal = cs.TotalNodes
		report.NodeCacheHitRate = cs.HitRate
		report.NodeCacheDense = cs.DenseBlocks
		report.NodeCacheSparse = cs.SparseEntries
	}
	if n, ok := facade.FlatNodeBytes(); ok {
		report.FlatNodeBytes = n
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
