package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the module's startup configuration, loaded from a YAML file.
type Config struct {
	// NodeCache configures the RAM node location store (B).
	NodeCache NodeCacheConfig `yaml:"node_cache"`

	// FlatNode configures the flat-file node location store (C).
	FlatNode FlatNodeConfig `yaml:"flat_node"`

	// Store is the path to the bbolt way/relation database (D).
	Store string `yaml:"store"`

	// Pipeline configures stage-2 reprocessing concurrency.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Geometry configures multipolygon assembly behavior.
	Geometry GeometryConfig `yaml:"geometry"`
}

// NodeCacheConfig holds the RAM node cache options.
type NodeCacheConfig struct {
	// CacheSizeMB bounds the RAM node cache's memory budget.
	CacheSizeMB int `yaml:"cache_size_mb"`

	// Lossy, when true, makes an exhausted budget non-fatal: the dense
	// path evicts its least-used block and the sparse path silently drops
	// the insert.
	Lossy bool `yaml:"lossy"`
}

// FlatNodeConfig holds the flat node file options.
type FlatNodeConfig struct {
	// Enabled turns on the flat-file node store (C). When false, node
	// locations only live in the RAM cache (B) and are lost on eviction.
	Enabled bool `yaml:"enabled"`

	// Path is the flat node file's location on disk.
	Path string `yaml:"path"`
}

// PipelineConfig holds the stage-2 worker-pool options.
type PipelineConfig struct {
	// NumWorkers bounds concurrent relation assembly in stage 2.
	NumWorkers int64 `yaml:"num_workers"`
}

// GeometryConfig mirrors the in-scope multipolygon-assembler flags.
type GeometryConfig struct {
	// MultiOutput packages more than one top-level polygon per relation
	// as a single multipolygon instead of separate polygons.
	MultiOutput bool `yaml:"multi_output"`

	// ExcludeBrokenPolygons drops a self-touching polygon outright
	// instead of attempting the ring-repair pass.
	ExcludeBrokenPolygons bool `yaml:"exclude_broken_polygons"`

	// SplitLength is the line-splitter's maximum chunk length. Zero or
	// negative disables splitting.
	SplitLength float64 `yaml:"split_length"`
}

// Default returns the configuration this module runs with if no file is
// supplied: an 800 MB RAM node cache, no flat file, a single stage-2
// worker, and no geometry splitting.
func Default() Config {
	return Config{
		NodeCache: NodeCacheConfig{CacheSizeMB: 800},
		Pipeline:  PipelineConfig{NumWorkers: 1},
	}
}

// Load reads and parses the YAML configuration file at path, starting
// from Default() so an incomplete file still produces a runnable config.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}
