package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
node_cache:
  cache_size_mb: 2048
  lossy: true
flat_node:
  enabled: true
  path: /var/lib/mid/nodes.bin
store: /var/lib/mid/mid.db
pipeline:
  num_workers: 8
geometry:
  multi_output: true
  exclude_broken_polygons: false
  split_length: 300
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2048, cfg.NodeCache.CacheSizeMB)
	assert.True(t, cfg.NodeCache.Lossy)
	assert.True(t, cfg.FlatNode.Enabled)
	assert.Equal(t, "/var/lib/mid/nodes.bin", cfg.FlatNode.Path)
	assert.Equal(t, "/var/lib/mid/mid.db", cfg.Store)
	assert.Equal(t, int64(8), cfg.Pipeline.NumWorkers)
	assert.True(t, cfg.Geometry.MultiOutput)
	assert.False(t, cfg.Geometry.ExcludeBrokenPolygons)
	assert.InDelta(t, 300.0, cfg.Geometry.SplitLength, 1e-9)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsRunnable(t *testing.T) {
	cfg := Default()
	assert.Greater(t, cfg.NodeCache.CacheSizeMB, 0)
	assert.Greater(t, cfg.Pipeline.NumWorkers, int64(0))
}
