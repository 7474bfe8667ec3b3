package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navcore/internal/pathfinding"
)

func TestLoadNavcoreMissingFile(t *testing.T) {
	cfg, err := LoadNavcore(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultNavcore(), cfg)
}

func TestLoadNavcoreOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navcore.yaml")
	data := `
log_level: debug
pathfinding:
  enabled: false
  grid:
    cell_size: 1.25
  voxel:
    workers: 2
  smart_path:
    replan_distance: 5
sim:
  tick_interval: 100ms
  metrics_addr: ""
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadNavcore(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Pathfinding.Enabled)
	assert.Equal(t, 1.25, cfg.Pathfinding.Grid.CellSize)
	assert.Equal(t, 8, cfg.Pathfinding.Grid.ChunkSize, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.Pathfinding.Voxel.Workers)
	assert.Equal(t, 5.0, cfg.Pathfinding.SmartPath.ReplanDistance)
	assert.Equal(t, 100*time.Millisecond, cfg.Sim.TickInterval)
	assert.Empty(t, cfg.Sim.MetricsAddr)
}

func TestLoadNavcoreErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pathfinding: [1, 2"), 0o644))
	_, err := LoadNavcore(bad)
	assert.ErrorContains(t, err, "parsing config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("pathfinding:\n  voxel:\n    workers: 0\n  links:\n    radius: -1\n"), 0o644))
	_, err = LoadNavcore(invalid)
	assert.ErrorContains(t, err, "voxel.workers")
	assert.ErrorContains(t, err, "links.radius")
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultNavcore().Validate())
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("NAVCORE_CONFIG", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("NAVCORE_CONFIG", "/etc/navcore.yaml")
	assert.Equal(t, "/etc/navcore.yaml", Path())
}

func TestFacadeMatchesDefaults(t *testing.T) {
	got := DefaultNavcore().Pathfinding.Facade()
	want := pathfinding.DefaultConfig()
	want.Grid.SearchLimit = 0
	want.Voxel.SearchLimit = 0
	assert.Equal(t, want, got)
}
