package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/navcore/internal/grid"
	"github.com/udisondev/navcore/internal/navmesh"
	"github.com/udisondev/navcore/internal/pathfinding"
	"github.com/udisondev/navcore/internal/voxel"
)

// DefaultPath is read when NAVCORE_CONFIG is not set.
const DefaultPath = "config/navcore.yaml"

// Navcore holds all configuration for the navigation simulator.
type Navcore struct {
	LogLevel string `yaml:"log_level"`

	Pathfinding Pathfinding `yaml:"pathfinding"`
	Sim         Sim         `yaml:"sim"`
}

// Pathfinding holds facade and domain policy.
type Pathfinding struct {
	Enabled   bool      `yaml:"enabled"`
	Grid      Grid      `yaml:"grid"`
	Voxel     Voxel     `yaml:"voxel"`
	Links     Links     `yaml:"links"`
	SmartPath SmartPath `yaml:"smart_path"`
}

// Grid holds grid domain policy.
type Grid struct {
	CellSize      float64 `yaml:"cell_size"`      // metres
	ChunkSize     int     `yaml:"chunk_size"`     // cells per chunk edge
	RebuildBudget int     `yaml:"rebuild_budget"` // chunks per tick
}

// Voxel holds voxel domain policy.
type Voxel struct {
	VoxelSize     float64 `yaml:"voxel_size"` // metres
	ChunkSize     int     `yaml:"chunk_size"` // columns per chunk edge
	RebuildBudget int     `yaml:"rebuild_budget"`
	Workers       int     `yaml:"workers"`
	MaxStep       int     `yaml:"max_step"` // voxels
	Headroom      int     `yaml:"headroom"` // voxels
}

// Links holds navmesh coordinator policy.
type Links struct {
	Radius     float64 `yaml:"radius"`
	BucketSize float64 `yaml:"bucket_size"`
}

// SmartPath holds smart path and search policy.
type SmartPath struct {
	SearchBudget   int     `yaml:"search_budget"`   // expansions per Advance
	ReplanDistance float64 `yaml:"replan_distance"` // metres
	MaxIterations  int     `yaml:"max_iterations"`  // expansions per one-shot search
}

// Sim holds simulation loop settings.
type Sim struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MetricsAddr  string        `yaml:"metrics_addr"` // empty disables the endpoint
	Agents       int           `yaml:"agents"`
	Seed         int64         `yaml:"seed"`
}

// DefaultNavcore returns Navcore config with sensible defaults.
func DefaultNavcore() Navcore {
	return Navcore{
		LogLevel: "info",
		Pathfinding: Pathfinding{
			Enabled: true,
			Grid: Grid{
				CellSize:      2.5,
				ChunkSize:     8,
				RebuildBudget: 8,
			},
			Voxel: Voxel{
				VoxelSize:     1.0,
				ChunkSize:     16,
				RebuildBudget: 8,
				Workers:       4,
				MaxStep:       1,
				Headroom:      2,
			},
			Links: Links{
				Radius:     1.5,
				BucketSize: 4.0,
			},
			SmartPath: SmartPath{
				SearchBudget:   256,
				ReplanDistance: 2.0,
				MaxIterations:  20000,
			},
		},
		Sim: Sim{
			TickInterval: 50 * time.Millisecond,
			MetricsAddr:  ":9464",
			Agents:       16,
			Seed:         1,
		},
	}
}

// Path returns the config path from NAVCORE_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv("NAVCORE_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadNavcore loads navcore config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadNavcore(path string) (Navcore, error) {
	cfg := DefaultNavcore()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects sizes and budgets that would stall or break the simulation.
func (c Navcore) Validate() error {
	p := c.Pathfinding
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}

	positive("grid.cell_size", p.Grid.CellSize)
	positive("grid.chunk_size", float64(p.Grid.ChunkSize))
	positive("grid.rebuild_budget", float64(p.Grid.RebuildBudget))
	positive("voxel.voxel_size", p.Voxel.VoxelSize)
	positive("voxel.chunk_size", float64(p.Voxel.ChunkSize))
	positive("voxel.rebuild_budget", float64(p.Voxel.RebuildBudget))
	positive("voxel.workers", float64(p.Voxel.Workers))
	positive("voxel.headroom", float64(p.Voxel.Headroom))
	positive("links.radius", p.Links.Radius)
	positive("links.bucket_size", p.Links.BucketSize)
	positive("smart_path.search_budget", float64(p.SmartPath.SearchBudget))
	positive("smart_path.max_iterations", float64(p.SmartPath.MaxIterations))
	positive("sim.tick_interval", float64(c.Sim.TickInterval))

	if p.Voxel.MaxStep < 0 {
		errs = append(errs, fmt.Errorf("voxel.max_step must not be negative, got %d", p.Voxel.MaxStep))
	}
	if p.SmartPath.ReplanDistance < 0 {
		errs = append(errs, fmt.Errorf("smart_path.replan_distance must not be negative, got %v", p.SmartPath.ReplanDistance))
	}
	if c.Sim.Agents < 0 {
		errs = append(errs, fmt.Errorf("sim.agents must not be negative, got %d", c.Sim.Agents))
	}
	return errors.Join(errs...)
}

// Facade converts the pathfinding section into a facade configuration.
func (p Pathfinding) Facade() pathfinding.Config {
	return pathfinding.Config{
		Enabled: p.Enabled,
		Grid: grid.Config{
			CellSize:      p.Grid.CellSize,
			ChunkSize:     p.Grid.ChunkSize,
			RebuildBudget: p.Grid.RebuildBudget,
		},
		Voxel: voxel.Config{
			VoxelSize:     p.Voxel.VoxelSize,
			ChunkSize:     p.Voxel.ChunkSize,
			RebuildBudget: p.Voxel.RebuildBudget,
			Workers:       p.Voxel.Workers,
			MaxStep:       p.Voxel.MaxStep,
			Headroom:      p.Voxel.Headroom,
		},
		Links: navmesh.Config{
			Radius:     p.Links.Radius,
			BucketSize: p.Links.BucketSize,
		},
		SmartPath: pathfinding.SmartPathConfig{
			SearchBudget:   p.SmartPath.SearchBudget,
			ReplanDistance: p.SmartPath.ReplanDistance,
		},
		MaxIterations: p.SmartPath.MaxIterations,
	}
}
