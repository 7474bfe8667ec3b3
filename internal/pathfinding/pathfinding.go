// Package pathfinding is the single entry point to navigation. A Pathfinding
// facade owns the grid and voxel domains together with the navmesh coordinator
// stitching them, advances them once per simulation tick and answers closest
// primitive, one-shot path and smart path queries over the combined graph.
//
// The facade is not safe for concurrent use: every call happens on the
// simulation goroutine.
package pathfinding

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/udisondev/navcore/internal/grid"
	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/navmesh"
	"github.com/udisondev/navcore/internal/voxel"
)

// SmartPathConfig holds smart path policy.
type SmartPathConfig struct {
	// SearchBudget is the number of node expansions one Advance may spend.
	SearchBudget int
	// ReplanDistance is how far an anchored goal may move before a ready path is re-planned.
	ReplanDistance float64
}

// Config is everything a facade needs at construction.
type Config struct {
	Enabled       bool
	Grid          grid.Config
	Voxel         voxel.Config
	Links         navmesh.Config
	SmartPath     SmartPathConfig
	MaxIterations int // expansions for one-shot searches
}

// DefaultConfig returns an enabled configuration with default policies.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Grid:          grid.DefaultConfig(),
		Voxel:         voxel.DefaultConfig(),
		Links:         navmesh.DefaultConfig(),
		SmartPath:     SmartPathConfig{SearchBudget: 256, ReplanDistance: 2},
		MaxIterations: 20000,
	}
}

// Pathfinding is the navigation facade.
type Pathfinding struct {
	id      string
	cfg     Config
	metrics *metrics.Metrics

	clock nav.Clock
	ids   nav.IDAllocator

	links *navmesh.Coordinator
	grid  *grid.Domain
	voxel *voxel.Domain

	lastHighLevel nav.Timestamp
	unloaded      bool
}

// New creates a facade with empty domains. m may be nil.
func New(cfg Config, m *metrics.Metrics) *Pathfinding {
	p := &Pathfinding{
		id:      uuid.NewString(),
		cfg:     cfg,
		metrics: m,
	}
	p.cfg.Grid.SearchLimit = cfg.MaxIterations
	p.cfg.Voxel.SearchLimit = cfg.MaxIterations

	p.links = navmesh.NewCoordinator(cfg.Links, m)
	p.grid = grid.NewDomain(p.cfg.Grid, &p.ids, &p.clock, p.links, m)
	p.voxel = voxel.NewDomain(p.cfg.Voxel, &p.ids, &p.clock, p.links, m)

	slog.Info("pathfinding created", "id", p.id, "enabled", cfg.Enabled)
	return p
}

// ID identifies the facade instance in logs.
func (p *Pathfinding) ID() string { return p.id }

// Enabled reports whether queries are served.
func (p *Pathfinding) Enabled() bool { return p.cfg.Enabled }

// Unloaded reports whether UnloadAll was called.
func (p *Pathfinding) Unloaded() bool { return p.unloaded }

// Grid returns the grid domain receiving structure notifications.
func (p *Pathfinding) Grid() *grid.Domain { return p.grid }

// Voxel returns the voxel domain receiving terrain notifications.
func (p *Pathfinding) Voxel() *voxel.Domain { return p.voxel }

// Links returns the navmesh coordinator.
func (p *Pathfinding) Links() *navmesh.Coordinator { return p.links }

// Update advances the grid domain, then the voxel domain, then reconciles links,
// so queries made after it see links consistent with this tick's changes.
func (p *Pathfinding) Update() {
	if !p.cfg.Enabled || p.unloaded {
		return
	}
	start := time.Now()

	p.grid.Update()
	p.voxel.Update()
	added := p.links.Update()

	p.metrics.ObserveUpdate(time.Since(start).Seconds())
	if added > 0 && IsDebugEnabled() {
		slog.Debug("pathfinding updated", "id", p.id, "links_added", added, "grid_pending", p.grid.Pending(), "voxel_pending", p.voxel.Pending())
	}
}

// UnloadAll releases both domains and every link. It is idempotent. Afterwards
// every query returns no result and outstanding smart paths become Invalidated.
func (p *Pathfinding) UnloadAll() {
	if p.unloaded {
		return
	}
	p.grid.Unload()
	p.voxel.Unload()
	p.links.Clear()
	p.unloaded = true

	slog.Info("pathfinding unloaded", "id", p.id)
}

// NextTimestamp starts a high-level planning cycle and returns its stamp.
func (p *Pathfinding) NextTimestamp() nav.Timestamp {
	p.lastHighLevel = p.clock.Next()
	return p.lastHighLevel
}

// LastHighLevelTimestamp returns the stamp of the latest planning cycle.
func (p *Pathfinding) LastHighLevelTimestamp() nav.Timestamp {
	return p.lastHighLevel
}

// FindClosestPrimitive returns the primitive nearest to point by squared world
// distance. An owner restricts the scan to its domain and structure. Without one
// the voxel domain is scanned first and the grid candidate replaces it only when
// strictly closer.
func (p *Pathfinding) FindClosestPrimitive(point mgl64.Vec3, highLevel bool, owner Owner) (*nav.Primitive, bool) {
	if !p.ready() {
		return nil, false
	}
	c, ok := p.closest(point, highLevel, owner)
	return c.Primitive, ok
}

func (p *Pathfinding) closest(point mgl64.Vec3, highLevel bool, owner Owner) (nav.Candidate, bool) {
	switch owner.Kind() {
	case OwnerVoxelMap:
		m, _ := owner.VoxelMap()
		return p.voxel.FindClosestPrimitive(point, highLevel, m)
	case OwnerGrid:
		s, _ := owner.Grid()
		return p.grid.FindClosestPrimitive(point, highLevel, s)
	default:
		return nav.Nearest(
			nav.Some(p.voxel.FindClosestPrimitive(point, highLevel, nil)),
			nav.Some(p.grid.FindClosestPrimitive(point, highLevel, nil)),
		)
	}
}

// FindPathLowLevel resolves both positions to their closest low-level primitives
// and runs one complete search through domain edges and links. The path is
// outdated by any topology change made after the call.
func (p *Pathfinding) FindPathLowLevel(begin, end mgl64.Vec3) (*nav.Path, bool) {
	if !p.ready() {
		return nil, false
	}
	start, ok := p.closest(begin, false, NoOwner())
	if !ok {
		return nil, false
	}
	goal, ok := p.closest(end, false, NoOwner())
	if !ok {
		return nil, false
	}

	stamp := p.clock.Next()
	s := nav.NewSearch(p.graph(), start.Primitive, nav.Goal{Primitive: goal.Primitive})
	s.Step(p.cfg.MaxIterations)
	path, found := s.Path(stamp)
	p.metrics.SearchDone("low_level", found, s.Expanded())
	return path, found
}

// FindPathGlobal creates a smart path from begin towards shape. owner, when set,
// restricts the goal to primitives of that domain and structure. The path is
// initialized and advances on SmartPath.Advance.
func (p *Pathfinding) FindPathGlobal(begin mgl64.Vec3, shape Shape, owner Owner) (*SmartPath, bool) {
	if !p.cfg.Enabled {
		assertEnabled("FindPathGlobal")
		return nil, false
	}
	if p.unloaded || shape == nil {
		return nil, false
	}
	sp := newSmartPath(p)
	sp.Init(begin, SmartGoal{Shape: shape, Owner: owner})
	return sp, true
}

// ready reports whether queries may run, asserting when pathfinding is disabled.
func (p *Pathfinding) ready() bool {
	if !p.cfg.Enabled {
		assertEnabled("query")
		return false
	}
	return !p.unloaded
}

// graph is the combined low-level graph: domain edges plus links.
func (p *Pathfinding) graph() nav.Graph {
	return nav.Graph{Links: p.links.Links()}
}

// highGraph is the combined high-level graph: cluster edges plus high links.
func (p *Pathfinding) highGraph() nav.Graph {
	return nav.Graph{Links: p.links.HighLinks()}
}
